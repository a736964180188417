// Package netload fills a graph.Graph from external network descriptions.
//
// The text format has one declaration per line:
//
//	NODE <id>
//	EDGE <from> <to> <distance> <time> <congestion>
//
// Keywords are case-insensitive, blank lines and lines starting with '#' are
// ignored. Edges are directed and both endpoints must already be declared.
// A malformed or out-of-range line is skipped with a warning; it never
// aborts the load.
package netload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"ilds/internal/graph"
)

// Skipped describes a rejected input line or row.
type Skipped struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Report summarises a load.
type Report struct {
	Nodes   int       `json:"nodes"`
	Edges   int       `json:"edges"`
	Skipped []Skipped `json:"skipped"`
}

func (r *Report) skip(logger *log.Logger, line int, text, reason string) {
	r.Skipped = append(r.Skipped, Skipped{Line: line, Text: text, Reason: reason})
	logger.Printf("netload: skipping line=%d reason=%q text=%q", line, reason, text)
}

// LoadFile reads path with LoadText.
func LoadFile(path string, g *graph.Graph, logger *log.Logger) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()
	return LoadText(f, g, logger)
}

// LoadText applies every valid declaration in r to g. Only read errors are
// returned; bad lines end up in Report.Skipped.
func LoadText(r io.Reader, g *graph.Graph, logger *log.Logger) (Report, error) {
	if logger == nil {
		logger = log.Default()
	}
	rep := Report{Skipped: []Skipped{}}
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch strings.ToUpper(fields[0]) {
		case "NODE":
			if len(fields) != 2 {
				rep.skip(logger, n, text, "NODE takes exactly one id")
				continue
			}
			if err := g.AddNode(graph.NodeID(fields[1])); err != nil {
				rep.skip(logger, n, text, err.Error())
				continue
			}
			rep.Nodes++
		case "EDGE":
			if err := applyEdge(g, fields); err != nil {
				rep.skip(logger, n, text, err.Error())
				continue
			}
			rep.Edges++
		default:
			rep.skip(logger, n, text, "unknown line type")
		}
	}
	if err := sc.Err(); err != nil {
		return rep, fmt.Errorf("netload: read: %w", err)
	}
	logger.Printf("netload: loaded nodes=%d edges=%d skipped=%d", rep.Nodes, rep.Edges, len(rep.Skipped))
	return rep, nil
}

func applyEdge(g *graph.Graph, fields []string) error {
	if len(fields) != 6 {
		return errors.New("EDGE takes from, to, distance, time and congestion")
	}
	var vals [3]float64
	for i, s := range fields[3:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("bad number %q", s)
		}
		vals[i] = v
	}
	return g.AddEdge(graph.NodeID(fields[1]), graph.NodeID(fields[2]), vals[0], vals[1], vals[2])
}

// Write renders g in the text format, nodes first, both in sorted order.
func Write(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	for _, id := range g.Nodes() {
		fmt.Fprintf(bw, "NODE %s\n", id)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "EDGE %s %s %s %s %s\n", e.From, e.To,
			strconv.FormatFloat(e.Distance, 'g', -1, 64),
			strconv.FormatFloat(e.Time, 'g', -1, 64),
			strconv.FormatFloat(e.Congestion, 'g', -1, 64))
	}
	return bw.Flush()
}
