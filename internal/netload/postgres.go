package netload

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ilds/internal/graph"
)

// Expected schema:
//
//	CREATE TABLE hubs  (id text PRIMARY KEY);
//	CREATE TABLE roads (from_id text, to_id text, distance double precision,
//	                    time double precision, congestion double precision);
const (
	hubsQuery  = `SELECT id FROM hubs ORDER BY id`
	roadsQuery = `SELECT from_id, to_id, distance, time, congestion FROM roads ORDER BY from_id, to_id`
)

// OpenPostgres opens and pings a database through the pgx driver.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadPostgres imports hubs and roads into g. Rows that fail validation are
// skipped like bad text lines; Skipped.Line is the 1-based row number within
// its table.
func LoadPostgres(ctx context.Context, db Querier, g *graph.Graph, logger *log.Logger) (Report, error) {
	if logger == nil {
		logger = log.Default()
	}
	rep := Report{Skipped: []Skipped{}}

	rows, err := db.QueryContext(ctx, hubsQuery)
	if err != nil {
		return rep, fmt.Errorf("netload: query hubs: %w", err)
	}
	n := 0
	for rows.Next() {
		n++
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return rep, fmt.Errorf("netload: scan hub: %w", err)
		}
		if err := g.AddNode(graph.NodeID(id)); err != nil {
			rep.skip(logger, n, "hub "+id, err.Error())
			continue
		}
		rep.Nodes++
	}
	if err := closeRows(rows); err != nil {
		return rep, fmt.Errorf("netload: hubs: %w", err)
	}

	rows, err = db.QueryContext(ctx, roadsQuery)
	if err != nil {
		return rep, fmt.Errorf("netload: query roads: %w", err)
	}
	n = 0
	for rows.Next() {
		n++
		var from, to string
		var d, t, c float64
		if err := rows.Scan(&from, &to, &d, &t, &c); err != nil {
			rows.Close()
			return rep, fmt.Errorf("netload: scan road: %w", err)
		}
		if err := g.AddEdge(graph.NodeID(from), graph.NodeID(to), d, t, c); err != nil {
			rep.skip(logger, n, fmt.Sprintf("road %s->%s", from, to), err.Error())
			continue
		}
		rep.Edges++
	}
	if err := closeRows(rows); err != nil {
		return rep, fmt.Errorf("netload: roads: %w", err)
	}
	logger.Printf("netload: postgres loaded nodes=%d edges=%d skipped=%d", rep.Nodes, rep.Edges, len(rep.Skipped))
	return rep, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
