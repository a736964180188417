package congestion

import (
	"log"
	"sync"
	"time"

	"ilds/internal/graph"
)

// Sweep summarises one Adapt pass.
type Sweep struct {
	Updated  int           `json:"updated"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Adapter rewrites every edge of a graph from a Model, consulting recorded
// history first.
type Adapter struct {
	mu      sync.Mutex // serialises sweeps; Perturb's RandSource is not goroutine safe
	history *History
	model   Model
	logger  *log.Logger
}

type Option func(*Adapter)

// WithLogger sets the sink for sweep warnings. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithHistory shares an existing history table.
func WithHistory(h *History) Option {
	return func(a *Adapter) {
		if h != nil {
			a.history = h
		}
	}
}

// New returns an adapter that predicts from recorded history and falls back
// to fallback for pairs without a record. A nil fallback keeps the current
// congestion.
func New(fallback Model, opts ...Option) *Adapter {
	a := &Adapter{history: NewHistory(), logger: log.Default()}
	for _, opt := range opts {
		opt(a)
	}
	a.model = Chain{History: a.history, Fallback: fallback}
	return a
}

// NewRandom is New with a Perturb fallback over r.
func NewRandom(r Range, src RandSource, opts ...Option) *Adapter {
	return New(Perturb{Range: r, Rand: src}, opts...)
}

// RecordHistory registers the congestion to use for from → to on later sweeps.
func (a *Adapter) RecordHistory(from, to graph.NodeID, congestion float64) error {
	return a.history.Record(from, to, congestion)
}

func (a *Adapter) History() *History { return a.history }

// Adapt updates every directed edge of g. The edge list is snapshotted first
// in (from, to) order; each edge gets congestion c' = Clamp(model(c)) and
// time × (1 + c'), keeping its distance. An update that fails, or finds its
// edge gone, is logged and counted and the sweep moves on.
//
// The caller owns g for the duration of the call (see graph.Shared.Write).
func (a *Adapter) Adapt(g *graph.Graph) Sweep {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	var s Sweep
	for _, e := range g.Edges() {
		next := Clamp(a.model.Predict(e.From, e.To, e.Congestion))
		ok, err := g.UpdateEdge(e.From, e.To, e.Distance, e.Time*(1+next), next)
		switch {
		case err != nil:
			s.Failed++
			a.logger.Printf("congestion: update failed from=%s to=%s err=%v", e.From, e.To, err)
		case !ok:
			s.Failed++
			a.logger.Printf("congestion: edge vanished from=%s to=%s", e.From, e.To)
		default:
			s.Updated++
		}
	}
	s.Duration = time.Since(start)
	return s
}
