package congestion

import (
	"sync"
	"time"

	"ilds/internal/graph"
)

// Worker runs Adapt on a shared network at a fixed interval. Each sweep holds
// the network's write scope, so searches never observe a half-applied sweep.
type Worker struct {
	Adapter  *Adapter
	Network  *graph.Shared
	Interval time.Duration
	// OnSweep, when set, is called after every sweep outside the write scope.
	OnSweep func(Sweep)
	Stop    chan struct{}

	stopOnce sync.Once
}

func NewWorker(a *Adapter, network *graph.Shared, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{Adapter: a, Network: network, Interval: interval, Stop: make(chan struct{})}
}

func (w *Worker) Start() {
	go func() {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.Stop:
				return
			case <-ticker.C:
				w.RunOnce()
			}
		}
	}()
}

// Close stops the loop started by Start. Safe to call more than once.
func (w *Worker) Close() {
	w.stopOnce.Do(func() { close(w.Stop) })
}

// RunOnce performs a single sweep immediately.
func (w *Worker) RunOnce() Sweep {
	var s Sweep
	_ = w.Network.Write(func(g *graph.Graph) error {
		s = w.Adapter.Adapt(g)
		return nil
	})
	if w.OnSweep != nil {
		w.OnSweep(s)
	}
	return s
}
