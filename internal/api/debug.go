package api

import (
	"net/http"
	"time"

	"ilds/internal/buildinfo"
	"ilds/internal/events"
	"ilds/internal/graph"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build":  buildinfo.Info(),
		"time":   time.Now().UTC().Format(time.RFC3339),
		"config": s.Config.Redacted(),
	}
	s.Network.Read(func(g *graph.Graph) {
		info["network"] = map[string]int{"nodes": g.NodeCount(), "edges": g.EdgeCount()}
	})
	info["fleet"] = map[string]any{
		"policy":   s.Scheduler.Policy(),
		"vehicles": len(s.Scheduler.Vehicles()),
	}
	info["congestionHistory"] = s.Adapter.History().Len()
	if mb, ok := s.Broker.(*events.MemoryBroker); ok {
		info["subscribers"] = map[string]int{
			events.TopicDeliveries: mb.Subscribers(events.TopicDeliveries),
			events.TopicNetwork:    mb.Subscribers(events.TopicNetwork),
		}
	}
	writeJSON(w, http.StatusOK, info)
}
