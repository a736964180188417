package api

import (
	"net/http"

	"ilds/internal/graph"
	"ilds/internal/model"
)

// AdaptCongestion runs one sweep now, through the same worker used for
// periodic sweeps.
func (s *Server) AdaptCongestion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sweeper.RunOnce())
}

func (s *Server) RecordHistory(w http.ResponseWriter, r *http.Request) {
	var in model.HistoryIn
	if !s.decode(w, r, &in) {
		return
	}
	if err := s.Adapter.RecordHistory(graph.NodeID(in.From), graph.NodeID(in.To), in.Congestion); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recorded": in, "entries": s.Adapter.History().Len()})
}
