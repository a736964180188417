package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ilds/internal/metrics"
)

// Router registers every endpoint. Request ids and the access log wrap the
// whole router so unmatched paths are logged too.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument, s.rateLimit)

	r.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.ReadyHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/debug/vars", s.DebugJSON).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Network
	v1.HandleFunc("/nodes", s.ListNodes).Methods(http.MethodGet)
	v1.HandleFunc("/nodes", s.CreateNode).Methods(http.MethodPost)
	v1.HandleFunc("/nodes/{id}", s.DeleteNode).Methods(http.MethodDelete)
	v1.HandleFunc("/nodes/{id}/neighbors", s.Neighbors).Methods(http.MethodGet)
	v1.HandleFunc("/edges", s.ListEdges).Methods(http.MethodGet)
	v1.HandleFunc("/edges", s.CreateEdge).Methods(http.MethodPost)
	v1.HandleFunc("/edges/{from}/{to}", s.UpdateEdge).Methods(http.MethodPut)
	v1.HandleFunc("/edges/{from}/{to}", s.DeleteEdge).Methods(http.MethodDelete)
	v1.HandleFunc("/network/import", s.ImportNetwork).Methods(http.MethodPost)
	v1.HandleFunc("/network/export", s.ExportNetwork).Methods(http.MethodGet)

	// Routing
	v1.HandleFunc("/routes/search", s.SearchRoute).Methods(http.MethodPost)
	v1.HandleFunc("/routes/alternatives", s.RouteAlternatives).Methods(http.MethodPost)

	// Congestion
	v1.HandleFunc("/congestion/adapt", s.AdaptCongestion).Methods(http.MethodPost)
	v1.HandleFunc("/congestion/history", s.RecordHistory).Methods(http.MethodPost)

	// Fleet and deliveries
	v1.HandleFunc("/vehicles", s.ListVehicles).Methods(http.MethodGet)
	v1.HandleFunc("/vehicles", s.CreateVehicle).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/reset", s.ResetVehicles).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/{id}", s.GetVehicle).Methods(http.MethodGet)
	v1.HandleFunc("/vehicles/{id}/complete/{requestId}", s.CompleteDelivery).Methods(http.MethodPost)
	v1.HandleFunc("/deliveries", s.ListDeliveries).Methods(http.MethodGet)
	v1.HandleFunc("/deliveries/schedule", s.ScheduleDeliveries).Methods(http.MethodPost)
	v1.HandleFunc("/deliveries/{id}", s.GetDelivery).Methods(http.MethodGet)
	v1.HandleFunc("/rounds", s.ListRounds).Methods(http.MethodGet)
	v1.HandleFunc("/rounds/{id}", s.GetRound).Methods(http.MethodGet)

	// Events
	v1.HandleFunc("/events/ws", s.EventsWSHandler).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path, r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path, r.URL.Path)
	})

	return requestID(accessLog(r))
}
