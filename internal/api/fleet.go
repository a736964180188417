package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"ilds/internal/graph"
	"ilds/internal/manifest"
	"ilds/internal/model"
	"ilds/internal/obs"
	"ilds/internal/scheduling"
)

func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Scheduler.Vehicles()})
}

func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in model.VehicleIn
	if !s.decode(w, r, &in) {
		return
	}
	v, err := in.Build()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Scheduler.AddVehicle(v); err != nil {
		writeError(w, r, err)
		return
	}
	st, _ := s.Scheduler.Vehicle(v.ID())
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, ok := s.Scheduler.Vehicle(id)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %s", scheduling.ErrUnknownVehicle, id))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) ResetVehicles(w http.ResponseWriter, r *http.Request) {
	s.Scheduler.ResetVehicles()
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Scheduler.Vehicles()})
}

func (s *Server) CompleteDelivery(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.Scheduler.Complete(vars["id"], vars["requestId"]); err != nil {
		writeError(w, r, err)
		return
	}
	st, _ := s.Scheduler.Vehicle(vars["id"])
	writeJSON(w, http.StatusOK, st)
}

type scheduleOut struct {
	Round      scheduling.Round    `json:"round"`
	Deliveries []model.DeliveryOut `json:"deliveries"`
}

// ScheduleDeliveries runs one scheduling round. The body is either a JSON
// ScheduleRequest or, with a YAML content type, a manifest whose vehicles
// are registered all or nothing before the round. Ids already known resolve
// to the stored requests, so resubmitting a batch does not schedule it twice.
func (s *Server) ScheduleDeliveries(w http.ResponseWriter, r *http.Request) {
	var (
		reqs  []*scheduling.DeliveryRequest
		reset bool
	)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/yaml", "application/x-yaml", "text/yaml":
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error(), r.URL.Path)
			return
		}
		m, err := manifest.Parse(data)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid manifest", err.Error(), r.URL.Path)
			return
		}
		added, err := s.Scheduler.RegisterFleet(m.Vehicles)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if added > 0 {
			s.logger.Printf("fleet: registered vehicles=%d from manifest", added)
		}
		reqs, reset = m.Deliveries, queryBool(r, "reset")
	default:
		var in model.ScheduleRequest
		if !s.decode(w, r, &in) {
			return
		}
		for i, d := range in.Deliveries {
			req, err := d.Build()
			if err != nil {
				writeError(w, r, fmt.Errorf("deliveries[%d]: %w", i, err))
				return
			}
			reqs = append(reqs, req)
		}
		reset = in.ResetVehicles || queryBool(r, "reset")
	}

	var (
		round scheduling.Round
		err   error
	)
	func() {
		defer obs.Time(r.Context(), "deliveries.schedule")(&err)
		round, err = s.schedule(r.Context(), reqs, reset)
	}()
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := scheduleOut{Round: round, Deliveries: make([]model.DeliveryOut, 0, len(round.Outcomes))}
	for _, o := range round.Outcomes {
		if req, err := s.Store.GetRequest(r.Context(), o.RequestID); err == nil {
			out.Deliveries = append(out.Deliveries, model.NewDeliveryOut(req))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetDelivery(w http.ResponseWriter, r *http.Request) {
	req, err := s.Store.GetRequest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewDeliveryOut(req))
}

func (s *Server) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := scheduling.Status(q.Get("status"))
	switch status {
	case "", scheduling.Pending, scheduling.InTransit, scheduling.Delivered:
	default:
		writeError(w, r, fmt.Errorf("%w: unknown status %q", graph.ErrInvalidArgument, status))
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reqs, next, err := s.Store.ListRequests(r.Context(), status, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page := model.Page[model.DeliveryOut]{Items: make([]model.DeliveryOut, 0, len(reqs)), NextCursor: next}
	for _, req := range reqs {
		page.Items = append(page.Items, model.NewDeliveryOut(req))
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) ListRounds(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rounds, next, err := s.Store.ListRounds(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Page[scheduling.Round]{Items: rounds, NextCursor: next})
}

func (s *Server) GetRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.Store.GetRound(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}
