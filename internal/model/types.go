package model

import (
	"ilds/internal/graph"
	"ilds/internal/routing"
	"ilds/internal/scheduling"
)

// Request bodies carry both json and yaml tags so that fleet manifests and
// API payloads share one shape.

type NodeIn struct {
	ID string `json:"id" yaml:"id" validate:"required"`
}

type EdgeIn struct {
	From          string  `json:"from" validate:"required"`
	To            string  `json:"to" validate:"required"`
	Distance      float64 `json:"distance" validate:"gte=0"`
	Time          float64 `json:"time" validate:"gte=0"`
	Congestion    float64 `json:"congestion" validate:"gte=0,lte=1"`
	Bidirectional bool    `json:"bidirectional,omitempty"`
}

type EdgePatch struct {
	Distance   float64 `json:"distance" validate:"gte=0"`
	Time       float64 `json:"time" validate:"gte=0"`
	Congestion float64 `json:"congestion" validate:"gte=0,lte=1"`
}

type RouteSearchRequest struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	// Preference defaults to minimal_time.
	Preference string `json:"preference,omitempty" validate:"omitempty,oneof=shortest minimal_time"`
	// Capacity defaults to 1, which admits every edge.
	Capacity      *int     `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	DeadlineHours *float64 `json:"deadlineHours,omitempty" validate:"omitempty,gte=0"`
	Heuristic     string   `json:"heuristic,omitempty" validate:"omitempty,oneof=zero reverse"`
}

// Constraints converts the optional fields, filling defaults.
func (r RouteSearchRequest) Constraints() routing.Constraints {
	c := routing.Unbounded()
	if r.Capacity != nil {
		c.Capacity = *r.Capacity
	}
	if r.DeadlineHours != nil {
		c.DeadlineHours = *r.DeadlineHours
	}
	return c
}

type RouteOut struct {
	Preference        string         `json:"preference,omitempty"`
	Found             bool           `json:"found"`
	Path              []graph.NodeID `json:"path"`
	TotalDistance     *float64       `json:"totalDistance,omitempty"`
	TotalTime         *float64       `json:"totalTime,omitempty"`
	AverageCongestion float64        `json:"averageCongestion"`
	Summary           string         `json:"summary"`
}

// NewRouteOut omits the MaxFloat64 totals of an empty result.
func NewRouteOut(pref string, r routing.PathResult) RouteOut {
	out := RouteOut{
		Preference:        pref,
		Found:             r.Found(),
		Path:              r.Nodes(),
		AverageCongestion: r.AverageCongestion,
		Summary:           r.String(),
	}
	if out.Path == nil {
		out.Path = []graph.NodeID{}
	}
	if r.Found() {
		d, t := r.TotalDistance, r.TotalTime
		out.TotalDistance, out.TotalTime = &d, &t
	}
	return out
}

type HistoryIn struct {
	From       string  `json:"from" validate:"required"`
	To         string  `json:"to" validate:"required"`
	Congestion float64 `json:"congestion" validate:"gte=0,lte=1"`
}

type VehicleIn struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Capacity int    `json:"capacity" yaml:"capacity" validate:"gte=0"`
	Location string `json:"location" yaml:"location" validate:"required"`
}

func (v VehicleIn) Build() (*scheduling.Vehicle, error) {
	return scheduling.NewVehicle(v.ID, v.Capacity, graph.NodeID(v.Location))
}

type DeliveryIn struct {
	ID          string `json:"id,omitempty" yaml:"id"`
	Source      string `json:"source" yaml:"source" validate:"required"`
	Destination string `json:"destination" yaml:"destination" validate:"required"`
	Packages    int    `json:"packages" yaml:"packages" validate:"gte=0"`
	Urgency     int    `json:"urgency" yaml:"urgency" validate:"min=1,max=5"`
	// DeadlineHours absent means no deadline.
	DeadlineHours *float64 `json:"deadlineHours,omitempty" yaml:"deadlineHours" validate:"omitempty,gte=0"`
}

func (d DeliveryIn) Build() (*scheduling.DeliveryRequest, error) {
	deadline := routing.NoDeadline
	if d.DeadlineHours != nil {
		deadline = *d.DeadlineHours
	}
	return scheduling.NewDeliveryRequest(d.ID, graph.NodeID(d.Source), graph.NodeID(d.Destination), d.Packages, d.Urgency, deadline)
}

type ScheduleRequest struct {
	Deliveries []DeliveryIn `json:"deliveries" validate:"required,min=1,dive"`
	// ResetVehicles starts a new cycle before the round.
	ResetVehicles bool `json:"resetVehicles,omitempty"`
}

type DeliveryOut struct {
	ID            string   `json:"id"`
	Source        string   `json:"source"`
	Destination   string   `json:"destination"`
	Packages      int      `json:"packages"`
	Urgency       int      `json:"urgency"`
	DeadlineHours *float64 `json:"deadlineHours,omitempty"`
	Status        string   `json:"status"`
	VehicleID     string   `json:"vehicleId,omitempty"`
}

func NewDeliveryOut(r *scheduling.DeliveryRequest) DeliveryOut {
	out := DeliveryOut{
		ID:          r.ID,
		Source:      string(r.Source),
		Destination: string(r.Destination),
		Packages:    r.Packages,
		Urgency:     r.Urgency,
		Status:      string(r.Status()),
		VehicleID:   r.VehicleID(),
	}
	if r.HasDeadline() {
		d := r.DeadlineHours
		out.DeadlineHours = &d
	}
	return out
}

// Page wraps a cursor-paginated listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}
