package scheduling

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"ilds/internal/graph"
	"ilds/internal/routing"
)

// Status is the lifecycle state of a delivery request.
type Status string

// A committed assignment moves a request straight from Pending to
// Delivered. InTransit is accepted as a list filter but never reported.
const (
	Pending   Status = "Pending"
	InTransit Status = "InTransit"
	Delivered Status = "Delivered"
)

// DeliveryRequest asks for Packages to be carried from Source to
// Destination within DeadlineHours. The descriptive fields are fixed at
// construction; status and the assigned vehicle change only through the
// Scheduler and never after the request is Delivered.
type DeliveryRequest struct {
	ID            string
	Source        graph.NodeID
	Destination   graph.NodeID
	Packages      int
	Urgency       int // 1 (lowest) to 5 (highest)
	DeadlineHours float64

	mu        sync.RWMutex
	delivered bool
	vehicleID string
}

// NewDeliveryRequest validates its arguments and returns a Pending request.
// An empty id is replaced by a random UUID; pass routing.NoDeadline when the
// request has no deadline.
func NewDeliveryRequest(id string, source, destination graph.NodeID, packages, urgency int, deadlineHours float64) (*DeliveryRequest, error) {
	if id == "" {
		id = uuid.NewString()
	}
	r := &DeliveryRequest{
		ID:            id,
		Source:        source,
		Destination:   destination,
		Packages:      packages,
		Urgency:       urgency,
		DeadlineHours: deadlineHours,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the descriptive fields.
func (r *DeliveryRequest) Validate() error {
	if err := r.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if r.Packages < 0 {
		return fmt.Errorf("%w: package count must be non-negative (packages=%d)", graph.ErrInvalidArgument, r.Packages)
	}
	if r.Urgency < 1 || r.Urgency > 5 {
		return fmt.Errorf("%w: urgency must be between 1 and 5 (urgency=%d)", graph.ErrInvalidArgument, r.Urgency)
	}
	if !(r.DeadlineHours >= 0) {
		return fmt.Errorf("%w: deadline must be non-negative (deadline=%v)", graph.ErrInvalidArgument, r.DeadlineHours)
	}
	return nil
}

// HasDeadline reports whether the request carries a finite deadline.
func (r *DeliveryRequest) HasDeadline() bool {
	return r.DeadlineHours < routing.NoDeadline
}

// Status is Delivered once committed and Pending otherwise.
func (r *DeliveryRequest) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.delivered {
		return Delivered
	}
	return Pending
}

// VehicleID is the assigned vehicle, or "" when none.
func (r *DeliveryRequest) VehicleID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vehicleID
}

func (r *DeliveryRequest) markDelivered(vehicleID string) {
	r.mu.Lock()
	r.vehicleID = vehicleID
	r.delivered = true
	r.mu.Unlock()
}

func (r *DeliveryRequest) String() string {
	vehicle := r.VehicleID()
	if vehicle == "" {
		vehicle = "N/A"
	}
	deadline := "none"
	if r.HasDeadline() {
		deadline = fmt.Sprintf("%.2fh", r.DeadlineHours)
	}
	return fmt.Sprintf("DeliveryRequest{id=%s, %s->%s, packages=%d, urgency=%d, deadline=%s, status=%s, vehicle=%s}",
		r.ID, r.Source, r.Destination, r.Packages, r.Urgency, deadline, r.Status(), vehicle)
}

// deadlineKey sorts absent deadlines last.
func (r *DeliveryRequest) deadlineKey() float64 {
	if math.IsNaN(r.DeadlineHours) {
		return math.Inf(1)
	}
	return r.DeadlineHours
}
