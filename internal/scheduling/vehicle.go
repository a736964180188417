package scheduling

import (
	"fmt"

	"ilds/internal/graph"
)

// Vehicle carries packages between hubs. Only the Scheduler that owns a
// vehicle mutates it.
type Vehicle struct {
	id         string
	capacity   int
	used       int
	location   graph.NodeID
	deliveries []*DeliveryRequest
	distance   float64
}

func NewVehicle(id string, capacity int, location graph.NodeID) (*Vehicle, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: vehicle id must not be empty", graph.ErrInvalidArgument)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must be non-negative (capacity=%d)", graph.ErrInvalidArgument, capacity)
	}
	if err := location.Validate(); err != nil {
		return nil, fmt.Errorf("location: %w", err)
	}
	return &Vehicle{id: id, capacity: capacity, location: location}, nil
}

func (v *Vehicle) ID() string             { return v.id }
func (v *Vehicle) Capacity() int          { return v.capacity }
func (v *Vehicle) UsedCapacity() int      { return v.used }
func (v *Vehicle) Available() int         { return v.capacity - v.used }
func (v *Vehicle) Location() graph.NodeID { return v.location }

// DistanceTravelled sums approach and delivery distances since the last reset.
func (v *Vehicle) DistanceTravelled() float64 { return v.distance }

// Deliveries returns the assigned requests in assignment order.
func (v *Vehicle) Deliveries() []*DeliveryRequest {
	return append([]*DeliveryRequest(nil), v.deliveries...)
}

func (v *Vehicle) CanAccommodate(packages int) bool { return v.Available() >= packages }

func (v *Vehicle) assign(r *DeliveryRequest, distance float64) {
	v.deliveries = append(v.deliveries, r)
	v.used += r.Packages
	v.location = r.Destination
	v.distance += distance
	r.markDelivered(v.id)
}

// complete drops the request and releases its capacity. It reports false
// when the request is not assigned to v.
func (v *Vehicle) complete(requestID string) bool {
	for i, r := range v.deliveries {
		if r.ID != requestID {
			continue
		}
		v.deliveries = append(v.deliveries[:i], v.deliveries[i+1:]...)
		v.used -= r.Packages
		if v.used < 0 {
			v.used = 0
		}
		return true
	}
	return false
}

func (v *Vehicle) reset() {
	v.used = 0
	v.deliveries = nil
	v.distance = 0
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{id=%s, capacity=%d, used=%d, location=%s, deliveries=%d}",
		v.id, v.capacity, v.used, v.location, len(v.deliveries))
}

// VehicleState is a point-in-time copy of a vehicle.
type VehicleState struct {
	ID                string       `json:"id"`
	Capacity          int          `json:"capacity"`
	UsedCapacity      int          `json:"usedCapacity"`
	Location          graph.NodeID `json:"location"`
	Deliveries        []string     `json:"deliveries"`
	DistanceTravelled float64      `json:"distanceTravelled"`
}

func (v *Vehicle) state() VehicleState {
	ids := make([]string, len(v.deliveries))
	for i, r := range v.deliveries {
		ids[i] = r.ID
	}
	return VehicleState{
		ID:                v.id,
		Capacity:          v.capacity,
		UsedCapacity:      v.used,
		Location:          v.location,
		Deliveries:        ids,
		DistanceTravelled: v.distance,
	}
}
