// Package scheduling assigns delivery requests to vehicles.
//
// A round orders requests by urgency (highest first), then deadline
// (earliest first), then input order. For each request the scheduler picks
// one vehicle with room for the packages using the configured Policy, checks
// the minimum-time route from source to destination against the request
// deadline, and commits only when that route exists and fits. Failures are
// reported in the Round; they are never returned as errors.
package scheduling

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ilds/internal/graph"
	"ilds/internal/routing"
)

var (
	ErrUnknownVehicle   = errors.New("scheduling: unknown vehicle")
	ErrDuplicateVehicle = errors.New("scheduling: vehicle already registered")
	ErrNotAssigned      = errors.New("scheduling: request not assigned to vehicle")
	ErrUnknownPolicy    = errors.New("scheduling: invalid policy, use 'nearest' or 'colocated'")
)

// Policy selects the vehicle for a request. A scheduler uses exactly one.
type Policy string

const (
	// NearestVehicle picks the vehicle with the least route distance from its
	// location to the request source. Ties go to the earlier vehicle.
	NearestVehicle Policy = "nearest"
	// CoLocatedVehicle picks the first vehicle already at the request source.
	CoLocatedVehicle Policy = "colocated"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case NearestVehicle, CoLocatedVehicle:
		return p, nil
	case "":
		return NearestVehicle, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// OutcomeKind classifies what a round did with one request.
type OutcomeKind string

const (
	OutcomeScheduled      OutcomeKind = "scheduled"
	OutcomeSkipped        OutcomeKind = "skipped"
	OutcomeNoVehicle      OutcomeKind = "no_vehicle"
	OutcomeDeadlineMissed OutcomeKind = "deadline_missed"
	OutcomeInvalid        OutcomeKind = "invalid"
)

// Outcome reports the handling of one request. Route is set when a vehicle
// was selected and searched for, even if the deadline was then missed.
type Outcome struct {
	RequestID string              `json:"requestId"`
	Kind      OutcomeKind         `json:"kind"`
	VehicleID string              `json:"vehicleId,omitempty"`
	Approach  float64             `json:"approachDistance,omitempty"`
	Route     *routing.PathResult `json:"route,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	Err       error               `json:"-"`
}

// Round is the report of one ScheduleDeliveries call. Outcomes are listed in
// processing order.
type Round struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Outcomes  []Outcome     `json:"outcomes"`
}

func (r Round) Committed() []Outcome {
	return r.filter(func(k OutcomeKind) bool { return k == OutcomeScheduled })
}

// Failed returns outcomes that left their request Pending.
func (r Round) Failed() []Outcome {
	return r.filter(func(k OutcomeKind) bool { return k != OutcomeScheduled && k != OutcomeSkipped })
}

func (r Round) filter(keep func(OutcomeKind) bool) []Outcome {
	out := []Outcome{}
	for _, o := range r.Outcomes {
		if keep(o.Kind) {
			out = append(out, o)
		}
	}
	return out
}

// Scheduler owns a fleet. Rounds, resets and completions are serialised.
type Scheduler struct {
	mu         sync.Mutex
	vehicles   []*Vehicle
	policy     Policy
	logger     *log.Logger
	searchOpts []routing.Option
	now        func() time.Time
}

type Option func(*Scheduler)

func WithPolicy(p Policy) Option { return func(s *Scheduler) { s.policy = p } }

func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSearchOptions forwards options to the feasibility search.
func WithSearchOptions(opts ...routing.Option) Option {
	return func(s *Scheduler) { s.searchOpts = append(s.searchOpts, opts...) }
}

func New(vehicles []*Vehicle, opts ...Option) *Scheduler {
	s := &Scheduler{
		vehicles: append([]*Vehicle(nil), vehicles...),
		policy:   NearestVehicle,
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Policy() Policy { return s.policy }

// AddVehicle appends v to the fleet.
func (s *Scheduler) AddVehicle(v *Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(v.ID()) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateVehicle, v.ID())
	}
	s.vehicles = append(s.vehicles, v)
	return nil
}

// RegisterFleet adds the vehicles not yet in the fleet, all or nothing. A
// vehicle whose id is already registered with the same capacity is left as
// it is, so registering the same fleet twice is harmless; a different
// capacity, or an id repeated within vs, fails with ErrDuplicateVehicle and
// adds nothing.
func (s *Scheduler) RegisterFleet(vs []*Vehicle) (added int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(vs))
	var fresh []*Vehicle
	for _, v := range vs {
		if seen[v.id] {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateVehicle, v.id)
		}
		seen[v.id] = true
		if old := s.find(v.id); old != nil {
			if old.capacity != v.capacity {
				return 0, fmt.Errorf("%w: %s has capacity %d", ErrDuplicateVehicle, v.id, old.capacity)
			}
			continue
		}
		fresh = append(fresh, v)
	}
	s.vehicles = append(s.vehicles, fresh...)
	return len(fresh), nil
}

// Vehicles returns the fleet state in registration order.
func (s *Scheduler) Vehicles() []VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VehicleState, len(s.vehicles))
	for i, v := range s.vehicles {
		out[i] = v.state()
	}
	return out
}

func (s *Scheduler) Vehicle(id string) (VehicleState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.find(id); v != nil {
		return v.state(), true
	}
	return VehicleState{}, false
}

// ResetVehicles clears every vehicle's load, deliveries and distance ahead
// of a new cycle. Locations are kept.
func (s *Scheduler) ResetVehicles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vehicles {
		v.reset()
	}
}

// Complete releases the capacity held by a delivered request.
func (s *Scheduler) Complete(vehicleID, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.find(vehicleID)
	if v == nil {
		return fmt.Errorf("%w: %s", ErrUnknownVehicle, vehicleID)
	}
	if !v.complete(requestID) {
		return fmt.Errorf("%w: vehicle=%s request=%s", ErrNotAssigned, vehicleID, requestID)
	}
	return nil
}

func (s *Scheduler) find(id string) *Vehicle {
	for _, v := range s.vehicles {
		if v.id == id {
			return v
		}
	}
	return nil
}

// ScheduleOn runs a round inside network's read scope.
func (s *Scheduler) ScheduleOn(network *graph.Shared, requests []*DeliveryRequest) Round {
	var round Round
	network.Read(func(g *graph.Graph) {
		round = s.ScheduleDeliveries(g, requests)
	})
	return round
}

// ScheduleDeliveries runs one round over requests against g. The caller must
// keep g unchanged for the duration of the call. Requests already Delivered
// are skipped untouched, so resubmitting a batch is harmless.
func (s *Scheduler) ScheduleDeliveries(g *graph.Graph, requests []*DeliveryRequest) Round {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	round := Round{ID: uuid.NewString(), StartedAt: s.now().UTC(), Outcomes: []Outcome{}}
	for _, r := range prioritise(requests) {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		o := s.handle(g, r)
		s.logger.Printf("scheduler: round=%s request=%s outcome=%s vehicle=%s", round.ID, r.ID, o.Kind, o.VehicleID)
		round.Outcomes = append(round.Outcomes, o)
	}
	round.Duration = time.Since(start)
	return round
}

// prioritise orders by urgency desc, deadline asc, input order.
func prioritise(requests []*DeliveryRequest) []*DeliveryRequest {
	ordered := make([]*DeliveryRequest, 0, len(requests))
	for _, r := range requests {
		if r != nil {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Urgency != b.Urgency {
			return a.Urgency > b.Urgency
		}
		return a.deadlineKey() < b.deadlineKey()
	})
	return ordered
}

func (s *Scheduler) handle(g *graph.Graph, r *DeliveryRequest) Outcome {
	o := Outcome{RequestID: r.ID}
	if r.Status() == Delivered {
		o.Kind, o.VehicleID = OutcomeSkipped, r.VehicleID()
		return o
	}
	if err := s.check(g, r); err != nil {
		o.Kind, o.Reason, o.Err = OutcomeInvalid, err.Error(), err
		return o
	}

	v, approach := s.selectVehicle(g, r)
	if v == nil {
		o.Kind, o.Reason = OutcomeNoVehicle, fmt.Sprintf("no vehicle with %d free capacity can reach %s", r.Packages, r.Source)
		return o
	}
	o.VehicleID, o.Approach = v.id, approach

	c := routing.Constraints{Capacity: v.capacity, DeadlineHours: r.DeadlineHours}
	route, err := routing.MinTime(g, r.Source, r.Destination, c, s.searchOpts...)
	if err != nil {
		o.Kind, o.Reason, o.Err = OutcomeInvalid, err.Error(), err
		return o
	}
	o.Route = &route
	if !route.Found() || route.TotalTime > routing.DeadlineMinutes(r.DeadlineHours) {
		o.Kind, o.Reason = OutcomeDeadlineMissed, fmt.Sprintf("no route from %s to %s within the deadline", r.Source, r.Destination)
		return o
	}

	v.assign(r, approach+route.TotalDistance)
	o.Kind = OutcomeScheduled
	return o
}

func (s *Scheduler) check(g *graph.Graph, r *DeliveryRequest) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for _, id := range []graph.NodeID{r.Source, r.Destination} {
		if !g.HasNode(id) {
			return &routing.NodeError{ID: id}
		}
	}
	return nil
}

// selectVehicle applies the scheduler policy and returns the vehicle with
// its approach distance to the request source.
func (s *Scheduler) selectVehicle(g *graph.Graph, r *DeliveryRequest) (*Vehicle, float64) {
	switch s.policy {
	case CoLocatedVehicle:
		for _, v := range s.vehicles {
			if v.CanAccommodate(r.Packages) && v.location == r.Source {
				return v, 0
			}
		}
		return nil, 0
	default:
		var best *Vehicle
		bestCost := math.MaxFloat64
		for _, v := range s.vehicles {
			if !v.CanAccommodate(r.Packages) {
				continue
			}
			c := routing.Constraints{Capacity: v.capacity, DeadlineHours: r.DeadlineHours}
			cost, err := routing.CalculateDistance(g, v.location, r.Source, c)
			if err != nil {
				s.logger.Printf("scheduler: vehicle=%s skipped err=%v", v.id, err)
				continue
			}
			if cost < bestCost {
				best, bestCost = v, cost
			}
		}
		if best == nil {
			return nil, 0
		}
		return best, bestCost
	}
}
