package store

import (
	"context"
	"fmt"
	"sync"

	"ilds/internal/scheduling"
)

// Memory is the in-process Store. Nothing survives a restart.
type Memory struct {
	mu       sync.Mutex
	requests map[string]*scheduling.DeliveryRequest // id -> request
	reqOrder []string                               // ids in first-seen order
	rounds   map[string]scheduling.Round            // id -> round
	rndOrder []string
}

func NewMemory() *Memory {
	return &Memory{
		requests: map[string]*scheduling.DeliveryRequest{},
		rounds:   map[string]scheduling.Round{},
	}
}

func (m *Memory) PutRequests(ctx context.Context, reqs []*scheduling.DeliveryRequest) ([]*scheduling.DeliveryRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// validate the whole batch before registering any of it
	batch := make(map[string]*scheduling.DeliveryRequest, len(reqs))
	for _, r := range reqs {
		old, ok := m.requests[r.ID]
		if !ok {
			old, ok = batch[r.ID]
		}
		if ok && !sameRequest(old, r) {
			return nil, 0, fmt.Errorf("%w: %s", ErrConflict, r.ID)
		}
		if !ok {
			batch[r.ID] = r
		}
	}
	out := make([]*scheduling.DeliveryRequest, len(reqs))
	reused := 0
	for i, r := range reqs {
		if old, ok := m.requests[r.ID]; ok {
			out[i] = old
			reused++
			continue
		}
		m.requests[r.ID] = r
		m.reqOrder = append(m.reqOrder, r.ID)
		out[i] = r
	}
	return out, reused, nil
}

func sameRequest(a, b *scheduling.DeliveryRequest) bool {
	return a.Source == b.Source && a.Destination == b.Destination &&
		a.Packages == b.Packages && a.Urgency == b.Urgency && a.DeadlineHours == b.DeadlineHours
}

func (m *Memory) GetRequest(ctx context.Context, id string) (*scheduling.DeliveryRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListRequests(ctx context.Context, status scheduling.Status, cursor string, limit int) ([]*scheduling.DeliveryRequest, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*scheduling.DeliveryRequest{}
	next, err := paginate(m.reqOrder, cursor, limit, func(id string) bool {
		r := m.requests[id]
		if status != "" && r.Status() != status {
			return false
		}
		out = append(out, r)
		return true
	})
	if err != nil {
		return nil, "", err
	}
	return out, next, nil
}

func (m *Memory) SaveRound(ctx context.Context, round scheduling.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[round.ID]; !ok {
		m.rndOrder = append(m.rndOrder, round.ID)
	}
	m.rounds[round.ID] = round
	return nil
}

func (m *Memory) GetRound(ctx context.Context, id string) (scheduling.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[id]
	if !ok {
		return scheduling.Round{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListRounds(ctx context.Context, cursor string, limit int) ([]scheduling.Round, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []scheduling.Round{}
	next, err := paginate(m.rndOrder, cursor, limit, func(id string) bool {
		out = append(out, m.rounds[id])
		return true
	})
	if err != nil {
		return nil, "", err
	}
	return out, next, nil
}

// paginate walks ids after cursor, offering each to take until limit items
// were taken. It returns the cursor of the next page, or "" on the last one.
// A cursor that names no listed id is rejected.
func paginate(ids []string, cursor string, limit int, take func(id string) bool) (string, error) {
	start := 0
	if cursor != "" {
		start = -1
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return "", fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
		}
	}
	if limit <= 0 {
		limit = 100
	}
	taken := 0
	for i := start; i < len(ids); i++ {
		if taken == limit {
			return ids[i-1], nil
		}
		if take(ids[i]) {
			taken++
		}
	}
	return "", nil
}
