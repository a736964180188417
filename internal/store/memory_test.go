package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ilds/internal/graph"
	"ilds/internal/routing"
	"ilds/internal/scheduling"
)

func req(t *testing.T, id string, packages int) *scheduling.DeliveryRequest {
	t.Helper()
	r, err := scheduling.NewDeliveryRequest(id, "A", "B", packages, 1, routing.NoDeadline)
	require.NoError(t, err)
	return r
}

func TestPutRequestsReusesKnownIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	first := req(t, "r1", 2)
	_, reused, err := m.PutRequests(ctx, []*scheduling.DeliveryRequest{first})
	require.NoError(t, err)
	assert.Equal(t, 0, reused)

	again := req(t, "r1", 2)
	stored, reused, err := m.PutRequests(ctx, []*scheduling.DeliveryRequest{again, req(t, "r2", 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, reused)
	assert.Same(t, first, stored[0])

	_, _, err = m.PutRequests(ctx, []*scheduling.DeliveryRequest{req(t, "r3", 1), req(t, "r1", 9)})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = m.GetRequest(ctx, "r3")
	assert.ErrorIs(t, err, ErrNotFound, "a conflicting batch registers nothing")

	// the same id twice in one batch must agree as well
	a, err := scheduling.NewDeliveryRequest("r4", "A", "B", 1, 3, 1)
	require.NoError(t, err)
	b, err := scheduling.NewDeliveryRequest("r4", "A", "C", 4, 5, 1)
	require.NoError(t, err)
	_, _, err = m.PutRequests(ctx, []*scheduling.DeliveryRequest{a, b})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = m.GetRequest(ctx, "r4")
	assert.ErrorIs(t, err, ErrNotFound)

	twin := req(t, "r5", 2)
	stored, reused, err = m.PutRequests(ctx, []*scheduling.DeliveryRequest{twin, req(t, "r5", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, reused)
	assert.Same(t, twin, stored[1])
}

func TestListRequestsPaginatesAndFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var reqs []*scheduling.DeliveryRequest
	for i := 0; i < 5; i++ {
		reqs = append(reqs, req(t, fmt.Sprintf("r%d", i), 1))
	}
	_, _, err := m.PutRequests(ctx, reqs)
	require.NoError(t, err)

	page, next, err := m.ListRequests(ctx, "", "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "r1", next)

	page, next, err = m.ListRequests(ctx, "", next, 2)
	require.NoError(t, err)
	assert.Equal(t, "r2", page[0].ID)
	assert.Equal(t, "r3", next)

	page, next, err = m.ListRequests(ctx, "", next, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Empty(t, next)

	_, _, err = m.ListRequests(ctx, "", "r99", 2)
	assert.ErrorIs(t, err, ErrInvalidCursor)
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)

	// deliver r0 and filter on status
	g := graph.New()
	require.NoError(t, g.AddNode("A"))
	require.NoError(t, g.AddNode("B"))
	require.NoError(t, g.AddEdge("A", "B", 1, 1, 0))
	v, err := scheduling.NewVehicle("v", 1, "A")
	require.NoError(t, err)
	scheduling.New([]*scheduling.Vehicle{v}).ScheduleDeliveries(g, reqs[:1])

	delivered, _, err := m.ListRequests(ctx, scheduling.Delivered, "", 10)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "r0", delivered[0].ID)
}

func TestRounds(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveRound(ctx, scheduling.Round{ID: "a"}))
	require.NoError(t, m.SaveRound(ctx, scheduling.Round{ID: "b"}))
	require.NoError(t, m.SaveRound(ctx, scheduling.Round{ID: "a"}))

	rounds, next, err := m.ListRounds(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, rounds, 2)
	assert.Empty(t, next)

	_, _, err = m.ListRounds(ctx, "zzz", 1)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	_, err = m.GetRound(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := m.GetRound(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}
