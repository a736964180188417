package store

import (
	"context"
	"errors"
	"fmt"

	"ilds/internal/graph"
	"ilds/internal/scheduling"
)

// Store keeps the delivery requests and scheduling rounds seen by the API.
type Store interface {
	// PutRequests registers reqs and returns the stored instances in input
	// order. A request whose id is already known resolves to the stored
	// request, so resubmitted batches see the existing lifecycle state.
	PutRequests(ctx context.Context, reqs []*scheduling.DeliveryRequest) (stored []*scheduling.DeliveryRequest, reused int, err error)
	GetRequest(ctx context.Context, id string) (*scheduling.DeliveryRequest, error)
	ListRequests(ctx context.Context, status scheduling.Status, cursor string, limit int) ([]*scheduling.DeliveryRequest, string, error)

	SaveRound(ctx context.Context, round scheduling.Round) error
	GetRound(ctx context.Context, id string) (scheduling.Round, error)
	ListRounds(ctx context.Context, cursor string, limit int) ([]scheduling.Round, string, error)
}

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("request id reused with different attributes")
	// ErrInvalidCursor matches graph.ErrInvalidArgument under errors.Is.
	ErrInvalidCursor = fmt.Errorf("%w: unknown cursor", graph.ErrInvalidArgument)
)
