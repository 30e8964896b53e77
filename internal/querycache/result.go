package querycache

import (
	"context"
	"time"
)

type Status int

const (
	// StatusDisabled: the key is not runnable, nothing was fetched.
	StatusDisabled Status = iota
	// StatusIdle: nothing cached and no fetch running (Peek only).
	StatusIdle
	// StatusLoading: first fetch running, no data yet (Peek only).
	StatusLoading
	StatusSuccess
	StatusError
	// StatusCanceled: the reader went away before the data arrived. This is
	// not an error and carries none.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

type Result[T any] struct {
	Status Status
	Data   T
	// Err is set with StatusError. With StatusSuccess it holds the error of
	// the last failed background refetch, if any, while Data stays the last
	// good value.
	Err       error
	UpdatedAt time.Time
	// Stale is true when Data is older than the freshness window.
	Stale bool
	// Fetching is true when a fetch for the key is running.
	Fetching bool
}

// Pages is the accumulated state of a paginated query.
type Pages[P any] struct {
	Pages []P
	// Params holds the cursor each page was fetched with.
	Params []int
	// NextParam is nil when there are no more pages.
	NextParam *int
}

func (p Pages[P]) HasNextPage() bool {
	return p.NextParam != nil
}

// PageFetcher fetches the page at cursor param and returns it together with
// the cursor of the following page (nil when exhausted).
type PageFetcher[P any] func(ctx context.Context, param int) (P, *int, error)
