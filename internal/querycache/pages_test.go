package querycache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/2beens/fitcalc/internal/querycache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedSource serves 50 records in pages of 20 (offsets 0, 20, 40).
type pagedSource struct {
	mutex  sync.Mutex
	offset []int
	fail   bool
}

func (ps *pagedSource) fetch(_ context.Context, offset int) ([]int, *int, error) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.offset = append(ps.offset, offset)
	if ps.fail {
		return nil, nil, errors.New("calculations-by-type failed: HTTP 500")
	}

	var page []int
	for i := offset; i < offset+20 && i < 50; i++ {
		page = append(page, i)
	}
	if offset+20 >= 50 {
		return page, nil, nil
	}
	next := offset + 20
	return page, &next, nil
}

func (ps *pagedSource) calls() []int {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	return append([]int(nil), ps.offset...)
}

func byTypeKey() querycache.Key {
	return querycache.Key{Op: querycache.OpByType, UserID: "u1", Type: "BMR", PageSize: 20}
}

func TestQueryPages_LoadAllPages(t *testing.T) {
	c := newTestCoordinator(t, newFakeClock())
	src := &pagedSource{}
	ctx := context.Background()

	res := querycache.QueryPages(ctx, c, byTypeKey(), 0, src.fetch)
	require.Equal(t, querycache.StatusSuccess, res.Status)
	require.Len(t, res.Data.Pages, 1)
	require.True(t, res.Data.HasNextPage())
	assert.Equal(t, 20, *res.Data.NextParam)

	res = querycache.FetchNextPage(ctx, c, byTypeKey(), 0, src.fetch)
	require.Equal(t, querycache.StatusSuccess, res.Status)
	require.Len(t, res.Data.Pages, 2)
	assert.Equal(t, 40, *res.Data.NextParam)

	res = querycache.FetchNextPage(ctx, c, byTypeKey(), 0, src.fetch)
	require.Equal(t, querycache.StatusSuccess, res.Status)
	require.Len(t, res.Data.Pages, 3)
	assert.False(t, res.Data.HasNextPage())
	assert.Equal(t, []int{0, 20, 40}, res.Data.Params)
	assert.Len(t, res.Data.Pages[2], 10)

	// exhausted: no request
	res = querycache.FetchNextPage(ctx, c, byTypeKey(), 0, src.fetch)
	assert.Len(t, res.Data.Pages, 3)
	assert.Equal(t, []int{0, 20, 40}, src.calls())

	// cached read returns all loaded pages
	res = querycache.QueryPages(ctx, c, byTypeKey(), 0, src.fetch)
	assert.Len(t, res.Data.Pages, 3)
	assert.Equal(t, []int{0, 20, 40}, src.calls())
}

func TestFetchNextPage_WithoutDataLoadsFirstPage(t *testing.T) {
	c := newTestCoordinator(t, newFakeClock())
	src := &pagedSource{}

	res := querycache.FetchNextPage(context.Background(), c, byTypeKey(), 0, src.fetch)
	require.Equal(t, querycache.StatusSuccess, res.Status)
	assert.Len(t, res.Data.Pages, 1)
	assert.Equal(t, []int{0}, src.calls())

	disabled := querycache.FetchNextPage(context.Background(), c, querycache.Key{Op: querycache.OpByType, UserID: "u1"}, 0, src.fetch)
	assert.Equal(t, querycache.StatusDisabled, disabled.Status)
}

func TestQueryPages_StaleRefetchReloadsLoadedPages(t *testing.T) {
	clock := newFakeClock()
	c := newTestCoordinator(t, clock)
	src := &pagedSource{}
	ctx := context.Background()

	querycache.QueryPages(ctx, c, byTypeKey(), 0, src.fetch)
	querycache.FetchNextPage(ctx, c, byTypeKey(), 0, src.fetch)

	clock.Advance(2 * time.Minute)
	res := querycache.QueryPages(ctx, c, byTypeKey(), 0, src.fetch)
	assert.True(t, res.Stale)
	assert.Len(t, res.Data.Pages, 2)

	require.Eventually(t, func() bool {
		return len(src.calls()) == 4 && !querycache.Peek[querycache.Pages[[]int]](c, byTypeKey()).Fetching
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{0, 20, 0, 20}, src.calls())

	p := querycache.Peek[querycache.Pages[[]int]](c, byTypeKey())
	assert.False(t, p.Stale)
	assert.Len(t, p.Data.Pages, 2)
	assert.Equal(t, 40, *p.Data.NextParam)
}

func TestFetchNextPage_FailureKeepsLoadedPages(t *testing.T) {
	c := newTestCoordinator(t, newFakeClock())
	src := &pagedSource{}
	ctx := context.Background()

	querycache.QueryPages(ctx, c, byTypeKey(), 0, src.fetch)

	src.mutex.Lock()
	src.fail = true
	src.mutex.Unlock()

	res := querycache.FetchNextPage(ctx, c, byTypeKey(), 0, src.fetch)
	assert.Equal(t, querycache.StatusError, res.Status)
	assert.Error(t, res.Err)
	require.Len(t, res.Data.Pages, 1)

	p := querycache.Peek[querycache.Pages[[]int]](c, byTypeKey())
	assert.Equal(t, querycache.StatusSuccess, p.Status)
	assert.Len(t, p.Data.Pages, 1)
	assert.Error(t, p.Err)
}
