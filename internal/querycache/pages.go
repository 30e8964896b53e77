package querycache

import (
	"context"
	"slices"
)

// QueryPages is Query for cursor paginated data. The first load fetches the
// page at firstParam; a stale refetch reloads as many pages as are loaded,
// one after another.
func QueryPages[P any](ctx context.Context, c *Coordinator, key Key, firstParam int, fetchPage PageFetcher[P]) Result[Pages[P]] {
	initial := func(ctx context.Context) (any, error) {
		page, next, err := fetchPage(ctx, firstParam)
		if err != nil {
			return nil, err
		}
		return Pages[P]{Pages: []P{page}, Params: []int{firstParam}, NextParam: next}, nil
	}

	refetch := func(current any) fetchFunc {
		loaded := 1
		if cur, ok := current.(Pages[P]); ok && len(cur.Pages) > 0 {
			loaded = len(cur.Pages)
		}
		return func(ctx context.Context) (any, error) {
			return loadPages(ctx, firstParam, loaded, fetchPage)
		}
	}

	return typed[Pages[P]](c.read(ctx, key, initial, refetch))
}

// FetchNextPage appends the page after the last loaded one. Without loaded
// data it behaves like QueryPages. When there is no next page, or another
// fetch for the key is running, it returns the current pages untouched.
func FetchNextPage[P any](ctx context.Context, c *Coordinator, key Key, firstParam int, fetchPage PageFetcher[P]) Result[Pages[P]] {
	key = key.Normalize()
	if !key.Runnable() {
		return Result[Pages[P]]{Status: StatusDisabled}
	}

	c.mutex.Lock()
	e := c.lookup(key)
	if e == nil || !e.hasData {
		c.mutex.Unlock()
		return QueryPages(ctx, c, key, firstParam, fetchPage)
	}
	c.store.Set(key.String(), e)

	current, _ := e.data.(Pages[P])
	if current.NextParam == nil || e.hasActiveFetch() {
		res := c.snapshot(e)
		c.mutex.Unlock()
		return typed[Pages[P]](res)
	}

	next := *current.NextParam
	f := c.startFetch(ctx, e, func(ctx context.Context) (any, error) {
		page, after, err := fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		return Pages[P]{
			Pages:     append(slices.Clip(current.Pages), page),
			Params:    append(slices.Clip(current.Params), next),
			NextParam: after,
		}, nil
	}, fetchKindNextPage, false)
	f.waiters++
	c.mutex.Unlock()

	raw := c.wait(ctx, f)
	if raw.status != StatusSuccess {
		// already loaded pages stay usable
		raw.data = current
	}
	return typed[Pages[P]](raw)
}

func loadPages[P any](ctx context.Context, firstParam, count int, fetchPage PageFetcher[P]) (Pages[P], error) {
	var pages Pages[P]
	param := firstParam
	for i := 0; i < count; i++ {
		page, next, err := fetchPage(ctx, param)
		if err != nil {
			return Pages[P]{}, err
		}
		pages.Pages = append(pages.Pages, page)
		pages.Params = append(pages.Params, param)
		pages.NextParam = next
		if next == nil {
			break
		}
		param = *next
	}
	return pages, nil
}
