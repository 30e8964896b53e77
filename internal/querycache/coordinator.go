package querycache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/fitcalc/internal/cache"
	"github.com/2beens/fitcalc/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultStaleTime = time.Minute
	DefaultGCTime    = 5 * time.Minute
)

const (
	fetchKindInitial  = "initial"
	fetchKindRefetch  = "refetch"
	fetchKindNextPage = "nextPage"
)

type Params struct {
	// Store defaults to a retention cache with the GCTime window.
	Store          cache.Cache
	StaleTime      time.Duration
	GCTime         time.Duration
	MetricsManager *metrics.Manager
	Now            func() time.Time
}

// Coordinator is a keyed read-through cache with stale-while-revalidate
// semantics. Every key has at most one running fetch; concurrent readers of
// a key share it.
type Coordinator struct {
	mutex          sync.Mutex
	store          cache.Cache
	staleTime      time.Duration
	gcTime         time.Duration
	now            func() time.Time
	metricsManager *metrics.Manager
	lastSweep      time.Time
	closed         bool

	closeCtx    context.Context
	closeCancel context.CancelFunc
	fetches     sync.WaitGroup
}

type entry struct {
	key        Key
	data       any
	hasData    bool
	err        error
	updatedAt  time.Time
	gen        uint64 // last issued fetch
	appliedGen uint64 // fetch that produced data
	inflight   *fetch
	// removed entries were invalidated and never take a fetch result again
	removed bool
}

type fetch struct {
	gen         uint64
	kind        string
	done        chan struct{}
	data        any
	err         error
	completedAt time.Time
	cancel      context.CancelFunc
	waiters     int
	background  bool
	abandoned   bool
	finished    bool
}

type fetchFunc func(ctx context.Context) (any, error)

type rawResult struct {
	status    Status
	data      any
	err       error
	updatedAt time.Time
	stale     bool
	fetching  bool
}

func New(params Params) *Coordinator {
	staleTime := params.StaleTime
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	gcTime := params.GCTime
	if gcTime <= 0 {
		gcTime = DefaultGCTime
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	store := params.Store
	if store == nil {
		store = cache.NewRetentionCache(gcTime)
	}
	if rc, ok := store.(*cache.RetentionCache); ok && params.MetricsManager != nil {
		rc.OnEvicted(func(string) {
			params.MetricsManager.CounterEvictions.Inc()
		})
	}

	closeCtx, closeCancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:          store,
		staleTime:      staleTime,
		gcTime:         gcTime,
		now:            now,
		metricsManager: params.MetricsManager,
		lastSweep:      now(),
		closeCtx:       closeCtx,
		closeCancel:    closeCancel,
	}
}

// Close aborts running fetches and waits for them to return.
func (c *Coordinator) Close() {
	c.mutex.Lock()
	c.closed = true
	c.mutex.Unlock()

	c.closeCancel()
	c.fetches.Wait()
}

// Query reads key through the cache. Fresh data is returned as is, stale
// data is returned right away while a background refetch runs, and without
// data the call waits for a (shared) fetch or for ctx to end.
func Query[T any](ctx context.Context, c *Coordinator, key Key, fetchFn func(ctx context.Context) (T, error)) Result[T] {
	fn := func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	}
	return typed[T](c.read(ctx, key, fn, func(any) fetchFunc { return fn }))
}

// Peek returns what the cache holds for key without fetching.
func Peek[T any](c *Coordinator, key Key) Result[T] {
	return typed[T](c.peek(key))
}

// Invalidate removes every entry matching pred and returns how many were
// removed. Fetches already running for those entries still answer their own
// readers but are not written back.
func (c *Coordinator) Invalidate(pred Predicate) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for _, k := range c.store.Keys() {
		v, ok := c.store.Get(k)
		if !ok {
			continue
		}
		e, ok := v.(*entry)
		if !ok || !pred(e.key) {
			continue
		}
		e.removed = true
		c.store.Delete(k)
		removed++
	}

	if c.metricsManager != nil {
		c.metricsManager.CounterInvalidations.Add(float64(removed))
	}
	c.updateGauge()
	log.Tracef("querycache: invalidated %d entries", removed)

	return removed
}

// Len is the number of live entries.
func (c *Coordinator) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.store.Len()
}

func (c *Coordinator) read(ctx context.Context, key Key, initial fetchFunc, refetch func(current any) fetchFunc) rawResult {
	key = key.Normalize()
	if !key.Runnable() {
		return rawResult{status: StatusDisabled}
	}

	c.mutex.Lock()
	e := c.lookup(key)
	if e == nil {
		e = &entry{key: key}
	}
	// every read restarts the retention window
	c.store.Set(key.String(), e)

	if e.hasData {
		stale := c.isStale(e)
		if stale && !e.hasActiveFetch() {
			c.startFetch(ctx, e, refetch(e.data), fetchKindRefetch, true)
		}
		res := c.snapshot(e)
		c.mutex.Unlock()

		c.countHit(key.Op, stale)
		return res
	}

	f := e.inflight
	if !e.hasActiveFetch() {
		f = c.startFetch(ctx, e, initial, fetchKindInitial, false)
	}
	f.waiters++
	c.mutex.Unlock()

	if c.metricsManager != nil {
		c.metricsManager.CounterCacheMisses.WithLabelValues(string(key.Op)).Inc()
	}
	return c.wait(ctx, f)
}

func (c *Coordinator) peek(key Key) rawResult {
	key = key.Normalize()
	if !key.Runnable() {
		return rawResult{status: StatusDisabled}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	e := c.lookup(key)
	switch {
	case e == nil:
		return rawResult{status: StatusIdle}
	case e.hasData:
		return c.snapshot(e)
	case e.hasActiveFetch():
		return rawResult{status: StatusLoading, fetching: true}
	case e.err != nil:
		return rawResult{status: StatusError, err: e.err}
	default:
		return rawResult{status: StatusIdle}
	}
}

// wait blocks until f is done or ctx ends. A reader leaving does not stop
// the fetch for others; the last reader leaving aborts it.
func (c *Coordinator) wait(ctx context.Context, f *fetch) rawResult {
	select {
	case <-f.done:
		c.mutex.Lock()
		f.waiters--
		c.mutex.Unlock()

		if f.err != nil {
			if isCancellation(f.err) {
				return rawResult{status: StatusCanceled}
			}
			return rawResult{status: StatusError, err: f.err}
		}
		return rawResult{status: StatusSuccess, data: f.data, updatedAt: f.completedAt}
	case <-ctx.Done():
		c.mutex.Lock()
		f.waiters--
		if f.waiters == 0 && !f.background && !f.finished {
			f.abandoned = true
			f.cancel()
		}
		c.mutex.Unlock()
		return rawResult{status: StatusCanceled}
	}
}

// startFetch must be called with c.mutex held.
func (c *Coordinator) startFetch(ctx context.Context, e *entry, fn fetchFunc, kind string, background bool) *fetch {
	if c.closed {
		f := &fetch{kind: kind, done: make(chan struct{}), err: context.Canceled, finished: true}
		close(f.done)
		return f
	}

	e.gen++
	// keep the caller's values (trace spans), not its cancellation
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stopOnClose := context.AfterFunc(c.closeCtx, cancel)

	f := &fetch{
		gen:        e.gen,
		kind:       kind,
		done:       make(chan struct{}),
		cancel:     cancel,
		background: background,
	}
	e.inflight = f

	if c.metricsManager != nil {
		c.metricsManager.CounterFetches.WithLabelValues(string(e.key.Op), kind).Inc()
	}
	log.Tracef("querycache: %s fetch #%d for %s", kind, f.gen, e.key)

	c.fetches.Add(1)
	go func() {
		defer c.fetches.Done()
		defer stopOnClose()
		defer cancel()

		begin := time.Now()
		data, err := fn(fetchCtx)
		if c.metricsManager != nil {
			c.metricsManager.HistogramFetchDuration.WithLabelValues(string(e.key.Op)).Observe(time.Since(begin).Seconds())
		}
		c.complete(e, f, data, err, fetchCtx.Err() != nil)
	}()

	return f
}

func (c *Coordinator) complete(e *entry, f *fetch, data any, err error, aborted bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if aborted && err == nil {
		// the fetch ignored its context; its result is not wanted anymore
		err = context.Canceled
		data = nil
	}
	f.data, f.err = data, err
	f.completedAt = c.now()
	f.finished = true
	if e.inflight == f {
		e.inflight = nil
	}
	close(f.done)

	switch {
	case aborted || isCancellation(err):
		c.discard(e, f, "aborted")
	case e.removed:
		c.discard(e, f, "invalidated")
	case f.gen < e.appliedGen:
		c.discard(e, f, "superseded")
	case err != nil:
		e.err = err
		if c.metricsManager != nil {
			c.metricsManager.CounterFetchErrors.WithLabelValues(string(e.key.Op)).Inc()
		}
		log.Debugf("querycache: %s fetch #%d for %s failed: %s", f.kind, f.gen, e.key, err)
	default:
		if cur := c.lookup(e.key); cur != nil && cur != e {
			c.discard(e, f, "replaced")
			break
		}
		e.data, e.hasData, e.err = data, true, nil
		e.updatedAt = f.completedAt
		e.appliedGen = f.gen
		// also brings back an entry that expired while the fetch was running
		c.store.Set(e.key.String(), e)
	}

	c.maybeSweep()
	c.updateGauge()
}

func (c *Coordinator) discard(e *entry, f *fetch, reason string) {
	log.Tracef("querycache: discarding %s fetch #%d for %s: %s", f.kind, f.gen, e.key, reason)
	if c.metricsManager != nil {
		c.metricsManager.CounterDiscardedResults.WithLabelValues(string(e.key.Op), reason).Inc()
	}
}

func (c *Coordinator) lookup(key Key) *entry {
	v, ok := c.store.Get(key.String())
	if !ok {
		return nil
	}
	e, _ := v.(*entry)
	return e
}

func (c *Coordinator) isStale(e *entry) bool {
	return c.now().Sub(e.updatedAt) >= c.staleTime
}

func (c *Coordinator) snapshot(e *entry) rawResult {
	return rawResult{
		status:    StatusSuccess,
		data:      e.data,
		err:       e.err,
		updatedAt: e.updatedAt,
		stale:     c.isStale(e),
		fetching:  e.hasActiveFetch(),
	}
}

func (c *Coordinator) countHit(op Op, stale bool) {
	if c.metricsManager == nil {
		return
	}
	freshness := "fresh"
	if stale {
		freshness = "stale"
	}
	c.metricsManager.CounterCacheHits.WithLabelValues(string(op), freshness).Inc()
}

func (c *Coordinator) maybeSweep() {
	sweeper, ok := c.store.(interface{ Sweep() })
	if !ok {
		return
	}
	now := c.now()
	if now.Sub(c.lastSweep) < c.gcTime {
		return
	}
	c.lastSweep = now
	sweeper.Sweep()
}

func (c *Coordinator) updateGauge() {
	if c.metricsManager != nil {
		c.metricsManager.GaugeCacheEntries.Set(float64(c.store.Len()))
	}
}

func (e *entry) hasActiveFetch() bool {
	return e.inflight != nil && !e.inflight.abandoned
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func typed[T any](raw rawResult) Result[T] {
	res := Result[T]{
		Status:    raw.status,
		Err:       raw.err,
		UpdatedAt: raw.updatedAt,
		Stale:     raw.stale,
		Fetching:  raw.fetching,
	}
	if v, ok := raw.data.(T); ok {
		res.Data = v
	}
	return res
}
