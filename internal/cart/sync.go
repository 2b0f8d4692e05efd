package cart

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Op names a cart mutation kind for sync policy lookup and metrics.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
)

// SyncPolicy says how a mutation reaches the remote: immediately in
// the background, or debounced so a burst of calls collapses into the
// last value.
type SyncPolicy int

const (
	SyncImmediate SyncPolicy = iota
	SyncDebounced
)

// PolicyFor is the one place the per-operation sync policy lives.
// Add, remove and clear are commit signals and go out at once;
// quantity updates ride a per-product debounce window so stepper
// spam costs one request per quiescent period.
func PolicyFor(op Op) SyncPolicy {
	if op == OpUpdate {
		return SyncDebounced
	}
	return SyncImmediate
}

const (
	// DefaultDebounceWindow is the quiet period after the last quantity
	// update before the value is sent.
	DefaultDebounceWindow = 300 * time.Millisecond

	syncTimeout = 5 * time.Second
)

// Synchronizer mirrors local mutations to the remote store in the
// background. Success invalidates the user's cache entry so the next
// full fetch sees server truth; failure is logged and local state is
// left alone. There is no retry and no rollback: absolute quantities
// make convergence self-healing on the next fetch.
type Synchronizer struct {
	remote  *Client
	cache   *SnapshotCache
	flight  *singleflight.Group
	log     *zap.Logger
	metrics *syncMetrics
	window  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

func NewSynchronizer(remote *Client, cache *SnapshotCache, flight *singleflight.Group, window time.Duration, log *zap.Logger, reg *prometheus.Registry) *Synchronizer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		remote:  remote,
		cache:   cache,
		flight:  flight,
		log:     log,
		metrics: newSyncMetrics(reg),
		window:  window,
		timers:  make(map[string]*time.Timer),
	}
}

func (s *Synchronizer) Upsert(userID string, line Line) {
	s.dispatch(OpAdd, "addToCart_"+line.ProductID, userID, func(ctx context.Context) error {
		return s.remote.Upsert(ctx, userID, line)
	})
}

func (s *Synchronizer) SetQuantity(userID, productID string, qty int) {
	s.dispatch(OpUpdate, "update_"+productID, userID, func(ctx context.Context) error {
		return s.remote.SetQuantity(ctx, userID, productID, qty)
	})
}

func (s *Synchronizer) Remove(userID, productID string) {
	s.dispatch(OpRemove, "removeFromCart_"+productID, userID, func(ctx context.Context) error {
		return s.remote.Remove(ctx, userID, productID)
	})
}

func (s *Synchronizer) Clear(userID string) {
	s.dispatch(OpClear, "clearCart_"+userID, userID, func(ctx context.Context) error {
		return s.remote.Clear(ctx, userID)
	})
}

// Wait blocks until all scheduled and in-flight syncs have settled.
// Pending debounce timers count as scheduled work.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

func (s *Synchronizer) dispatch(op Op, key, userID string, call func(context.Context) error) {
	switch PolicyFor(op) {
	case SyncDebounced:
		s.debounce(op, key, userID, call)
	default:
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(op, key, userID, call)
		}()
	}
}

// debounce arms (or re-arms) the per-key timer. Each new call for the
// same key cancels the pending send, so only the last value within a
// quiet window goes out.
func (s *Synchronizer) debounce(op Op, key, userID string, call func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok && t.Stop() {
		s.wg.Done()
	}

	s.wg.Add(1)

	var t *time.Timer
	t = time.AfterFunc(s.window, func() {
		defer s.wg.Done()

		s.mu.Lock()
		if s.timers[key] == t {
			delete(s.timers, key)
		}
		s.mu.Unlock()

		s.run(op, key, userID, call)
	})

	s.timers[key] = t
}

func (s *Synchronizer) run(op Op, key, userID string, call func(context.Context) error) {
	_, err, _ := s.flight.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		return nil, call(ctx)
	})
	if err != nil {
		s.metrics.observe(string(op), "error")
		s.log.Warn("cart sync failed, local copy kept",
			zap.String("op", string(op)),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}

	s.metrics.observe(string(op), "ok")
	s.cache.Invalidate(userID)
}
