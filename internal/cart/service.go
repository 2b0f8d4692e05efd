package cart

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"PawMart/internal/identity"
)

// Options configures a Service. Zero values fall back to defaults;
// Identity is the only required field for authenticated operation.
type Options struct {
	// BaseURL of the cart store-of-record API.
	BaseURL string
	// StatePath is the durable local cart file.
	StatePath string
	Identity  identity.Provider
	Log       *zap.Logger
	// Registry, when set, receives sync outcome counters.
	Registry *prometheus.Registry

	CacheTTL       time.Duration
	DebounceWindow time.Duration
	// HTTPClient overrides the default 3s-timeout client.
	HTTPClient *http.Client
}

// Service is the cart engine. Every mutation applies to the durable
// local copy synchronously and returns the new cart before any network
// activity; a background synchronizer mirrors the change to the remote.
// One Service is constructed per app and injected into the UI layer.
type Service struct {
	identity identity.Provider
	local    *FileStore
	remote   *Client
	cache    *SnapshotCache
	flight   singleflight.Group
	events   *Notifier
	sync     *Synchronizer
	log      *zap.Logger

	// mu serializes read-modify-write cycles against the local store so
	// interleaved writers always start from a fresh snapshot.
	mu sync.Mutex
}

func New(opts Options) *Service {
	if opts.Identity == nil {
		opts.Identity = identity.Anonymous
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	remote := NewClient(opts.BaseURL, opts.Identity)
	if opts.HTTPClient != nil {
		remote.HTTP = opts.HTTPClient
	}

	s := &Service{
		identity: opts.Identity,
		local:    NewFileStore(opts.StatePath, opts.Log),
		remote:   remote,
		cache:    NewSnapshotCache(opts.CacheTTL),
		events:   NewNotifier(),
		log:      opts.Log,
	}
	s.sync = NewSynchronizer(remote, s.cache, &s.flight, opts.DebounceWindow, opts.Log, opts.Registry)
	return s
}

// Subscribe registers a listener for cart-changed broadcasts.
func (s *Service) Subscribe(fn func(Cart)) func() {
	return s.events.Subscribe(fn)
}

// Snapshot returns the current local cart without touching the network.
func (s *Service) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Load()
}

// Add merges item into the cart: an existing line gains qty (display
// metadata refreshed from item), a new line is appended. Unique lines
// never exceed quantity 1. The updated cart is returned before the
// remote call is issued.
func (s *Service) Add(item Line, qty int) Cart {
	if qty < 1 {
		qty = 1
	}
	if item.Kind == KindUnique {
		qty = 1
	}

	s.mu.Lock()
	lines := s.local.Load()

	var merged Line
	if i := lines.index(item.ProductID); i >= 0 {
		l := lines[i]
		if l.Kind != KindUnique {
			l.Quantity += qty
		}
		l.refreshFrom(item)
		lines[i] = l
		merged = l
	} else {
		item.Quantity = qty
		item.AddedAt = time.Now().UnixMilli()
		lines = append(lines, item)
		merged = item
	}

	s.local.Save(lines)
	s.mu.Unlock()

	s.events.Publish(lines)
	if uid := s.identity.UserID(); uid != "" {
		s.sync.Upsert(uid, merged)
	}
	return lines.Clone()
}

// Update replaces a line's quantity in place. A quantity of zero or
// less removes the line (deliberate policy). A missing line reports
// ErrLineNotFound without mutating anything; a unique line refuses any
// quantity other than 1.
func (s *Service) Update(productID string, qty int) (Cart, error) {
	s.mu.Lock()
	lines := s.local.Load()

	i := lines.index(productID)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrLineNotFound
	}

	if qty <= 0 {
		lines = append(lines[:i], lines[i+1:]...)
		s.local.Save(lines)
		s.mu.Unlock()

		s.events.Publish(lines)
		if uid := s.identity.UserID(); uid != "" {
			s.sync.Remove(uid, productID)
		}
		return lines.Clone(), nil
	}

	if lines[i].Kind == KindUnique && qty != 1 {
		s.mu.Unlock()
		return nil, ErrFixedQuantity
	}

	lines[i].Quantity = qty
	s.local.Save(lines)
	s.mu.Unlock()

	s.events.Publish(lines)
	if uid := s.identity.UserID(); uid != "" {
		s.sync.SetQuantity(uid, productID, qty)
	}
	return lines.Clone(), nil
}

// Remove filters the line out unconditionally; removing an absent
// product is a no-op success.
func (s *Service) Remove(productID string) Cart {
	s.mu.Lock()
	lines := s.local.Load()

	if i := lines.index(productID); i >= 0 {
		lines = append(lines[:i], lines[i+1:]...)
	}
	s.local.Save(lines)
	s.mu.Unlock()

	s.events.Publish(lines)
	if uid := s.identity.UserID(); uid != "" {
		s.sync.Remove(uid, productID)
	}
	return lines.Clone()
}

// Clear empties the cart. Checkout completion calls this; the engine
// never clears on its own.
func (s *Service) Clear() Cart {
	lines := Cart{}

	s.mu.Lock()
	s.local.Save(lines)
	s.mu.Unlock()

	s.events.Publish(lines)
	if uid := s.identity.UserID(); uid != "" {
		s.sync.Clear(uid)
	}
	return lines
}

// Fetch returns the freshest cart available: cache hit, else one
// deduplicated remote fetch, else the durable local copy. A remote
// failure never escapes this subsystem; the local copy is the answer.
func (s *Service) Fetch(ctx context.Context) Cart {
	uid := s.identity.UserID()
	if uid == "" {
		return s.Snapshot()
	}

	if c, ok := s.cache.Get(uid); ok {
		return c
	}

	v, err, _ := s.flight.Do("getCart_"+uid, func() (any, error) {
		return s.remote.Get(ctx, uid)
	})
	if err != nil {
		s.log.Warn("cart fetch failed, serving local copy", zap.String("user_id", uid), zap.Error(err))
		return s.Snapshot()
	}

	lines := v.(Cart)
	s.cache.Put(uid, lines)

	s.mu.Lock()
	s.local.Save(lines)
	s.mu.Unlock()

	s.events.Publish(lines)
	return lines.Clone()
}

// Wait drains background syncs; used at shutdown and in tests.
func (s *Service) Wait() {
	s.sync.Wait()
}
