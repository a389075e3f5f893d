package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/events"
)

// StoreFactory builds the store for one client scope.
type StoreFactory func(scope string) Store

// APIFactory builds the auth API bound to one scope's manager; the manager is
// passed so 401 responses can invalidate its session.
type APIFactory func(m *Manager) AuthAPI

// Registry hands out one Manager per browser client.
type Registry struct {
	stores     StoreFactory
	apis       APIFactory
	logger     *zap.Logger
	dispatcher events.Dispatcher

	mu       sync.Mutex
	managers map[string]*entry
	now      func() time.Time
}

type entry struct {
	manager  *Manager
	lastSeen time.Time
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Stores     StoreFactory
	APIs       APIFactory
	Logger     *zap.Logger
	Dispatcher events.Dispatcher
}

func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stores := opts.Stores
	if stores == nil {
		stores = func(string) Store { return NewMemoryStore(logger) }
	}
	return &Registry{
		stores:     stores,
		apis:       opts.APIs,
		logger:     logger,
		dispatcher: opts.Dispatcher,
		managers:   map[string]*entry{},
		now:        time.Now,
	}
}

// Get returns the manager for scope, restoring it from its store on first use.
// The restore runs outside the registry lock so a slow store only delays its
// own client; when two requests race, the first manager stored wins.
func (r *Registry) Get(ctx context.Context, scope string) *Manager {
	if m := r.lookup(scope); m != nil {
		return m
	}

	m := NewManager(Options{
		Store:      r.stores(scope),
		Logger:     r.logger.With(zap.String("client", scope)),
		Dispatcher: r.dispatcher,
	})
	if r.apis != nil {
		m.api = r.apis(m)
	}
	m.Restore(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.managers[scope]; ok {
		e.lastSeen = r.now()
		return e.manager
	}
	r.managers[scope] = &entry{manager: m, lastSeen: r.now()}
	return m
}

func (r *Registry) lookup(scope string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.managers[scope]
	if !ok {
		return nil
	}
	e.lastSeen = r.now()
	return e.manager
}

// Len returns the number of live managers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

// Sweep drops anonymous managers idle for longer than maxIdle. Authenticated
// ones stay so their in-memory state never diverges from the store.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	removed := 0
	for scope, e := range r.managers {
		if e.lastSeen.After(cutoff) || e.manager.Busy() || e.manager.Capabilities().IsAuthenticated() {
			continue
		}
		delete(r.managers, scope)
		removed++
	}
	if removed > 0 {
		r.logger.Debug("swept idle session managers", zap.Int("removed", removed))
	}
	return removed
}
