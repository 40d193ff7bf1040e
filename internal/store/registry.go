package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry owns named stores and lends them out for the duration of a
// callback. Each store has its own read-write lock: any number of WithStore
// borrows may run together, a WithStoreMut borrow runs alone.
type Registry struct {
	mu     sync.RWMutex
	slots  map[string]*slot
	logger *slog.Logger
}

type slot struct {
	lock  sync.RWMutex
	store DataStore
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for borrow diagnostics.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		slots:  make(map[string]*slot),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a store under name. A store that also implements MutableStore
// can be borrowed with WithStoreMut.
func (r *Registry) Register(name string, s DataStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[name]; ok {
		return fmt.Errorf("store %q already registered", name)
	}
	r.slots[name] = &slot{store: s}
	return nil
}

// Names returns the registered store names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.slots))
	for name := range r.slots {
		out = append(out, name)
	}
	return out
}

// WithStore runs fn with shared read access to the named store. The context
// passed to fn records the borrow; fn must not borrow the same store again
// through it.
func (r *Registry) WithStore(ctx context.Context, name string, fn func(context.Context, DataStore) error) error {
	sl, inner, err := r.acquire(ctx, name)
	if err != nil {
		return err
	}
	sl.lock.RLock()
	defer sl.lock.RUnlock()

	r.logger.Debug("store borrowed", "store", name, "mode", "read")
	return fn(inner, sl.store)
}

// WithStoreMut runs fn with exclusive access to the named store.
func (r *Registry) WithStoreMut(ctx context.Context, name string, fn func(context.Context, MutableStore) error) error {
	sl, inner, err := r.acquire(ctx, name)
	if err != nil {
		return err
	}
	ms, ok := sl.store.(MutableStore)
	if !ok {
		return fmt.Errorf("store %q is read-only", name)
	}
	sl.lock.Lock()
	defer sl.lock.Unlock()

	r.logger.Debug("store borrowed", "store", name, "mode", "write")
	return fn(inner, ms)
}

func (r *Registry) acquire(ctx context.Context, name string) (*slot, context.Context, error) {
	if borrowed(ctx, name) {
		r.logger.Error("reentrant store borrow", "store", name)
		return nil, nil, fmt.Errorf("%w: %q", ErrReentrantBorrow, name)
	}
	r.mu.RLock()
	sl, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStore, name)
	}
	return sl, context.WithValue(ctx, borrowKey{}, &borrow{name: name, parent: borrowOf(ctx)}), nil
}

type borrowKey struct{}

// borrow is one link in the chain of stores held by a context.
type borrow struct {
	name   string
	parent *borrow
}

func borrowOf(ctx context.Context) *borrow {
	b, _ := ctx.Value(borrowKey{}).(*borrow)
	return b
}

func borrowed(ctx context.Context, name string) bool {
	for b := borrowOf(ctx); b != nil; b = b.parent {
		if b.name == name {
			return true
		}
	}
	return false
}
