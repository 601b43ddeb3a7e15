package policies

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"vendorhub/internal/domain/catalog"
)

// DateUpdate describes set operations on a service's dates; both are add-if-absent /
// remove-if-present so repeating an update is harmless.
type DateUpdate struct {
	Book    []string
	Release []string
}

// ServiceStore is one per-category collection of vendor services.
type ServiceStore interface {
	FindByID(ctx context.Context, id string) (*catalog.Service, error)
	UpdateDates(ctx context.Context, id string, update DateUpdate) error
}

// ServiceRegistry maps category tags to their stores.
type ServiceRegistry struct {
	mu     sync.RWMutex
	stores map[string]ServiceStore
}

func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{stores: make(map[string]ServiceStore)}
}

func (r *ServiceRegistry) Register(category string, store ServiceStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[catalog.NormalizeCategory(category)] = store
}

func (r *ServiceRegistry) Resolve(category string) (ServiceStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[catalog.NormalizeCategory(category)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, category)
	}
	return store, nil
}

// Find loads the service behind ref from its category store.
func (r *ServiceRegistry) Find(ctx context.Context, ref catalog.Ref) (*catalog.Service, error) {
	store, err := r.Resolve(ref.Category)
	if err != nil {
		return nil, err
	}
	return store.FindByID(ctx, ref.ID)
}

func (r *ServiceRegistry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.stores))
	for c := range r.stores {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
