package memory

import (
	"context"
	"sync"

	"vendorhub/internal/app/policies"
	"vendorhub/internal/domain/catalog"
)

// ServiceStore is an in-memory category collection of vendor services.
type ServiceStore struct {
	mu       sync.RWMutex
	category string
	items    map[string]*catalog.Service
}

func NewServiceStore(category string) *ServiceStore {
	return &ServiceStore{category: catalog.NormalizeCategory(category), items: make(map[string]*catalog.Service)}
}

func (s *ServiceStore) Put(svc catalog.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc.Ref.Category = s.category
	s.items[svc.Ref.ID] = cloneService(&svc)
}

func (s *ServiceStore) FindByID(ctx context.Context, id string) (*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.items[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return cloneService(svc), nil
}

func (s *ServiceStore) UpdateDates(ctx context.Context, id string, update policies.DateUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.items[id]
	if !ok {
		return catalog.ErrServiceNotFound
	}
	dates := svc.Dates
	if len(update.Book) > 0 {
		dates = dates.Reserve(update.Book)
	}
	if len(update.Release) > 0 {
		dates = dates.Release(update.Release)
	}
	svc.Dates = dates
	return nil
}

func cloneService(svc *catalog.Service) *catalog.Service {
	c := *svc
	c.Dates.Booked = append([]string(nil), svc.Dates.Booked...)
	c.Dates.Waiting = append([]string(nil), svc.Dates.Waiting...)
	c.Dates.Available = append([]string(nil), svc.Dates.Available...)
	return &c
}

var _ policies.ServiceStore = (*ServiceStore)(nil)
