package memory

import (
	"context"
	"sync"

	domainpricing "vendorhub/internal/domain/pricing"
)

// PricingConfigRepository is an append-only list of pricing config versions.
type PricingConfigRepository struct {
	mu       sync.RWMutex
	versions []domainpricing.Config
}

func NewPricingConfigRepository() *PricingConfigRepository {
	return &PricingConfigRepository{}
}

func (r *PricingConfigRepository) Append(ctx context.Context, cfg domainpricing.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions = append(r.versions, cfg)
	return nil
}

// Latest picks the newest CreatedAt; among equal timestamps the later append wins.
func (r *PricingConfigRepository) Latest(ctx context.Context, serviceID string) (*domainpricing.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domainpricing.Config
	for i := range r.versions {
		v := r.versions[i]
		if v.ServiceID != serviceID {
			continue
		}
		if latest == nil || !v.CreatedAt.Before(latest.CreatedAt) {
			cp := v
			latest = &cp
		}
	}
	return latest, nil
}

var _ domainpricing.ConfigRepository = (*PricingConfigRepository)(nil)
