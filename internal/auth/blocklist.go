package auth

import (
	"context"
	"time"

	"religious_services_backend/internal/shared"

	"github.com/patrickmn/go-cache"
)

// InMemoryBlocklistService remembers revoked token IDs until the token would
// have expired on its own. Entries live in this process only, so a restart
// forgets revocations.
type InMemoryBlocklistService struct {
	revoked *cache.Cache
}

var _ shared.TokenBlocklist = (*InMemoryBlocklistService)(nil)

type InMemoryBlocklistConfig struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

func DefaultBlocklistConfig() InMemoryBlocklistConfig {
	return InMemoryBlocklistConfig{DefaultExpiration: time.Hour, CleanupInterval: 10 * time.Minute}
}

func NewInMemoryBlocklistService(cfg InMemoryBlocklistConfig) *InMemoryBlocklistService {
	return &InMemoryBlocklistService{revoked: cache.New(cfg.DefaultExpiration, cfg.CleanupInterval)}
}

// AddToBlocklist is a no-op for an empty jti or a token that already expired.
func (s *InMemoryBlocklistService) AddToBlocklist(_ context.Context, jti string, expiresAt time.Time) error {
	if ttl := time.Until(expiresAt); jti != "" && ttl > 0 {
		s.revoked.Set(jti, struct{}{}, ttl)
	}
	return nil
}

func (s *InMemoryBlocklistService) IsBlocklisted(_ context.Context, jti string) (bool, error) {
	_, found := s.revoked.Get(jti)
	return found, nil
}
