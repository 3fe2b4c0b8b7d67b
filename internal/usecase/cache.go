package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cache is an optional accelerator. Implementations fail open: when the
// backing store is down, reads miss and SetIfNotExists reports true.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

func dnaCacheKey(userID uuid.UUID) string {
	return "dna:" + userID.String()
}

func discoveryCacheKey(initiatorID uuid.UUID) string {
	return "matches:discover:" + initiatorID.String()
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, any) (bool, error)        { return false, nil }
func (noopCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (noopCache) Delete(context.Context, string) error                      { return nil }
func (noopCache) SetIfNotExists(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}
