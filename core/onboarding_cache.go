package core

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const onboardingCacheKeyPrefix = "go-payments::onboarding::v1"

type OnboardingCache = repositorycache.CacheService

var errPayeeNotReadyUncached = errors.New("core: payee not ready")

// CachedOnboardingVerifier memoizes positive readiness only. A false result
// may be a transient processor failure and is always recomputed.
type CachedOnboardingVerifier struct {
	base  OnboardingVerifier
	cache OnboardingCache
}

func NewCachedOnboardingVerifier(base OnboardingVerifier, cache OnboardingCache) (*CachedOnboardingVerifier, error) {
	if base == nil {
		return nil, errors.New("core: base onboarding verifier is required")
	}
	if cache == nil {
		return nil, errors.New("core: onboarding cache service is required")
	}
	return &CachedOnboardingVerifier{base: base, cache: cache}, nil
}

// NewOnboardingCache builds the readiness cache used when no cache is
// injected. Early refresh is off so an entry past ttl is always recomputed.
func NewOnboardingCache(ttl time.Duration) (OnboardingCache, error) {
	if ttl <= 0 {
		return nil, errors.New("core: onboarding cache ttl must be positive")
	}
	config := repositorycache.DefaultConfig()
	config.TTL = ttl
	config.EarlyRefresh = nil
	config.MissingRecordStorage = false
	return repositorycache.NewCacheService(config)
}

// OnboardingCacheKey returns go-payments::onboarding::v1::<consultant_id> with
// the id URL-path escaped.
func OnboardingCacheKey(consultantID string) string {
	return onboardingCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(consultantID))
}

func (v *CachedOnboardingVerifier) Verify(ctx context.Context, consultantID string) bool {
	if v == nil || v.base == nil {
		return false
	}
	if v.cache == nil {
		return v.base.Verify(ctx, consultantID)
	}
	consultantID = strings.TrimSpace(consultantID)
	if consultantID == "" {
		return false
	}
	ready, err := repositorycache.GetOrFetch(ctx, v.cache, OnboardingCacheKey(consultantID), func(ctx context.Context) (bool, error) {
		if !v.base.Verify(ctx, consultantID) {
			return false, errPayeeNotReadyUncached
		}
		return true, nil
	})
	if err != nil {
		return false
	}
	return ready
}

func (v *CachedOnboardingVerifier) Invalidate(ctx context.Context, consultantID string) error {
	if v == nil || v.cache == nil {
		return nil
	}
	consultantID = strings.TrimSpace(consultantID)
	if consultantID == "" {
		return nil
	}
	return v.cache.Delete(ctx, OnboardingCacheKey(consultantID))
}

var (
	_ OnboardingVerifier         = (*CachedOnboardingVerifier)(nil)
	_ OnboardingCacheInvalidator = (*CachedOnboardingVerifier)(nil)
)
