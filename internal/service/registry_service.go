package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/domain"
)

// RegistryService is the authoritative catalog of CRM target fields.
// Live schema is fetched per API key and object type and cached; when the
// CRM is unreachable the default catalog is served instead and the caller
// is told it is running in degraded mode.
type RegistryService interface {
	// GetFields returns the target fields of one object type.
	// usedDefaults is true when the live fetch failed and the fallback
	// catalog was served.
	GetFields(ctx context.Context, apiKey string, objectType domain.ObjectType) (fields []domain.TargetField, usedDefaults bool, err error)
	// Lookup finds one field by key across the given object types
	Lookup(ctx context.Context, apiKey string, key domain.FieldKey) (domain.TargetField, bool)
	// Invalidate drops the cached schema of one object type
	Invalidate(apiKey string, objectType domain.ObjectType)
	// ValidateAPIKey checks the key against the CRM
	ValidateAPIKey(ctx context.Context, apiKey string) (bool, error)
}

type registryCacheEntry struct {
	fields     []domain.TargetField
	fetchedAt  time.Time
	generation uint64
}

// registryServiceImpl caches per-key, per-type schemas in memory.
// Concurrent refreshes of the same entry are resolved last-write-wins:
// a fetch that started before an Invalidate observes a stale generation
// and its result is discarded.
type registryServiceImpl struct {
	crm      client.SalesmapClient
	cacheTTL time.Duration
	logger   *zap.Logger

	mu          sync.RWMutex
	cache       map[string]*registryCacheEntry
	generations map[string]uint64
}

// NewRegistryService creates a new instance of RegistryService
func NewRegistryService(crm client.SalesmapClient, cacheTTL time.Duration, logger *zap.Logger) RegistryService {
	return &registryServiceImpl{
		crm:         crm,
		cacheTTL:    cacheTTL,
		logger:      logger,
		cache:       make(map[string]*registryCacheEntry),
		generations: make(map[string]uint64),
	}
}

// cacheKey hashes the API key so raw credentials never sit in map keys
func cacheKey(apiKey string, objectType domain.ObjectType) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8]) + ":" + string(objectType)
}

func (s *registryServiceImpl) GetFields(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, bool, error) {
	key := cacheKey(apiKey, objectType)

	s.mu.RLock()
	entry, ok := s.cache[key]
	gen := s.generations[key]
	s.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < s.cacheTTL {
		return entry.fields, false, nil
	}

	fields, err := s.crm.FetchFields(ctx, apiKey, objectType)
	if err != nil {
		s.logger.Warn("Schema fetch failed, serving default catalog",
			zap.String("object_type", string(objectType)),
			zap.Error(err))
		// 캐시가 남아 있으면 만료됐어도 기본 카탈로그보다 낫다
		if ok {
			return entry.fields, false, nil
		}
		return domain.DefaultFields(objectType), true, nil
	}

	s.mu.Lock()
	// Invalidate가 끼어들었으면 이 결과는 이미 낡은 스냅샷이다
	if s.generations[key] == gen {
		s.cache[key] = &registryCacheEntry{
			fields:     fields,
			fetchedAt:  time.Now(),
			generation: gen,
		}
	}
	s.mu.Unlock()

	return fields, false, nil
}

func (s *registryServiceImpl) Lookup(ctx context.Context, apiKey string, key domain.FieldKey) (domain.TargetField, bool) {
	fields, _, err := s.GetFields(ctx, apiKey, key.ObjectType)
	if err != nil {
		return domain.TargetField{}, false
	}
	for _, f := range fields {
		if f.FieldID == key.FieldID {
			return f, true
		}
	}
	return domain.TargetField{}, false
}

func (s *registryServiceImpl) Invalidate(apiKey string, objectType domain.ObjectType) {
	key := cacheKey(apiKey, objectType)
	s.mu.Lock()
	delete(s.cache, key)
	s.generations[key]++
	s.mu.Unlock()
}

func (s *registryServiceImpl) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	return s.crm.ValidateAPIKey(ctx, apiKey)
}
