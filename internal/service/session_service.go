package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/response"
)

// SessionService defines the interface for import session state access
type SessionService interface {
	Create(ctx context.Context, dataset *domain.Dataset) (*domain.ImportSession, error)
	Get(ctx context.Context, sessionID string) (*domain.ImportSession, error)
	Save(ctx context.Context, session *domain.ImportSession) error
	Delete(ctx context.Context, sessionID string) error
}

// sessionServiceImpl stores sessions as JSON in Redis with a sliding TTL
type sessionServiceImpl struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionService creates a new instance of SessionService
func NewSessionService(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) SessionService {
	return &sessionServiceImpl{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func sessionKey(sessionID string) string {
	return "import:session:" + sessionID
}

// Create initializes a new session around an uploaded dataset
func (s *sessionServiceImpl) Create(ctx context.Context, dataset *domain.Dataset) (*domain.ImportSession, error) {
	now := time.Now().UTC()
	session := &domain.ImportSession{
		ID:             uuid.New().String(),
		CreatedAt:      now,
		UpdatedAt:      now,
		Dataset:        dataset,
		Mappings:       []domain.FieldMapping{},
		CustomFields:   []domain.CustomField{},
		SkippedColumns: map[string]domain.SkipReason{},
	}
	if err := s.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get loads a session; a missing key means the session expired
func (s *sessionServiceImpl) Get(ctx context.Context, sessionID string) (*domain.ImportSession, error) {
	if s.redis == nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "세션 저장소를 사용할 수 없습니다", "")
	}

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, response.NewAppError(response.ErrCodeSessionExpired, "세션이 만료되었습니다. 파일을 다시 업로드해 주세요", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.ImportSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	// 접근할 때마다 TTL 연장
	if err := s.redis.Expire(ctx, sessionKey(sessionID), s.ttl).Err(); err != nil {
		s.logger.Warn("Failed to extend session TTL",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	return &session, nil
}

// Save persists the session and resets its TTL
func (s *sessionServiceImpl) Save(ctx context.Context, session *domain.ImportSession) error {
	if s.redis == nil {
		return response.NewAppError(response.ErrCodeInternal, "세션 저장소를 사용할 수 없습니다", "")
	}

	session.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *sessionServiceImpl) Delete(ctx context.Context, sessionID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, sessionKey(sessionID)).Err()
}
