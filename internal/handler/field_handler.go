package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/dto"
	"import-wizard-api/internal/middleware"
	"import-wizard-api/internal/response"
	"import-wizard-api/internal/service"
)

// crmKeyHeader carries the user's CRM API key on schema-touching requests
const crmKeyHeader = "X-Salesmap-Key"

// FieldHandler serves object types and the target field catalog
type FieldHandler struct {
	registry service.RegistryService
	mapping  service.MappingService
	sessions service.SessionService
	logger   *zap.Logger
}

// NewFieldHandler creates a new FieldHandler
func NewFieldHandler(registry service.RegistryService, mapping service.MappingService, sessions service.SessionService, logger *zap.Logger) *FieldHandler {
	return &FieldHandler{
		registry: registry,
		mapping:  mapping,
		sessions: sessions,
		logger:   logger,
	}
}

// loadSession resolves the authenticated session or writes an error response
func loadSession(c *gin.Context, sessions service.SessionService, logger *zap.Logger) (*domain.ImportSession, bool) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "세션 토큰이 필요합니다")
		return nil, false
	}
	session, err := sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		handleServiceError(c, logger, err)
		return nil, false
	}
	return session, true
}

// ListObjectTypes handles GET /object-types
func (h *FieldHandler) ListObjectTypes(c *gin.Context) {
	infos := make([]dto.ObjectTypeInfo, 0, len(domain.AllObjectTypes))
	for _, t := range domain.AllObjectTypes {
		infos = append(infos, dto.ObjectTypeInfo{
			Type:        t,
			Name:        t.Name(),
			Description: t.Description(),
			ExportName:  t.ExportName(),
		})
	}
	response.SendSuccess(c, http.StatusOK, infos)
}

// SelectObjectTypes handles POST /object-types
func (h *FieldHandler) SelectObjectTypes(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	var req dto.SelectObjectTypesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "objectTypes 배열이 필요합니다")
		return
	}

	var selected []domain.ObjectType
	seen := map[domain.ObjectType]bool{}
	for _, raw := range req.ObjectTypes {
		if !domain.IsValidObjectType(raw) {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "잘못된 오브젝트 타입: "+raw)
			return
		}
		t := domain.ObjectType(raw)
		if !seen[t] {
			seen[t] = true
			selected = append(selected, t)
		}
	}

	// 선택이 바뀌면 관련 스키마 캐시를 버리고 매핑을 전부 비워서
	// 다음 해석이 처음부터 다시 잡게 한다
	if !domain.SameObjectTypeSet(session.SelectedObjectTypes, selected) {
		apiKey := c.GetHeader(crmKeyHeader)
		for _, t := range domain.UnionObjectTypes(session.SelectedObjectTypes, selected) {
			h.registry.Invalidate(apiKey, t)
		}
		session.Mappings = nil
	}

	session.SelectedObjectTypes = selected
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, gin.H{"selectedObjectTypes": selected})
}

// ListFields handles GET /fields: the full mapping candidate set of the session
func (h *FieldHandler) ListFields(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	fields, usingDefaults, err := h.mapping.CandidateFields(c.Request.Context(), apiKey, session)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	// 폴백 여부는 조회 시점마다 달라질 수 있어 세션에 다시 기록한다
	session.UsingDefaults = usingDefaults
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		h.logger.Warn("Failed to save session after field listing", zap.Error(err))
	}

	response.SendSuccess(c, http.StatusOK, dto.FieldsResponse{
		Fields:        fields,
		UsingDefaults: session.UsingDefaults,
	})
}

// ValidateKey handles POST /validate-key
func (h *FieldHandler) ValidateKey(c *gin.Context) {
	var req dto.ValidateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "apiKey가 필요합니다")
		return
	}

	valid, err := h.registry.ValidateAPIKey(c.Request.Context(), req.APIKey)
	if err != nil {
		handleServiceError(c, h.logger, response.NewExternalAPIError("CRM API에 연결할 수 없습니다", err.Error()))
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.ValidateKeyResponse{Valid: valid})
}
