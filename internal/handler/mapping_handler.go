package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/dto"
	"import-wizard-api/internal/response"
	"import-wizard-api/internal/service"
)

// MappingHandler exposes the mapping resolver and custom field operations
type MappingHandler struct {
	mapping  service.MappingService
	sessions service.SessionService
	logger   *zap.Logger
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mapping service.MappingService, sessions service.SessionService, logger *zap.Logger) *MappingHandler {
	return &MappingHandler{
		mapping:  mapping,
		sessions: sessions,
		logger:   logger,
	}
}

// mappingState builds the session's mapping view
func mappingState(session *domain.ImportSession) dto.MappingsResponse {
	mapped := map[string]bool{}
	for _, m := range session.Mappings {
		mapped[m.SourceColumn] = true
	}
	unmapped := []string{}
	if session.Dataset != nil {
		for _, col := range session.Dataset.Columns {
			if _, skipped := session.SkippedColumns[col]; skipped {
				continue
			}
			if !mapped[col] {
				unmapped = append(unmapped, col)
			}
		}
	}
	return dto.MappingsResponse{
		Mappings:        session.Mappings,
		CustomFields:    session.CustomFields,
		SkippedColumns:  session.SkippedColumns,
		UnmappedColumns: unmapped,
	}
}

// GetMappings handles GET /mappings
func (h *MappingHandler) GetMappings(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}
	response.SendSuccess(c, http.StatusOK, mappingState(session))
}

// AutoMap handles POST /automap: runs the three-stage resolver
func (h *MappingHandler) AutoMap(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	if err := h.mapping.Resolve(c.Request.Context(), apiKey, session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, mappingState(session))
}

// SetMapping handles PUT /mappings
func (h *MappingHandler) SetMapping(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	var req dto.SetMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "sourceColumn과 targetField가 필요합니다")
		return
	}
	target, err := domain.ParseFieldKey(req.TargetField)
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "targetField는 'objectType.fieldId' 형식이어야 합니다")
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	if err := h.mapping.SetMapping(c.Request.Context(), apiKey, session, req.SourceColumn, target); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, mappingState(session))
}

// RemoveMapping handles DELETE /mappings/:column
func (h *MappingHandler) RemoveMapping(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	column := c.Param("column")
	if _, bound := session.FindMapping(column); !bound {
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "해당 열에 매핑이 없습니다")
		return
	}

	h.mapping.RemoveMapping(session, column)
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, mappingState(session))
}

// AddCustomField handles POST /custom-fields
func (h *MappingHandler) AddCustomField(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	var req dto.AddCustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "objectType과 label이 필요합니다")
		return
	}

	field, err := h.mapping.AddCustomField(session, domain.ObjectType(req.ObjectType), req.Label, domain.FieldType(req.FieldType))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, field)
}

// RemoveCustomField handles DELETE /custom-fields/:fieldId
func (h *MappingHandler) RemoveCustomField(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	if err := h.mapping.RemoveCustomField(session, c.Param("fieldId")); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, mappingState(session))
}
