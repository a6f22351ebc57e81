package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"import-wizard-api/internal/response"
	"import-wizard-api/internal/service"
)

// ValidationHandler exposes the combined validation step
type ValidationHandler struct {
	importSvc service.ImportService
	duplicate service.DuplicateService
	sessions  service.SessionService
	logger    *zap.Logger
}

// NewValidationHandler creates a new ValidationHandler
func NewValidationHandler(importSvc service.ImportService, duplicate service.DuplicateService, sessions service.SessionService, logger *zap.Logger) *ValidationHandler {
	return &ValidationHandler{
		importSvc: importSvc,
		duplicate: duplicate,
		sessions:  sessions,
		logger:    logger,
	}
}

// Validate handles POST /validate: structure, rows, and duplicates in one run
func (h *ValidationHandler) Validate(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	report, err := h.importSvc.Validate(c.Request.Context(), apiKey, session)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, report)
}

// Duplicates handles GET /duplicates: the duplicate scan alone
func (h *ValidationHandler) Duplicates(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	candidates, err := h.duplicate.Detect(c.Request.Context(), apiKey, session)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, gin.H{"duplicates": candidates})
}
