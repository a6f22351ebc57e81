package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"import-wizard-api/internal/dto"
	"import-wizard-api/internal/response"
	"import-wizard-api/internal/service"
)

// ImportHandler drives preview, the final import, and export downloads
type ImportHandler struct {
	importSvc service.ImportService
	export    service.ExportService
	sessions  service.SessionService
	logger    *zap.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importSvc service.ImportService, export service.ExportService, sessions service.SessionService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		export:    export,
		sessions:  sessions,
		logger:    logger,
	}
}

// Preview handles GET /preview
func (h *ImportHandler) Preview(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	previews, err := h.importSvc.Preview(c.Request.Context(), apiKey, session)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, gin.H{"previews": previews})
}

// Import handles POST /import
func (h *ImportHandler) Import(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "mode는 all 또는 valid여야 합니다")
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	artifacts, report, err := h.importSvc.Import(c.Request.Context(), apiKey, session, service.ImportMode(req.Mode))
	if err != nil {
		// 차단 사유는 보고서와 함께 내려준다
		var appErr = err
		if report != nil && report.Structure != nil && report.Structure.Blocking() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":    response.ErrCodeImportBlocked,
					"message": "구조 검증을 통과하지 못해 임포트할 수 없습니다",
				},
				"report": report,
			})
			return
		}
		handleServiceError(c, h.logger, appErr)
		return
	}

	h.logger.Info("Import completed",
		zap.String("session_id", session.ID),
		zap.String("mode", req.Mode),
		zap.Int("artifacts", len(artifacts)))

	response.SendSuccess(c, http.StatusOK, gin.H{
		"artifacts": artifacts,
		"report":    report,
	})
}

// ListExports handles GET /exports
func (h *ImportHandler) ListExports(c *gin.Context) {
	records, err := h.export.List(c.Request.Context(), 50)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	out := make([]dto.ExportRecordResponse, 0, len(records))
	for _, r := range records {
		resp := dto.ExportRecordResponse{
			ID:        r.ID.String(),
			SessionID: r.SessionID,
			Filename:  r.Filename,
			RowCount:  r.RowCount,
			Status:    string(r.Status),
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		}
		if r.ExpiresAt != nil {
			resp.ExpiresAt = r.ExpiresAt.Format(time.RFC3339)
		}
		out = append(out, resp)
	}
	response.SendSuccess(c, http.StatusOK, out)
}

// Download handles GET /exports/:filename/download
func (h *ImportHandler) Download(c *gin.Context) {
	localPath, redirectURL, err := h.export.Resolve(c.Request.Context(), c.Param("filename"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if redirectURL != "" {
		c.Redirect(http.StatusTemporaryRedirect, redirectURL)
		return
	}
	c.FileAttachment(localPath, c.Param("filename"))
}
