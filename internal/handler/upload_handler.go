package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"import-wizard-api/internal/dto"
	"import-wizard-api/internal/metrics"
	"import-wizard-api/internal/middleware"
	"import-wizard-api/internal/response"
	"import-wizard-api/internal/service"
)

const maxUploadSize = 20 << 20 // 20MB

// UploadHandler accepts spreadsheet uploads and opens wizard sessions
type UploadHandler struct {
	upload   service.UploadService
	sessions service.SessionService
	analyzer service.AnalyzerService
	secret   string
	tokenTTL time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(upload service.UploadService, sessions service.SessionService, analyzer service.AnalyzerService, secret string, tokenTTL time.Duration, m *metrics.Metrics, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		upload:   upload,
		sessions: sessions,
		analyzer: analyzer,
		secret:   secret,
		tokenTTL: tokenTTL,
		metrics:  m,
		logger:   logger,
	}
}

// Upload handles POST /upload. The response carries the session token used
// as Bearer auth for every later wizard call.
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "file 필드에 파일을 첨부해 주세요")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	defer file.Close()

	dataset, err := h.upload.Parse(fileHeader.Filename, file)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), dataset)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	token, err := middleware.IssueSessionToken(h.secret, session.ID, h.tokenTTL)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementUploads()
	}
	h.logger.Info("File uploaded",
		zap.String("session_id", session.ID),
		zap.String("filename", dataset.Filename),
		zap.Int("columns", len(dataset.Columns)),
		zap.Int("rows", dataset.TotalRows))

	response.SendSuccess(c, http.StatusCreated, dto.UploadResponse{
		SessionID:    session.ID,
		SessionToken: token,
		Filename:     dataset.Filename,
		Columns:      dataset.Columns,
		TotalRows:    dataset.TotalRows,
		ColumnStats:  h.analyzer.Analyze(dataset),
	})
}
