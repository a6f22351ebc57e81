package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"import-wizard-api/internal/dto"
	"import-wizard-api/internal/response"
	"import-wizard-api/internal/service"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsMaxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage is the consulting chat wire format in both directions
type wsMessage struct {
	Type    string `json:"type"` // "chat" | "reply" | "error"
	Content string `json:"content,omitempty"`
}

// ConsultHandler runs the AI consulting step: a websocket conversation plus
// triage and summary endpoints
type ConsultHandler struct {
	consult  service.ConsultService
	sessions service.SessionService
	logger   *zap.Logger
}

// NewConsultHandler creates a new ConsultHandler
func NewConsultHandler(consult service.ConsultService, sessions service.SessionService, logger *zap.Logger) *ConsultHandler {
	return &ConsultHandler{
		consult:  consult,
		sessions: sessions,
		logger:   logger,
	}
}

// ChatWS handles GET /consult/ws: a request/reply websocket conversation.
// Each incoming chat message is answered before the next one is read.
func (h *ConsultHandler) ChatWS(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	h.logger.Info("Consulting chat opened", zap.String("session_id", session.ID))

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Consulting chat read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		if msg.Type != "chat" {
			continue
		}

		reply, err := h.consult.Chat(c.Request.Context(), session, msg.Content)
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err != nil {
			if writeErr := conn.WriteJSON(wsMessage{Type: "error", Content: "AI 상담을 잠시 사용할 수 없습니다"}); writeErr != nil {
				return
			}
			continue
		}

		// 대화 기록을 먼저 남기고 나서 응답을 보낸다
		if err := h.sessions.Save(c.Request.Context(), session); err != nil {
			h.logger.Warn("Failed to save chat history", zap.Error(err))
		}
		if err := conn.WriteJSON(wsMessage{Type: "reply", Content: reply}); err != nil {
			return
		}
	}
}

// Chat handles POST /consult/chat: REST fallback for one chat turn
func (h *ConsultHandler) Chat(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "message가 필요합니다")
		return
	}

	reply, err := h.consult.Chat(c.Request.Context(), session, req.Message)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.ChatResponse{Reply: reply})
}

// Triage handles POST /consult/triage
func (h *ConsultHandler) Triage(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	triage, err := h.consult.Triage(c.Request.Context(), apiKey, session)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, triage)
}

// Summarize handles POST /consult/summary
func (h *ConsultHandler) Summarize(c *gin.Context) {
	session, ok := loadSession(c, h.sessions, h.logger)
	if !ok {
		return
	}

	apiKey := c.GetHeader(crmKeyHeader)
	summary, err := h.consult.Summarize(c.Request.Context(), apiKey, session)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, summary)
}
