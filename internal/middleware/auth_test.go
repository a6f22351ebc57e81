package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", SessionAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessionId": GetSessionID(c)})
	})
	return r
}

func TestSessionAuth(t *testing.T) {
	const secret = "test-secret"

	t.Run("성공: 유효한 토큰", func(t *testing.T) {
		token, err := IssueSessionToken(secret, "session-123", time.Hour)
		assert.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		setupAuthRouter(secret).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "session-123")
	})

	t.Run("실패: 토큰 없음", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		setupAuthRouter(secret).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("실패: Bearer 접두사 없음", func(t *testing.T) {
		token, _ := IssueSessionToken(secret, "session-123", time.Hour)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", token)
		setupAuthRouter(secret).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("실패: 다른 키로 서명된 토큰", func(t *testing.T) {
		token, _ := IssueSessionToken("other-secret", "session-123", time.Hour)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		setupAuthRouter(secret).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "SESSION_EXPIRED")
	})

	t.Run("실패: 만료된 토큰", func(t *testing.T) {
		token, _ := IssueSessionToken(secret, "session-123", -time.Minute)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		setupAuthRouter(secret).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "SESSION_EXPIRED")
	})
}
