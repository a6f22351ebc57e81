package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"import-wizard-api/internal/metrics"
)

// Metrics returns a middleware that records HTTP request metrics
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics.ShouldSkipEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// 실제 경로 대신 라우트 패턴으로 기록해 카디널리티를 묶는다
		m.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
