package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// Metrics records request counts, durations and in-flight requests. The
// route template is used as the path label so ids do not explode the label
// cardinality; unmatched requests are grouped under "unmatched".
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.TrackActiveRequest(c.Request.Method)
		defer done()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// Recovery turns a panic into a masked 500 and logs it.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			logging.Any("panic", recovered),
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
		)
		AbortWithError(c, errors.Internal("panic"))
	})
}

// BodyLimit caps request bodies at n bytes. Reads past the limit fail with
// *http.MaxBytesError, which handlers report as a validation error.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
