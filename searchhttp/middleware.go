package searchhttp

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the id of a request in both directions.
const RequestIDHeader = "X-Request-ID"

const ctxKeyRequestID = "searchhttp.request_id"

// RequestID keeps the incoming X-Request-ID or assigns a new uuid, and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// AccessLog logs every request once it has been served.
func AccessLog(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": RequestIDFrom(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
			"client_ip":  c.ClientIP(),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("access")
			return
		}
		entry.Info("access")
	}
}
