package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id between the console and the backend
const RequestIDHeader = "X-Request-ID"

// MaxRequestIDLength bounds caller-supplied ids; longer ones are replaced
const MaxRequestIDLength = 128

// RequestID assigns each request an id, reusing the caller's when present.
// It must run before the logging middleware.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > MaxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
