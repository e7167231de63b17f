package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is read from the client and echoed on the response.
	RequestIDHeader = "X-Request-ID"
	// ContextRequestIDKey is where the id is kept in the gin context.
	ContextRequestIDKey = "request_id"
)

// RequestID tags every request with an id, reusing a sane client supplied one.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		ctx.Set(ContextRequestIDKey, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}
