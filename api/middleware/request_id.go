package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求追踪头
const RequestIDHeader = "X-Request-ID"

// ContextRequestIDKey 请求 ID 在 gin.Context 中的键
const ContextRequestIDKey = "request_id"

// RequestID 请求 ID 追踪中间件
// 透传客户端已有的请求 ID，没有时生成新的
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(ContextRequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}
