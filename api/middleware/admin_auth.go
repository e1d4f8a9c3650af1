package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/event-gallery/api/common"
	"github.com/anoixa/event-gallery/internal/auth"
)

// ContextAdminEmailKey 已授权管理员邮箱在 gin.Context 中的键
const ContextAdminEmailKey = "admin_email"

// AdminAuth 管理员鉴权中间件
// 无令牌或令牌无效返回 401，身份不是管理员返回 403
// 服务端未配置管理员邮箱时关闭所有管理操作，返回 500
func AdminAuth(gate *auth.AdminGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := gate.Authorize(extractBearerToken(c))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNoToken):
				common.RespondErrorAbort(c, http.StatusUnauthorized, "Authorization token is required")
			case errors.Is(err, auth.ErrInvalidToken):
				common.RespondErrorAbort(c, http.StatusUnauthorized, "Invalid or expired token")
			case errors.Is(err, auth.ErrNotAdmin):
				common.RespondErrorAbort(c, http.StatusForbidden, "Admin privileges required")
			case errors.Is(err, auth.ErrNotConfigured):
				log.Println("Admin request rejected: admin email is not configured")
				common.RespondErrorAbort(c, http.StatusInternalServerError, "Admin access is not configured")
			default:
				common.RespondErrorAbort(c, http.StatusUnauthorized, "Authorization failed")
			}
			return
		}

		c.Set(ContextAdminEmailKey, identity.Email)
		c.Next()
	}
}

// extractBearerToken 从 Authorization 头提取令牌
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(header)
}
