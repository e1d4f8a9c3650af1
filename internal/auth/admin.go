package auth

import (
	"errors"
	"strings"
)

var (
	// ErrNotAdmin 调用者不是管理员
	ErrNotAdmin = errors.New("caller is not an admin")

	// ErrNotConfigured 服务端未配置管理员邮箱
	ErrNotConfigured = errors.New("admin email is not configured")
)

// AdminGate 管理员授权检查
// 仅当令牌中的邮箱与配置的管理员邮箱一致时放行
type AdminGate struct {
	verifier   Verifier
	adminEmail string
}

// NewAdminGate 创建管理员授权检查器
func NewAdminGate(verifier Verifier, adminEmail string) *AdminGate {
	return &AdminGate{
		verifier:   verifier,
		adminEmail: adminEmail,
	}
}

// Authorize 验证令牌并检查管理员身份
// 未配置管理员邮箱时拒绝所有请求
func (g *AdminGate) Authorize(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	if g.adminEmail == "" {
		return nil, ErrNotConfigured
	}

	identity, err := g.verifier.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(identity.Email, g.adminEmail) {
		return nil, ErrNotAdmin
	}

	return identity, nil
}
