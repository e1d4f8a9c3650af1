package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken 请求未携带令牌
	ErrNoToken = errors.New("no token provided")

	// ErrInvalidToken 令牌无效或已过期
	ErrInvalidToken = errors.New("invalid token")
)

// Identity 已验证的调用者身份
type Identity struct {
	Email   string
	Subject string
}

// Verifier 令牌验证器接口
type Verifier interface {
	// Verify 验证令牌并返回身份信息
	Verify(tokenString string) (*Identity, error)
}

// JWTVerifier 基于 HMAC 签名 JWT 的验证器
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier 创建 JWT 验证器
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters long, got %d", len(secret))
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

// Verify 解析并验证 JWT 令牌
func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	subject, _ := claims["sub"].(string)

	return &Identity{Email: email, Subject: subject}, nil
}
