package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService 校验上游签发的访问令牌，并取出其中的钱包地址。
// 本服务不签发业务令牌，核心层拿到的是已验证的身份字符串。
type AuthService struct {
	secret []byte
}

// TokenClaims 表示 JWT 中的业务字段，subject 是钱包地址。
type TokenClaims struct {
	jwt.RegisteredClaims
}

// NewAuthService 构造服务实例。
func NewAuthService(secret string) (*AuthService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &AuthService{secret: []byte(secret)}, nil
}

// ValidateToken 解析并验证 JWT，返回 subject（钱包地址）。
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return "", errors.New("token subject is empty")
	}
	return claims.Subject, nil
}

// SignToken 为给定钱包地址签发一个访问令牌。
// 生产环境由上游身份服务签发，这里主要服务于本地联调与测试。
func (s *AuthService) SignToken(walletAddress string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   walletAddress,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
