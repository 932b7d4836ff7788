package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ShengNW/interviewer/internal/auth"
)

const ownerAddressKey = "ownerAddress"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并把钱包地址注入上下文。
// 后续 handler 通过 OwnerAddressFromContext 取出已验证的身份。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		rawToken := strings.TrimSpace(parts[1])
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		address, err := authService.ValidateToken(rawToken)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(ownerAddressKey, address)
		c.Next()
	}
}

// OwnerAddressFromContext 返回上下文中的调用者钱包地址。
func OwnerAddressFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(ownerAddressKey)
	if !exists {
		return "", false
	}
	address, ok := value.(string)
	if !ok || address == "" {
		return "", false
	}
	return address, true
}
