package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
)

// Identity извлекает инициатора запроса из заголовков. Проверка
// подлинности выполняется выше по стеку, сюда приходят уже
// аутентифицированные значения.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				c.Set(UserIDKey, id)
			}
		}
		if role := c.GetHeader("X-User-Role"); role != "" {
			c.Set(UserRoleKey, role)
		}
		c.Next()
	}
}
