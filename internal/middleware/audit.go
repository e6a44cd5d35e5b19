package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/icpl-digital/bi-portal-api/internal/service"
)

// RequestMeta attaches the client address and agent to the request context so
// activity entries recorded deeper in the stack carry them.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := service.WithRequestMeta(c.Request.Context(), service.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
