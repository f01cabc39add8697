package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const cartTokenHeader = "X-Cart-Token"

const cartTokenKey = "cartToken"

// cartTokenMiddleware resolves the caller's cart session token, minting one
// when the client has none yet. The token is echoed back so the storefront
// can persist it.
func cartTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(cartTokenHeader)
		if token == "" {
			token = uuid.NewString()
		}
		c.Set(cartTokenKey, token)
		c.Header(cartTokenHeader, token)
		c.Next()
	}
}

func cartToken(c *gin.Context) string {
	return c.GetString(cartTokenKey)
}
