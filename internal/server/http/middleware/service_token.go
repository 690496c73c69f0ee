package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/parishpay/internal/pkg/auth"
)

// ServiceTokenHeader carries the operator token for ops endpoints.
const ServiceTokenHeader = "X-Service-Token"

// ServiceToken rejects requests whose service token does not verify.
func ServiceToken(verifier pkgAuth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := verifier.Verify(c.GetHeader(ServiceTokenHeader)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid service token"})
			return
		}
		c.Next()
	}
}
