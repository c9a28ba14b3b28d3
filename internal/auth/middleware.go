package auth

import (
	"strconv"

	"github.com/ashendes/retail-api/internal/metrics"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const claimsKey = "auth.claims"

// RequirePermission aborts the request unless its bearer token grants
// permission. The error is attached to the context for the error
// middleware to render.
func RequirePermission(authorizer Authorizer, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authorizer.Authorize(c.Request.Context(), c.GetHeader("Authorization"), permission)
		if err != nil {
			if authErr, ok := AsAuthError(err); ok {
				metrics.AuthFailuresTotal.WithLabelValues(strconv.Itoa(authErr.Status), authErr.Code).Inc()
				log.WithFields(log.Fields{
					"permission": permission,
					"code":       authErr.Code,
					"status":     authErr.Status,
					"path":       c.FullPath(),
				}).Info("Request rejected by permission check")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by RequirePermission
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}
