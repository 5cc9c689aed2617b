package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"focustasks/services"
)

// DeviceIDKey is where DeviceToken stores the authenticated device id.
const DeviceIDKey = "deviceId"

// DeviceToken checks "Authorization: Bearer <token>" against issuer. With a
// nil issuer tokens are off and every request passes. When required is
// false a missing header is allowed through unauthenticated.
func DeviceToken(issuer *services.TokenIssuer, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if issuer == nil {
			c.Next()
			return
		}

		header := c.Request.Header.Get("Authorization")
		if header == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Authorization header is missing"})
				return
			}
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Invalid token format"})
			return
		}

		deviceID, err := issuer.Verify(strings.TrimSpace(tokenString))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "Token is invalid"})
			return
		}
		c.Set(DeviceIDKey, deviceID)
		c.Next()
	}
}

// AuthorizedFor reports whether the request may act on deviceID. It is
// always true when tokens are off.
func AuthorizedFor(c *gin.Context, issuer *services.TokenIssuer, deviceID string) bool {
	if issuer == nil {
		return true
	}
	return c.GetString(DeviceIDKey) == strings.TrimSpace(deviceID)
}
