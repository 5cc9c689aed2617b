package device

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"focustasks/controller"
	"focustasks/dto"
	"focustasks/middleware"
	"focustasks/services"
)

func DeviceController(router *gin.Engine, relay *services.Relay, issuer *services.TokenIssuer) {
	routes := router.Group("/api/devices", middleware.DeviceToken(issuer, false))
	{
		routes.POST("/register", func(c *gin.Context) {
			RegisterDevice(c, relay, issuer)
		})
	}
}

func RegisterDevice(c *gin.Context, relay *services.Relay, issuer *services.TokenIssuer) {
	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BadJSON(c)
		return
	}
	id := strings.TrimSpace(req.DeviceID)

	// A known device may only be re-registered by its own token holder.
	if issuer != nil && id != "" {
		_, existed, err := relay.Device(c.Request.Context(), id)
		if err != nil {
			controller.Fail(c, err)
			return
		}
		if existed && !middleware.AuthorizedFor(c, issuer, id) {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Device token required"})
			return
		}
	}

	if _, _, err := relay.RegisterDevice(c.Request.Context(), req); err != nil {
		controller.Fail(c, err)
		return
	}

	resp := gin.H{"ok": true}
	if issuer != nil {
		token, err := issuer.Issue(id)
		if err != nil {
			controller.Fail(c, err)
			return
		}
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}
