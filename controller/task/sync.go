package task

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustasks/controller"
	"focustasks/dto"
	"focustasks/middleware"
	"focustasks/model"
	"focustasks/services"
)

func TaskController(router *gin.Engine, relay *services.Relay, issuer *services.TokenIssuer) {
	routes := router.Group("/api/tasks", middleware.DeviceToken(issuer, true))
	{
		routes.POST("/sync", func(c *gin.Context) {
			SyncTasks(c, relay, issuer)
		})
		routes.GET("/:deviceId", func(c *gin.Context) {
			GetSnapshot(c, relay, issuer)
		})
	}
}

func SyncTasks(c *gin.Context, relay *services.Relay, issuer *services.TokenIssuer) {
	var req dto.SyncTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BadJSON(c)
		return
	}
	if req.DeviceID != "" && !middleware.AuthorizedFor(c, issuer, req.DeviceID) {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Token does not match deviceId"})
		return
	}

	n, err := relay.SyncTasks(c.Request.Context(), req)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "synced": n})
}

// GetSnapshot returns what the relay holds for a device. A registered device
// that never synced has an empty list.
func GetSnapshot(c *gin.Context, relay *services.Relay, issuer *services.TokenIssuer) {
	id := c.Param("deviceId")
	if !middleware.AuthorizedFor(c, issuer, id) {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Token does not match deviceId"})
		return
	}

	tasks, ok, err := relay.Snapshot(c.Request.Context(), id)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	if !ok {
		_, ok, err = relay.Device(c.Request.Context(), id)
		if err != nil {
			controller.Fail(c, err)
			return
		}
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Device not found"})
		return
	}
	if tasks == nil {
		tasks = []model.SyncedTask{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": tasks})
}
