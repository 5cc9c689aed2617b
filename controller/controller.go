package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"focustasks/services"
)

func HealthController(router *gin.Engine, dispatcher *services.Dispatcher) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Api is running!"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "pushEnabled": dispatcher != nil && dispatcher.Enabled()})
	})
}

// Fail answers err as 400 when it is a validation problem and 500 otherwise.
func Fail(c *gin.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": ve.Message})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Internal server error"})
}

// BadJSON answers a body that could not be decoded.
func BadJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid JSON body"})
}
