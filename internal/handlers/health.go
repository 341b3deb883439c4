package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root is what the frontend pings to see the API is up.
func Root(c *gin.Context) {
	c.String(http.StatusOK, "API is running")
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
