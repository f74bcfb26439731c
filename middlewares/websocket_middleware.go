package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const TerminalKey = "terminal"

// FloorTerminalMiddleware requires a ?terminal=<name> on websocket upgrades
// so the hub can tell host stands and server stations apart in its logs.
func FloorTerminalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		terminal := strings.TrimSpace(c.Query("terminal"))
		if terminal == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"status":  false,
				"message": "terminal query parameter is required",
			})
			return
		}
		c.Set(TerminalKey, terminal)
		c.Next()
	}
}
