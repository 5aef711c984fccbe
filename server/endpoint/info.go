package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/audioscribe/version"
)

var startTime = time.Now()

func uptime() time.Duration {
	return time.Since(startTime).Round(time.Second)
}

// Info returns a handler that reports build information and uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"build":   version.Get(),
			"uptime":  uptime().String(),
		})
	}
}

// Liveness answers as long as the process can serve HTTP. It does not
// consult component health.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "alive",
			"service":        serviceName,
			"uptime_seconds": int64(uptime().Seconds()),
		})
	}
}
