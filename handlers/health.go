package handlers

import (
	"context"
	"net/http"
	"time"

	"brightnest/database"
	"brightnest/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness plus the state of the two backing stores.
func HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	mongoOK, redisOK := true, true

	if err := database.MongoClient.Ping(ctx, nil); err != nil {
		mongoOK = false
		status = http.StatusServiceUnavailable
	}
	if cache := utils.GetCacheClient(); cache != nil {
		if err := cache.Ping(ctx).Err(); err != nil {
			redisOK = false
			status = http.StatusServiceUnavailable
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"mongo":  mongoOK,
		"redis":  redisOK,
	})
}
