package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine serving the raffle API
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1/raffle")
	{
		v1.GET("", handler.GetRaffle)
		v1.POST("/entries", handler.Enter)
		v1.GET("/entrants", handler.GetEntrants)
		v1.GET("/entrants/:index", handler.GetEntrant)
		v1.GET("/upkeep", handler.GetUpkeep)
		v1.GET("/winners", handler.GetWinners)
	}

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
