package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/medrates/pricing-backend/internal/handlers"
)

type RouterConfig struct {
	ProvidersHandler *handlers.ProvidersHandler
	AskHandler       *handlers.AskHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/", handlers.Root)
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/providers", cfg.ProvidersHandler.Search)
	router.POST("/ask", cfg.AskHandler.Ask)

	return router
}
