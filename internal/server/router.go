package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/stonebridgevc/dealdesk-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName  string
	AllowOrigins []string
	DealHandler  *handlers.DealHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "dealdesk-backend"
	}
	router.Use(otelgin.Middleware(serviceName))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/upload", cfg.DealHandler.UploadDeal)
		api.POST("/generate_memo/:dealId", cfg.DealHandler.RegenerateMemo)
		api.GET("/deals", cfg.DealHandler.ListDeals)
		api.GET("/deals/:dealId", cfg.DealHandler.GetDeal)
		api.DELETE("/deals/:dealId", cfg.DealHandler.DeleteDeal)
		api.GET("/download_memo/:dealId", cfg.DealHandler.DownloadMemo)
		api.GET("/download_pitch_deck/:dealId", cfg.DealHandler.DownloadPitchDeck)
		api.POST("/deals/:dealId/founder_invite", cfg.DealHandler.CreateFounderInvite)
		api.POST("/deals/:dealId/founder_chat", cfg.DealHandler.RecordFounderChat)
	}

	return router
}
