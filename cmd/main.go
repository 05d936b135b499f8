package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/stonebridgevc/dealdesk-backend/internal/db"
	"github.com/stonebridgevc/dealdesk-backend/internal/handlers"
	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/observability"
	"github.com/stonebridgevc/dealdesk-backend/internal/repos"
	"github.com/stonebridgevc/dealdesk-backend/internal/server"
	"github.com/stonebridgevc/dealdesk-backend/internal/services"
	"github.com/stonebridgevc/dealdesk-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	ctx := context.Background()
	if shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "dealdesk-backend",
		Environment: utils.GetEnv("DEPLOY_ENV", "local", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	}); shutdown != nil {
		defer func() { _ = shutdown(ctx) }()
	}

	// Record store
	log.Info("Setting up deal record store from main...")
	var dealRepo repos.DealRepo
	storeMode := strings.ToLower(utils.GetEnv("DEAL_STORE", "postgres", log))
	if storeMode == "memory" {
		log.Warn("DEAL_STORE=memory, deal records will not survive a restart")
		dealRepo = repos.NewMemoryDealRepo(log)
	} else {
		postgresService, err := db.NewPostgresService(log)
		if err != nil {
			log.Warn("Postgres init failed, falling back to in-memory deal store", "error", err)
			dealRepo = repos.NewMemoryDealRepo(log)
		} else {
			if err := postgresService.AutoMigrateAll(); err != nil {
				log.Warn("Postgres auto migration failed", "error", err)
			}
			dealRepo = repos.NewDealRepo(postgresService.DB(), log)
		}
	}

	// Blob store
	log.Info("Setting up blob store from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, falling back to in-memory blob store", "error", err)
		bucketService = services.NewMemoryBucketService(log)
	}

	// Services
	log.Info("Setting up services from main...")
	extractionService, err := services.NewExtractionService(log)
	if err != nil {
		log.Error("Could not init ExtractionService", "error", err)
		os.Exit(1)
	}
	metadataService := services.NewMetadataService(log)
	memoService := services.NewMemoService(log)
	docBuilder := services.NewDocxBuilder(log)
	inviteMailer := services.NewSendgridMailer(log)

	inviteBaseURL := utils.GetEnv("INVITE_BASE_URL", "https://founder-chat.example.com/invite", log)
	dealService := services.NewDealService(
		log,
		dealRepo,
		bucketService,
		extractionService,
		metadataService,
		memoService,
		docBuilder,
		inviteMailer,
		inviteBaseURL,
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	dealHandler := handlers.NewDealHandler(log, dealService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName: "dealdesk-backend",
		DealHandler: dealHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
