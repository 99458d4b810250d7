/*
Copyright © 2025 juridia
*/
package cmd

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/juridia/legal-assistant-be/config"
	"github.com/juridia/legal-assistant-be/database"
	"github.com/juridia/legal-assistant-be/handler"
	"github.com/juridia/legal-assistant-be/middleware"
	"github.com/juridia/legal-assistant-be/repository"
	"github.com/juridia/legal-assistant-be/service"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the legal assistant server",
	Long:  `Starts the HTTP and websocket server that answers user questions over the indexed legal corpus`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		ctx := context.Background()

		mongoClient, err := database.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoClient.Disconnect(ctx)
		mongoDb := mongoClient.Database("legal_assistant")

		vectorIndex, err := database.NewVectorIndex(cfg)
		if err != nil {
			log.Fatalf("Failed to open vector index: %v", err)
		}

		embedder := service.NewOpenAIEmbedder(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.Limits.EmbedConcurrency)
		aiService := service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model, cfg.Limits.ChatConcurrency)

		conversationRepo := repository.NewConversationRepo(mongoClient, mongoDb)

		cache := service.NewConversationCache(cfg.Cache.Capacity, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		go cache.Run(ctx, time.Duration(cfg.Cache.SweepSeconds)*time.Second)

		retrieval := service.NewRetrievalService(embedder, vectorIndex, cfg.Retrieval.TopK, cfg.Retrieval.Threshold, cfg.Retrieval.EvidenceBudget)
		prompts := service.NewPromptService(cfg.Prompt.MaxChars, cfg.Prompt.HistoryTurns)
		metadata := service.NewMetadataService(aiService, conversationRepo, cache, cfg.Limits.MetadataWorkers, time.Duration(cfg.Limits.MetadataTimeoutSeconds)*time.Second)

		chatService := service.NewChatService(
			retrieval,
			prompts,
			aiService,
			cache,
			conversationRepo,
			metadata,
			cfg.Prompt.HistoryTurns,
			time.Duration(cfg.Limits.RequestTimeoutSeconds)*time.Second,
		)

		wsService := service.NewWebSocketService(chatService)
		chatHandler := handler.NewChatHandler(chatService)
		searchHandler := handler.NewSearchHandler(retrieval)

		mux := http.NewServeMux()
		mux.Handle("/health", wsService.Health())
		mux.HandleFunc("/ws", wsService.HandleChat)
		mux.Handle("/api/v1/chat/query", middleware.AuthMiddleware(chatHandler.HandleQuery()))
		mux.Handle("/api/v1/chat/history", middleware.AuthMiddleware(chatHandler.HandleHistory()))
		mux.Handle("/api/v1/chat/conversation", middleware.AuthMiddleware(chatHandler.HandleClear()))
		mux.Handle("/api/v1/documents/search", middleware.AuthMiddleware(searchHandler.HandleSearch()))

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := http.ListenAndServe(":"+cfg.Port, handler.EnableCors(mux)); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
