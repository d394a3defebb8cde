/*
Copyright © 2025 finsight-ai
*/
package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/finsight-ai/finsight-be/config"
	"github.com/finsight-ai/finsight-be/database"
	"github.com/finsight-ai/finsight-be/handler"
	"github.com/finsight-ai/finsight-be/service"
	"github.com/finsight-ai/finsight-be/utils"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the QA API server",
	Long:  `Starts the HTTP server exposing the ask, search and WhatsApp webhook endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := utils.SetupLogger()
		ctx := context.Background()

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		store, err := database.NewQdrantStore(cfg.Qdrant, logger)
		if err != nil {
			log.Fatalf("Failed to connect to Qdrant: %v", err)
		}
		defer store.Close()

		embedder, err := service.NewEmbeddingService(ctx, cfg.Embeddings)
		if err != nil {
			log.Fatalf("Failed to init embedding provider: %v", err)
		}
		primary, alternate, err := service.NewCompletionChain(ctx, cfg.LLM)
		if err != nil {
			log.Fatalf("Failed to init completion providers: %v", err)
		}

		chartService := service.NewChartService(primary, alternate, logger)
		ragService := service.NewRAGService(store, embedder, primary, alternate, chartService, logger)
		quickChart := handler.NewQuickChartClient(cfg.QuickChart, logger)

		corsHandler := handler.NewCorsHandler()
		askHandler := handler.NewAskHandler(ragService)
		searchHandler := handler.NewSearchHandler(ragService)
		whatsAppHandler := handler.NewWhatsAppHandler(ragService, quickChart, cfg.WhatsApp, logger)

		router := mux.NewRouter()
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.PathPrefix("/api/v1").Subrouter()
		apiV1.Handle("/ask", askHandler.HandleAsk()).Methods(http.MethodPost, http.MethodOptions)
		apiV1.Handle("/search", searchHandler.HandleSearch()).Methods(http.MethodPost, http.MethodOptions)

		router.Handle("/api/whatsapp", whatsAppHandler.HandleMessage()).Methods(http.MethodPost)
		router.Handle("/api/whatsapp", whatsAppHandler.HandleHealth()).Methods(http.MethodGet)

		server := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		}
		logger.Info("starting server", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
