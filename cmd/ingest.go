/*
Copyright © 2025 finsight-ai
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsight-ai/finsight-be/config"
	"github.com/finsight-ai/finsight-be/database"
	"github.com/finsight-ai/finsight-be/service"
	"github.com/finsight-ai/finsight-be/utils"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest PDF documents into the vector collection",
	Long: `Walks a file or directory of PDF documents, segments and chunks each
page, embeds the chunks and upserts them into the Qdrant collection.
Re-running over the same files overwrites their points in place.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := utils.SetupLogger()
		ctx := context.Background()

		path, _ := cmd.Flags().GetString("path")
		filesLimit, _ := cmd.Flags().GetInt("files-limit")

		opts := service.DefaultIngestOptions()
		opts.ChunkSize, _ = cmd.Flags().GetInt("chunk-size")
		opts.Overlap, _ = cmd.Flags().GetInt("overlap")
		opts.BatchSize, _ = cmd.Flags().GetInt("batch-size")
		opts.UpsertBatch, _ = cmd.Flags().GetInt("upsert-batch")
		opts.MinChunkChars, _ = cmd.Flags().GetInt("min-chunk-chars")
		opts.DedupeWindow, _ = cmd.Flags().GetInt("dedupe-window")
		opts.PageLimit, _ = cmd.Flags().GetInt("page-limit")
		opts.PerPage, _ = cmd.Flags().GetBool("per-page")
		opts.DetectSlides, _ = cmd.Flags().GetBool("detect-slides")
		opts.HeaderPrefix, _ = cmd.Flags().GetBool("header-prefix")
		opts.LogPages, _ = cmd.Flags().GetBool("log-pages")
		strategy, _ := cmd.Flags().GetString("strategy")
		opts.Strategy = service.Strategy(strategy)
		timeoutSec, _ := cmd.Flags().GetInt("timeout")
		opts.Timeout = time.Duration(timeoutSec) * time.Second

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

		paths, err := utils.WalkPDFs(path)
		if err != nil {
			log.Fatalf("Failed to walk %s: %v", path, err)
		}
		if filesLimit > 0 && len(paths) > filesLimit {
			paths = paths[:filesLimit]
		}
		if len(paths) == 0 {
			log.Fatalf("No PDF files found under %s", path)
		}

		ingestService := service.NewIngestService(store, embedder, service.NewPDFService(), logger)
		counts, err := ingestService.Ingest(ctx, paths, opts)

		total := 0
		for _, p := range paths {
			if n, ok := counts[p]; ok {
				fmt.Printf("%s: %d chunks\n", p, n)
				total += n
			} else {
				fmt.Printf("%s: FAILED\n", p)
			}
		}
		fmt.Printf("ingested %d documents, %d chunks into %s\n", len(counts), total, store.Collection())
		if err != nil {
			log.Fatalf("Ingestion finished with errors: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	defaults := service.DefaultIngestOptions()
	ingestCmd.Flags().StringP("path", "p", "docs", "PDF file or directory to ingest")
	ingestCmd.Flags().Int("chunk-size", defaults.ChunkSize, "target chunk size in characters")
	ingestCmd.Flags().Int("overlap", defaults.Overlap, "overlap between chunks in characters")
	ingestCmd.Flags().Int("batch-size", defaults.BatchSize, "chunks per embedding request")
	ingestCmd.Flags().Int("upsert-batch", defaults.UpsertBatch, "points per upsert request")
	ingestCmd.Flags().Int("min-chunk-chars", defaults.MinChunkChars, "minimum chunk length in characters")
	ingestCmd.Flags().Int("dedupe-window", defaults.DedupeWindow, "dedupe hash-set size before reset")
	ingestCmd.Flags().Int("page-limit", 0, "limit pages per document (0 = all)")
	ingestCmd.Flags().Bool("per-page", false, "force one chunk per page")
	ingestCmd.Flags().Bool("detect-slides", defaults.DetectSlides, "classify slide-like pages and chunk them whole")
	ingestCmd.Flags().Bool("header-prefix", defaults.HeaderPrefix, "prefix chunks with the detected page heading")
	ingestCmd.Flags().String("strategy", string(defaults.Strategy), "chunking strategy: auto, recursive or perpage")
	ingestCmd.Flags().Int("timeout", int(defaults.Timeout/time.Second), "per-call timeout in seconds")
	ingestCmd.Flags().Int("files-limit", 0, "ingest at most this many files (0 = all)")
	ingestCmd.Flags().Bool("log-pages", false, "log per-page segmentation detail")
}
