/*
Copyright © 2025 finsight-ai
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/finsight-ai/finsight-be/config"
	"github.com/finsight-ai/finsight-be/database"
	"github.com/finsight-ai/finsight-be/utils"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show collection stats and sample points",
	Run: func(cmd *cobra.Command, args []string) {
		logger := utils.SetupLogger()
		ctx := context.Background()

		sample, _ := cmd.Flags().GetUint32("sample")

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		store, err := database.NewQdrantStore(cfg.Qdrant, logger)
		if err != nil {
			log.Fatalf("Failed to connect to Qdrant: %v", err)
		}
		defer store.Close()

		size, err := store.VectorSize(ctx)
		if err != nil {
			log.Fatalf("Failed to read collection info: %v", err)
		}
		count, err := store.Count(ctx)
		if err != nil {
			log.Fatalf("Failed to count points: %v", err)
		}
		fmt.Printf("collection %s: %d points, vector size %d\n", store.Collection(), count, size)

		if sample == 0 {
			return
		}
		points, err := store.Sample(ctx, sample)
		if err != nil {
			log.Fatalf("Failed to sample points: %v", err)
		}
		for _, p := range points {
			text := p.Text
			if len(text) > 120 {
				text = text[:120] + "…"
			}
			fmt.Printf("- [%s] %s #%d (p.%d-%d): %s\n",
				p.Company, p.Title, p.ChunkIndex, p.PageStart, p.PageEnd, text)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Uint32("sample", 5, "number of sample points to print")
}
