/*
Copyright © 2025 finsight-ai
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finsight-be",
	Short: "Retrieval-augmented QA backend over financial documents",
	Long: `finsight-be ingests financial PDF documents (earnings call transcripts,
investor presentations) into a Qdrant vector collection and answers
questions over them with cited sources and optional charts.

Use "ingest" to populate the collection and "start" to serve the API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}
