/*
Copyright © 2025 finsight-ai
*/
package main

import (
	"github.com/joho/godotenv"

	"github.com/finsight-ai/finsight-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()
}
