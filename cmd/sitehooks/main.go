package main

import (
	"github.com/joho/godotenv"
	"github.com/sleeautomation/sitehooks/logger"
)

func main() {
	// Load .env as early as possible!
	_ = godotenv.Load()

	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		exit(1)
	}
}
