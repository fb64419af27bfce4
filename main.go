package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/hireview/hireview/cmd"
)

func main() {
	// Optional .env for local development; environment wins when both set.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
