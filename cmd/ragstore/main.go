package main

import (
	"github.com/joho/godotenv"

	"ragstore/internal/cli"
)

func main() {
	// API keys for remote embedding providers can live in a local .env.
	_ = godotenv.Load()

	cli.Execute()
}
