package main

import (
	"github.com/joho/godotenv"

	"github.com/marrow-labs/docchat-cli/internal/adapters/driving/cli"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()
	cli.Execute()
}
