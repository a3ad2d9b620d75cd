package main

import (
	"github.com/joho/godotenv"

	"shopora-backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	Run()
}
