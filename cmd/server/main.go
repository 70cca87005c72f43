package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/syedak1/dispatch-ai/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	application := app.NewApp()
	defer application.Shutdown()

	if err := application.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
