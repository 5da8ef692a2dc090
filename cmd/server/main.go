package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/acollings/party-rounds-backend/internal/game"
	"github.com/acollings/party-rounds-backend/internal/httpapi"
	"github.com/acollings/party-rounds-backend/internal/hub"
	"github.com/acollings/party-rounds-backend/internal/room"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	h := hub.New(ctx, room.DefaultConfig(), game.DefaultRegistry(), logger)

	handler := httpapi.SetupRoutes(h, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("listening", zap.String("addr", ":"+port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
