package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fieldworks/artifact-capture/config"
	"github.com/fieldworks/artifact-capture/consumer/worker"
	infraPkg "github.com/fieldworks/artifact-capture/infra"
	"github.com/fieldworks/artifact-capture/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	if infra.RabbitMQ == nil {
		log.Fatal("RabbitMQ is not configured; the mirror consumer has nothing to consume")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirrorConsumer := worker.NewMirrorConsumer(infra.RabbitMQ.Channel, infra, repo, cfg.EnvConfig.Capture.UploadDir)
	if err := mirrorConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start mirror consumer: %v", err)
		log.Fatalf("Failed to start mirror consumer: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}
