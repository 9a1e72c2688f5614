package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/fieldworks/artifact-capture/config"
	"github.com/fieldworks/artifact-capture/http/controller"
	routes "github.com/fieldworks/artifact-capture/http/route"
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

	// every declared object type gets its table upfront
	for _, otype := range cfg.Schema.Order {
		if err := repo.RecordRepo.Migrate(cfg.Schema.Types[otype]); err != nil {
			log.Fatalf("Failed to migrate table for %s: %v", otype, err)
		}
	}

	ctrl := controller.NewController(cfg, infra, repo)

	router := routes.SetupRouter(ctrl)

	log.Printf("HTTP Server started on %s", cfg.EnvConfig.ServerAddr)
	if err := router.Run(cfg.EnvConfig.ServerAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
