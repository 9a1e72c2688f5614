package infra

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldworks/artifact-capture/config"
	"github.com/fieldworks/artifact-capture/entity"
)

type DatabaseClient struct {
	DB *gorm.DB
}

// InitDatabaseClient opens the record store: embedded sqlite by default,
// postgres when configured. The dynamic per-object-type tables are created by
// the repository's migrator; AutoMigrate here covers only the fixed entities.
func InitDatabaseClient(cfg *config.EnvConfig) *DatabaseClient {
	var (
		db  *gorm.DB
		err error
	)

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Environment.Mode == "development" {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	switch cfg.Database.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.Database.Host, cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Name, cfg.Database.Port)
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		if dir := filepath.Dir(cfg.Database.Path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				log.Fatalf("Failed to create database directory: %v", mkErr)
			}
		}
		db, err = gorm.Open(sqlite.Open(cfg.Database.Path), gormCfg)
	default:
		log.Fatalf("Unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	if err := db.AutoMigrate(&entity.MirrorJob{}); err != nil {
		log.Fatalf("Failed to migrate mirror jobs: %v", err)
	}

	log.Printf("Connected to %s database", cfg.Database.Driver)
	return &DatabaseClient{DB: db}
}
