package infra

import (
	"log"

	"github.com/fieldworks/artifact-capture/config"
	"github.com/fieldworks/artifact-capture/infra/produce"
)

type Infra struct {
	Database  *DatabaseClient
	Logger    *LoggerClient
	Telemetry *TelemetryClient
	Sessions  SessionStore
	Redis     *RedisClient
	RabbitMQ  *RabbitMQClient
	Produce   *produce.Produce
	Minio     *MinioClient
}

var infraInstance *Infra

// InitInfra wires the backing services. The database and logger are hard
// requirements; Redis, RabbitMQ and MinIO are optional and degrade to local
// fallbacks (in-memory sessions, no mirroring) when absent.
func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	database := InitDatabaseClient(cfg.EnvConfig)
	if database == nil {
		panic("Failed to initialize database")
	}

	logger := InitLoggerClient(cfg.EnvConfig)
	if logger == nil {
		panic("Failed to initialize logger")
	}

	telemetry := InitTelemetryClient(cfg.EnvConfig)

	var redis *RedisClient
	var sessions SessionStore
	if cfg.EnvConfig.Redis.Host != "" {
		redis = InitRedisClient(cfg.EnvConfig)
		sessions = NewRedisSessionStore(redis)
	} else {
		log.Println("Redis not configured, using in-memory session store")
		sessions = NewMemorySessionStore()
	}

	var rabbitMQ *RabbitMQClient
	var produceService *produce.Produce
	if cfg.EnvConfig.RabbitMQ.Host != "" {
		var err error
		rabbitMQ, err = NewRabbitMQClient(cfg.EnvConfig)
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable: %v (mirroring disabled)", err)
		} else {
			produceService = produce.InitProduce(rabbitMQ.Channel)
		}
	}

	var minio *MinioClient
	if cfg.EnvConfig.Minio.Endpoint != "" {
		var err error
		minio, err = NewMinioClient(cfg.EnvConfig)
		if err != nil {
			log.Printf("Warning: MinIO unavailable: %v (mirroring disabled)", err)
		}
	}

	infraInstance = &Infra{
		Database:  database,
		Logger:    logger,
		Telemetry: telemetry,
		Sessions:  sessions,
		Redis:     redis,
		RabbitMQ:  rabbitMQ,
		Produce:   produceService,
		Minio:     minio,
	}

	return infraInstance
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
