package config

import (
	"os"
	"strconv"
	"strings"
)

type EnvConfig struct {
	Database struct {
		Driver   string // "sqlite" (default) or "postgres"
		Path     string // sqlite file path
		Host     string
		Name     string
		Username string
		Password string
		Port     string
	}
	Capture struct {
		UploadDir   string
		MaxDim      int
		ThumbDim    int
		JpegQuality int
		WebpQuality int
		GPSEnabled  bool
		GPSRequired bool
		SchemaPath  string
	}
	Admin struct {
		Username string
		Password string
	}
	JWT struct {
		SecretKey string
		Expire    int
	}
	CORS struct {
		AllowDomains string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		Database int
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Minio struct {
		Endpoint     string
		RootUser     string
		RootPassword string
		MirrorBucket string
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode string
	}
	ServerAddr string
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Database: embedded sqlite unless a postgres host is configured
	config.Database.Driver = os.Getenv("ARTCAP_DB_DRIVER")
	config.Database.Host = os.Getenv("PGPOOL_HOST")
	config.Database.Name = os.Getenv("PGPOOL_DB")
	config.Database.Username = os.Getenv("PGPOOL_USER")
	config.Database.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Database.Port = os.Getenv("PGPOOL_PORT")
	if config.Database.Driver == "" {
		if config.Database.Host != "" {
			config.Database.Driver = "postgres"
		} else {
			config.Database.Driver = "sqlite"
		}
	}
	config.Database.Path = os.Getenv("ARTCAP_DB_PATH")
	if config.Database.Path == "" {
		config.Database.Path = "data/artifacts.db"
	}

	// Capture pipeline
	config.Capture.UploadDir = os.Getenv("ARTCAP_UPLOAD_DIR")
	if config.Capture.UploadDir == "" {
		config.Capture.UploadDir = "uploads"
	}
	config.Capture.MaxDim = envInt("ARTCAP_MAX_DIM", 3000)
	config.Capture.ThumbDim = envInt("ARTCAP_THUMB_DIM", 400)
	config.Capture.JpegQuality = envInt("ARTCAP_JPEG_QUALITY", 92)
	config.Capture.WebpQuality = envInt("ARTCAP_WEBP_QUALITY", 85)
	config.Capture.GPSEnabled = envBool("ARTCAP_GPS_ENABLED", false)
	config.Capture.GPSRequired = envBool("ARTCAP_GPS_REQUIRED", false)
	if config.Capture.GPSRequired {
		// requiring a fix implies the client is asked to capture one
		config.Capture.GPSEnabled = true
	}
	config.Capture.SchemaPath = os.Getenv("ARTCAP_SCHEMA_CONFIG")
	if config.Capture.SchemaPath == "" {
		config.Capture.SchemaPath = "configs/object-types.yaml"
	}

	// Admin auth
	config.Admin.Username = os.Getenv("ARTCAP_ADMIN_USER")
	if config.Admin.Username == "" {
		config.Admin.Username = "admin"
	}
	config.Admin.Password = os.Getenv("ARTCAP_ADMIN_PASS")

	// JWT
	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	if val := os.Getenv("JWT_EXPIRE"); val != "" {
		config.JWT.Expire, _ = strconv.Atoi(val)
	}
	if config.JWT.Expire == 0 {
		config.JWT.Expire = 3600 * 24 * 7
	}

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")

	// Redis (optional: session pointers fall back to process memory)
	config.Redis.Host = os.Getenv("REDIS_HOST")
	config.Redis.Port = os.Getenv("REDIS_PORT")
	if config.Redis.Port == "" {
		config.Redis.Port = "6379"
	}
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	// RabbitMQ (optional: mirror publishing is skipped when unset)
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	config.RabbitMQ.Port = os.Getenv("RABBITMQ_PORT")
	if config.RabbitMQ.Port == "" {
		config.RabbitMQ.Port = "5672"
	}
	config.RabbitMQ.Username = os.Getenv("RABBITMQ_USER")
	if config.RabbitMQ.Username == "" {
		config.RabbitMQ.Username = "guest"
	}
	config.RabbitMQ.Password = os.Getenv("RABBITMQ_PASSWORD")
	if config.RabbitMQ.Password == "" {
		config.RabbitMQ.Password = "guest"
	}

	// MinIO mirror target (optional)
	config.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
	config.Minio.RootUser = os.Getenv("MINIO_ROOT_USER")
	config.Minio.RootPassword = os.Getenv("MINIO_ROOT_PASSWORD")
	config.Minio.MirrorBucket = os.Getenv("MINIO_MIRROR_BUCKET")
	if config.Minio.MirrorBucket == "" {
		config.Minio.MirrorBucket = "artifact-capture-mirror"
	}

	// Grafana/OpenTelemetry
	grafanaEndpoint := os.Getenv("GRAFANA_OTLP_ENDPOINT")
	if strings.HasPrefix(grafanaEndpoint, "https://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "https://")
	} else if strings.HasPrefix(grafanaEndpoint, "http://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "http://")
	} else {
		config.Grafana.OTLPEndpoint = grafanaEndpoint
	}
	config.Grafana.ServiceName = os.Getenv("SERVICE_NAME")
	if config.Grafana.ServiceName == "" {
		config.Grafana.ServiceName = "artifact-capture-service"
	}

	config.Environment.Mode = os.Getenv("DEPLOY_ENV")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}

	config.ServerAddr = os.Getenv("ARTCAP_LISTEN_ADDR")
	if config.ServerAddr == "" {
		config.ServerAddr = ":8080"
	}

	return &config
}

func envInt(name string, def int) int {
	if val := os.Getenv(name); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func envBool(name string, def bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if raw == "" {
		return def
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
