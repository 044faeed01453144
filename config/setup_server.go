package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddr            = ":8080"
	defaultBasePath              = "documents"
	defaultUploadURLTTLSeconds   = 900
	defaultDownloadURLTTLSeconds = 300
	defaultCacheSeconds          = 300
	defaultReconcileInterval     = 60
	defaultReconcileBatchSize    = 50
	defaultDeletesPerSecond      = 5
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig   `yaml:"databaseConfig"`
	RedisConfig    RedisConfig      `yaml:"redisConfig"`
	ServerAddr     string           `yaml:"serverAddr"`
	S3Config       S3Config         `yaml:"s3Config"`
	JWT            JWTConfig        `yaml:"jwt"`
	Admin          AdminConfig      `yaml:"admin"`
	TTL            TTL              `yaml:"TTL"`
	Reconciler     ReconcilerConfig `yaml:"reconciler"`
	Logging        LoggingConfig    `yaml:"logging"`
}

// LoadConfig : reads the yaml file, applies DOCS_* environment overrides and defaults.
// A missing file is not an error when the environment provides everything.
func LoadConfig(path string) (*AppConfig, error) {
	var cfg AppConfig

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) error {
	setString := func(key string, target *string) {
		if v, ok := lookup(key); ok {
			*target = v
		}
	}
	setInt := func(key string, target *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*target = n
		return nil
	}

	setString("DOCS_SERVER_ADDR", &c.ServerAddr)
	setString("DOCS_DATABASE_DSN", &c.DatabaseConfig.DSN)
	setString("DOCS_REDIS_ADDR", &c.RedisConfig.Addr)
	setString("DOCS_REDIS_PASSWORD", &c.RedisConfig.Password)
	setString("DOCS_S3_BUCKET", &c.S3Config.Bucket)
	setString("DOCS_S3_BASE_PATH", &c.S3Config.BasePath)
	setString("DOCS_S3_REGION", &c.S3Config.Region)
	setString("DOCS_S3_ENDPOINT", &c.S3Config.Endpoint)
	setString("DOCS_S3_ACCESS_KEY", &c.S3Config.AccessKey)
	setString("DOCS_S3_SECRET_KEY", &c.S3Config.SecretKey)
	setString("DOCS_JWT_SECRET", &c.JWT.SecretKey)
	setString("DOCS_ADMIN_TOKEN_HASH", &c.Admin.AdminTokenHash)
	setString("DOCS_LOG_LEVEL", &c.Logging.Level)
	setString("DOCS_LOG_FORMAT", &c.Logging.Format)

	if err := setInt("DOCS_UPLOAD_URL_TTL_SECONDS", &c.S3Config.UploadURLTTLSeconds); err != nil {
		return err
	}
	if err := setInt("DOCS_DOWNLOAD_URL_TTL_SECONDS", &c.S3Config.DownloadURLTTLSeconds); err != nil {
		return err
	}
	if err := setInt("DOCS_REDIS_DB", &c.RedisConfig.DB); err != nil {
		return err
	}
	return nil
}

func (c *AppConfig) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = defaultServerAddr
	}
	if strings.Trim(c.S3Config.BasePath, "/ ") == "" {
		c.S3Config.BasePath = defaultBasePath
	}
	c.S3Config.BasePath = strings.Trim(strings.TrimSpace(c.S3Config.BasePath), "/")
	if c.S3Config.UploadURLTTLSeconds <= 0 {
		c.S3Config.UploadURLTTLSeconds = defaultUploadURLTTLSeconds
	}
	if c.S3Config.DownloadURLTTLSeconds <= 0 {
		c.S3Config.DownloadURLTTLSeconds = defaultDownloadURLTTLSeconds
	}
	if c.TTL.CacheSeconds <= 0 {
		c.TTL.CacheSeconds = defaultCacheSeconds
	}
	if c.Reconciler.IntervalSeconds <= 0 {
		c.Reconciler.IntervalSeconds = defaultReconcileInterval
	}
	if c.Reconciler.BatchSize <= 0 {
		c.Reconciler.BatchSize = defaultReconcileBatchSize
	}
	if c.Reconciler.DeletesPerSecond <= 0 {
		c.Reconciler.DeletesPerSecond = defaultDeletesPerSecond
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate : checks the settings the process cannot start without
func (c *AppConfig) Validate() error {
	var missing []string
	if c.DatabaseConfig.DSN == "" {
		missing = append(missing, "databaseConfig.dsn")
	}
	if c.S3Config.Bucket == "" {
		missing = append(missing, "s3Config.bucket")
	}
	if c.JWT.SecretKey == "" {
		missing = append(missing, "jwt.secret_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Ingestion : settings for the ingestion service, resolved once at startup
func (c *AppConfig) Ingestion() IngestionConfig {
	return IngestionConfig{
		Bucket:         c.S3Config.Bucket,
		BasePath:       c.S3Config.BasePath,
		UploadURLTTL:   time.Duration(c.S3Config.UploadURLTTLSeconds) * time.Second,
		DownloadURLTTL: time.Duration(c.S3Config.DownloadURLTTLSeconds) * time.Second,
	}
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupDatabase(cfg *DatabaseConfig) (*Database, error) {
	return NewDatabaseConnection("postgres", cfg)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
