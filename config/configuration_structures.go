package config

import "time"

type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// S3Config : object storage connection and signing settings
type S3Config struct {
	Bucket                string `yaml:"bucket"`
	BasePath              string `yaml:"base_path"`
	Region                string `yaml:"region"`
	Endpoint              string `yaml:"endpoint"`
	AccessKey             string `yaml:"access_key"`
	SecretKey             string `yaml:"secret_key"`
	Local                 bool   `yaml:"local"`
	UploadURLTTLSeconds   int    `yaml:"upload_url_ttl_seconds"`
	DownloadURLTTLSeconds int    `yaml:"download_url_ttl_seconds"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`
	Issuer    string `yaml:"issuer"`
}

// AdminConfig : AdminTokenHash is a bcrypt hash of the static administrator bearer token
type AdminConfig struct {
	AdminTokenHash string `yaml:"admin_token_hash"`
}

type TTL struct {
	CacheSeconds int `yaml:"cache_seconds"`
}

type ReconcilerConfig struct {
	Enabled          bool    `yaml:"enabled"`
	IntervalSeconds  int     `yaml:"interval_seconds"`
	BatchSize        int     `yaml:"batch_size"`
	DeletesPerSecond float64 `yaml:"deletes_per_second"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// IngestionConfig : immutable settings handed to the ingestion service at startup
type IngestionConfig struct {
	Bucket         string
	BasePath       string
	UploadURLTTL   time.Duration
	DownloadURLTTL time.Duration
}
