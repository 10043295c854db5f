package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/catalog-backend/internal/data/db"
	"github.com/yungbote/catalog-backend/internal/observability"
	"github.com/yungbote/catalog-backend/internal/platform/blob"
	"github.com/yungbote/catalog-backend/internal/realtime"
	"github.com/yungbote/catalog-backend/internal/realtime/bus"
)

type Config struct {
	HTTPAddr    string
	LogMode     string
	CORSOrigins []string

	DB db.Config

	CacheTTL           time.Duration
	BroadcastQueueSize int
	BroadcastWorkers   int
	SubscriberBuffer   int

	Redis bus.RedisConfig
	Blob  blob.Config

	SeedFile string
	Otel     observability.OtelConfig
}

// SetDefaults registers every key with its default so AutomaticEnv can
// resolve it and Unmarshal sees it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_mode", "development")
	v.SetDefault("cors_origins", "")

	v.SetDefault("db_driver", db.DriverPostgres)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "postgres")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_name", "catalog")
	v.SetDefault("postgres_sslmode", "disable")
	v.SetDefault("sqlite_path", "catalog.db")
	v.SetDefault("db_slow_threshold", time.Second)

	v.SetDefault("cache_ttl", time.Duration(0))
	v.SetDefault("broadcast_queue_size", realtime.DefaultQueueSize)
	v.SetDefault("broadcast_workers", realtime.DefaultWorkers)
	v.SetDefault("subscriber_buffer", realtime.DefaultOutboundBuffer)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_channel", bus.DefaultChannel)

	v.SetDefault("blob_mode", string(blob.ModeLocal))
	v.SetDefault("blob_root", blob.DefaultRoot)
	v.SetDefault("blob_gcs_bucket", "")
	v.SetDefault("storage_emulator_host", "")
	v.SetDefault("blob_delete_on_start", false)

	v.SetDefault("seed_file", "")

	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_service_name", "catalog")
	v.SetDefault("otel_environment", "development")
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_insecure", false)
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_sampler_ratio", 0.1)
}

// NewViper returns a viper instance reading env vars (HTTP_ADDR, DB_DRIVER,
// ...) and, when path is set, a YAML config file with the same keys in lower case.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr:    v.GetString("http_addr"),
		LogMode:     v.GetString("log_mode"),
		CORSOrigins: splitList(v.GetString("cors_origins")),
		DB: db.Config{
			Driver:           v.GetString("db_driver"),
			PostgresHost:     v.GetString("postgres_host"),
			PostgresPort:     v.GetString("postgres_port"),
			PostgresUser:     v.GetString("postgres_user"),
			PostgresPassword: v.GetString("postgres_password"),
			PostgresName:     v.GetString("postgres_name"),
			PostgresSSLMode:  v.GetString("postgres_sslmode"),
			SQLitePath:       v.GetString("sqlite_path"),
			SlowThreshold:    v.GetDuration("db_slow_threshold"),
		},
		CacheTTL:           v.GetDuration("cache_ttl"),
		BroadcastQueueSize: v.GetInt("broadcast_queue_size"),
		BroadcastWorkers:   v.GetInt("broadcast_workers"),
		SubscriberBuffer:   v.GetInt("subscriber_buffer"),
		Redis: bus.RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			Channel:  v.GetString("redis_channel"),
		},
		Blob: blob.Config{
			Mode:          blob.Mode(strings.ToLower(v.GetString("blob_mode"))),
			Root:          v.GetString("blob_root"),
			Bucket:        v.GetString("blob_gcs_bucket"),
			EmulatorHost:  v.GetString("storage_emulator_host"),
			DeleteOnStart: v.GetBool("blob_delete_on_start"),
		},
		SeedFile: v.GetString("seed_file"),
		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("otel_enabled"),
			ServiceName: v.GetString("otel_service_name"),
			Environment: v.GetString("otel_environment"),
			Endpoint:    v.GetString("otel_exporter_otlp_endpoint"),
			Insecure:    v.GetBool("otel_exporter_otlp_insecure"),
			Headers:     observability.ParseHeaders(v.GetString("otel_exporter_otlp_headers")),
			SampleRatio: v.GetFloat64("otel_sampler_ratio"),
		},
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	switch strings.ToLower(c.DB.Driver) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("invalid DB_DRIVER=%q (allowed: %q, %q)", c.DB.Driver, db.DriverPostgres, db.DriverSQLite)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	if c.BroadcastQueueSize <= 0 || c.BroadcastWorkers <= 0 || c.SubscriberBuffer <= 0 {
		return fmt.Errorf("BROADCAST_QUEUE_SIZE, BROADCAST_WORKERS and SUBSCRIBER_BUFFER must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
