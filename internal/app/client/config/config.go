package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvQuiet selects info-level JSON logs regardless of APP_ENV.
const EnvQuiet = "prod"

const (
	defaultServerAddress = "localhost:8080"
	defaultEnv           = "local"
	defaultDataDir       = ".fieldinspect"
)

type Config struct {
	Env           string
	ServerAddress string
	EnableTLS     bool
	APIToken      string
	DataPath      string
	LogFile       string
	Sync          Sync
	Minio         Minio
}

type Sync struct {
	Interval       time.Duration
	MinInterval    time.Duration
	Parallelism    int
	PushTimeout    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled reports whether report upload is configured.
func (m Minio) Enabled() bool {
	return m.Endpoint != "" && m.Bucket != ""
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("server_address", defaultServerAddress)
	v.SetDefault("enable_tls", false)
	v.SetDefault("data_path", filepath.Join(home, defaultDataDir, "records.db"))
	v.SetDefault("sync_interval_seconds", 60)
	v.SetDefault("sync_min_interval_ms", 2000)
	v.SetDefault("sync_parallelism", 4)
	v.SetDefault("push_timeout_seconds", 30)
	v.SetDefault("sync_initial_backoff_seconds", 5)
	v.SetDefault("sync_max_backoff_seconds", 600)
	v.SetDefault("minio_bucket", "inspection-reports")
	v.SetDefault("minio_use_ssl", true)
}

// Load reads .env (if present), an optional YAML file and the process environment.
// Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.AutomaticEnv()
	setDefaults(v, home)

	cfg := &Config{
		Env:           v.GetString("app_env"),
		ServerAddress: v.GetString("server_address"),
		EnableTLS:     v.GetBool("enable_tls"),
		APIToken:      v.GetString("api_token"),
		DataPath:      v.GetString("data_path"),
		LogFile:       v.GetString("log_file"),
		Sync: Sync{
			Interval:       time.Duration(v.GetInt("sync_interval_seconds")) * time.Second,
			MinInterval:    time.Duration(v.GetInt("sync_min_interval_ms")) * time.Millisecond,
			Parallelism:    v.GetInt("sync_parallelism"),
			PushTimeout:    time.Duration(v.GetInt("push_timeout_seconds")) * time.Second,
			InitialBackoff: time.Duration(v.GetInt("sync_initial_backoff_seconds")) * time.Second,
			MaxBackoff:     time.Duration(v.GetInt("sync_max_backoff_seconds")) * time.Second,
		},
		Minio: Minio{
			Endpoint:  v.GetString("minio_endpoint"),
			AccessKey: v.GetString("minio_access_key"),
			SecretKey: v.GetString("minio_secret_key"),
			Bucket:    v.GetString("minio_bucket"),
			Region:    v.GetString("minio_region"),
			UseSSL:    v.GetBool("minio_use_ssl"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return errors.New("server_address must not be empty")
	}
	if c.DataPath == "" {
		return errors.New("data_path must not be empty")
	}
	if c.Sync.Parallelism < 1 {
		return fmt.Errorf("sync_parallelism must be >= 1, got %d", c.Sync.Parallelism)
	}
	return nil
}

// BaseURL is the authority root derived from ServerAddress and EnableTLS.
func (c *Config) BaseURL() string {
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + c.ServerAddress
}
