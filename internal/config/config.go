package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "NOTESX"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultDatabasePath      = "notesx.db"
	defaultLogLevel          = "info"
	defaultKeepaliveSeconds  = 30
	defaultAllowedOriginsCSV = "*"
)

// AppConfig captures runtime configuration for the annotations API server.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	LogLevel          string
	KeepaliveInterval time.Duration
	AllowedOrigins    []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper
// instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("stream.keepalive_seconds", defaultKeepaliveSeconds)
	configViper.SetDefault("http.allowed_origins", defaultAllowedOriginsCSV)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		LogLevel:          configViper.GetString("log.level"),
		KeepaliveInterval: time.Duration(configViper.GetInt("stream.keepalive_seconds")) * time.Second,
		AllowedOrigins:    splitOrigins(configViper.GetString("http.allowed_origins")),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func splitOrigins(csv string) []string {
	var origins []string
	for _, origin := range strings.Split(csv, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.KeepaliveInterval <= 0 {
		return fmt.Errorf("stream.keepalive_seconds must be positive")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("http.allowed_origins is required")
	}
	return nil
}
