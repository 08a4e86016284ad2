// Package config loads the application configuration from config.yaml and
// RISKMAP_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Kakao   KakaoConfig   `yaml:"kakao" mapstructure:"kakao"`
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Parcels ParcelsConfig `yaml:"parcels" mapstructure:"parcels"`
	CRS     CRSConfig     `yaml:"crs" mapstructure:"crs"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// KakaoConfig holds the Kakao REST API credentials and client limits. The
// key is a secret and only ever arrives through config or environment.
type KakaoConfig struct {
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// DatasetConfig locates the risk-district CSV.
type DatasetConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
}

// ParcelsConfig lists the per-category parcel sources in draw order.
type ParcelsConfig struct {
	Sources []ParcelSource `yaml:"sources" mapstructure:"sources"`
}

// ParcelSource is one parcel file plus the fill color of its category.
type ParcelSource struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Color string `yaml:"color" mapstructure:"color"`
}

// CRSConfig names the projected and geographic reference systems.
type CRSConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
	Target string `yaml:"target" mapstructure:"target"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// StoreConfig configures the optional pass-history store. An empty path
// disables it.
type StoreConfig struct {
	Path           string `yaml:"path" mapstructure:"path"`
	GeocodeTTLDays int    `yaml:"geocode_ttl_days" mapstructure:"geocode_ttl_days"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RISKMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every env-overridable key needs an entry here: viper only
	// surfaces AutomaticEnv values during Unmarshal for keys it already knows.
	v.SetDefault("kakao.api_key", "")
	v.SetDefault("kakao.base_url", "https://dapi.kakao.com/v2/local/search/address.json")
	v.SetDefault("kakao.timeout_secs", 10)
	v.SetDefault("kakao.rate_limit_rps", 10)
	v.SetDefault("dataset.path", "./data/crisis_address.csv")
	v.SetDefault("dataset.encoding", "utf-8")
	v.SetDefault("crs.source", "EPSG:5179")
	v.SetDefault("crs.target", "EPSG:4326")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "")
	v.SetDefault("store.geocode_ttl_days", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
