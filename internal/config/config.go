// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig locates the external address datasets.
type SourcesConfig struct {
	BANURLPattern      string `yaml:"ban_url_pattern" mapstructure:"ban_url_pattern"`
	RecoveryURLPattern string `yaml:"recovery_url_pattern" mapstructure:"recovery_url_pattern"`
	CommunesURL        string `yaml:"communes_url" mapstructure:"communes_url"`
	ArrondissementsURL string `yaml:"arrondissements_url" mapstructure:"arrondissements_url"`
}

// HTTPConfig configures the outbound fetcher.
type HTTPConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the fetch timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ExtractConfig configures multi-commune extraction.
type ExtractConfig struct {
	MaxConcurrentCommunes int `yaml:"max_concurrent_communes" mapstructure:"max_concurrent_communes"`
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
	v.SetEnvPrefix("BAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.ban_url_pattern", "https://adresse.data.gouv.fr/data/ban/adresses/latest/csv/adresses-<codeDepartement>.csv.gz")
	v.SetDefault("sources.recovery_url_pattern", "https://adresse.data.gouv.fr/data/sbg-recovery/<codeCommune>.csv")
	v.SetDefault("sources.communes_url", "http://etalab-datasets.geo.data.gouv.fr/contours-administratifs/latest/geojson/communes-100m.geojson")
	v.SetDefault("sources.arrondissements_url", "http://etalab-datasets.geo.data.gouv.fr/contours-administratifs/latest/geojson/arrondissements-municipaux-100m.geojson")
	v.SetDefault("http.timeout_secs", 120)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.user_agent", "bal-pipeline/1.0")
	v.SetDefault("extract.max_concurrent_communes", 4)
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
