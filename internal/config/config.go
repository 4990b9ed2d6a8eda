// Package config loads application configuration and sets up logging.
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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
	CSV      CSVConfig      `yaml:"csv" mapstructure:"csv"`
	Groups   GroupsConfig   `yaml:"groups" mapstructure:"groups"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Email    EmailConfig    `yaml:"email" mapstructure:"email"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// MatchingConfig configures matrix building and result formatting defaults.
type MatchingConfig struct {
	Workers           int `yaml:"workers" mapstructure:"workers"`
	DefaultPrecision  int `yaml:"default_precision" mapstructure:"default_precision"`
	DefaultMaxResults int `yaml:"default_max_results" mapstructure:"default_max_results"`
}

// CSVConfig configures data-file parsing.
type CSVConfig struct {
	Delimiter      string `yaml:"delimiter" mapstructure:"delimiter"`
	MultiDelimiter string `yaml:"multi_delimiter" mapstructure:"multi_delimiter"`
}

// GroupsConfig points at the group configuration file.
type GroupsConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// OutputConfig configures result file generation.
type OutputConfig struct {
	Dir              string `yaml:"dir" mapstructure:"dir"`
	SeparateByGroups bool   `yaml:"separate_by_groups" mapstructure:"separate_by_groups"`
	OnExists         string `yaml:"on_exists" mapstructure:"on_exists"`
	FooterEmail      string `yaml:"footer_email" mapstructure:"footer_email"`
	FooterPDF        string `yaml:"footer_pdf" mapstructure:"footer_pdf"`
	PDFHeader        string `yaml:"pdf_header" mapstructure:"pdf_header"`
}

// EmailConfig configures result email delivery.
type EmailConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	Token         string  `yaml:"token" mapstructure:"token"`
	FromAddress   string  `yaml:"from_address" mapstructure:"from_address"`
	FromName      string  `yaml:"from_name" mapstructure:"from_name"`
	Subject       string  `yaml:"subject" mapstructure:"subject"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// ServerConfig configures the read-only HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("MATCHINGAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "matchingas.db")
	v.SetDefault("matching.workers", 0) // 0 = GOMAXPROCS
	v.SetDefault("matching.default_precision", 0)
	v.SetDefault("matching.default_max_results", 5)
	v.SetDefault("csv.delimiter", ",")
	v.SetDefault("csv.multi_delimiter", ";")
	v.SetDefault("groups.file", "groups.yaml")
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.separate_by_groups", false)
	v.SetDefault("output.on_exists", "override")
	v.SetDefault("email.base_url", "https://api.zeptomail.eu")
	v.SetDefault("email.subject", "Your matchmaking results")
	v.SetDefault("email.rate_per_second", 2)
	v.SetDefault("server.port", 8080)
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

// Validate checks the invariants commands rely on before running.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}

	if c.Matching.Workers < 0 {
		errs = append(errs, "matching.workers must be >= 0")
	}
	if c.Matching.DefaultPrecision < 0 {
		errs = append(errs, "matching.default_precision must be >= 0")
	}
	if c.Matching.DefaultMaxResults < 0 {
		errs = append(errs, "matching.default_max_results must be >= 0")
	}

	switch c.Output.OnExists {
	case "override", "skip", "ask":
	default:
		errs = append(errs, "output.on_exists must be override, skip or ask")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
