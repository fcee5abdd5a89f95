// Package config loads ade-events configuration from a YAML file, the environment
// and command line flags.
//
// Environment variables use the ADE_ prefix with dots replaced by underscores, so
// store.bucket is read from ADE_STORE_BUCKET. Object store credentials are only ever
// supplied this way (ADE_STORE_ACCESS_KEY, ADE_STORE_SECRET_KEY) or through a .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Validation errors
var (
	ErrInvalidBackend = errors.New("store.backend must be fs or s3")
	ErrMissingBucket  = errors.New("store.bucket is required for the s3 backend")
	ErrMissingDataset = errors.New("dataset name and stage prefixes are required")
	ErrInvalidFetcher = errors.New("harvest.fetcher must be http or browser")
	ErrInvalidOnError = errors.New("harvest.on_error must be abort or skip")
	ErrMissingIndex   = errors.New("harvest.index_url must contain {year}")
)

// Store backends
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Fetcher kinds
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Failure policies for detail pages
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// YearPlaceholder is replaced by the edition year in harvest.index_url.
const YearPlaceholder = "{year}"

// Config is the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StoreConfig selects and configures the blob store.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	// DataDir is the root of the fs backend
	DataDir      string `mapstructure:"data_dir"`
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	CreateBucket bool   `mapstructure:"create_bucket"`
}

// DatasetConfig names the key prefixes shared by both stages.
type DatasetConfig struct {
	Name       string `mapstructure:"name"`
	RawStage   string `mapstructure:"raw_stage"`
	CleanStage string `mapstructure:"clean_stage"`
}

// HarvestConfig configures the scraper.
type HarvestConfig struct {
	IndexURL        string        `mapstructure:"index_url"`
	BaseURL         string        `mapstructure:"base_url"`
	DetailPrefix    string        `mapstructure:"detail_prefix"`
	Fetcher         string        `mapstructure:"fetcher"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ConsentSelector string        `mapstructure:"consent_selector"`
	ConsentTimeout  time.Duration `mapstructure:"consent_timeout"`
	OnError         string        `mapstructure:"on_error"`
}

// NormalizeConfig configures the normalizer.
type NormalizeConfig struct {
	// Exclusions are event names dropped before any other cleaning
	Exclusions []string `mapstructure:"exclusions"`
}

// MetricsConfig configures the metrics textfile.
type MetricsConfig struct {
	// Textfile is a node_exporter textfile path; empty disables the export
	Textfile string `mapstructure:"textfile"`
}

// setDefaults registers every key so environment overrides apply to all of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("store.backend", BackendFS)
	v.SetDefault("store.data_dir", "~/.local/share/ade-events")
	v.SetDefault("store.endpoint", "s3.amazonaws.com")
	v.SetDefault("store.region", "eu-north-1")
	v.SetDefault("store.bucket", "ade-data-bucket")
	v.SetDefault("store.access_key", "")
	v.SetDefault("store.secret_key", "")
	v.SetDefault("store.use_ssl", true)
	v.SetDefault("store.create_bucket", false)

	v.SetDefault("dataset.name", "ade_event_data")
	v.SetDefault("dataset.raw_stage", "ade_event_data_raw")
	v.SetDefault("dataset.clean_stage", "ade_event_data_clean")

	v.SetDefault("harvest.index_url", "https://www.djguide.nl/events.p/ade/{year}?language=en")
	v.SetDefault("harvest.base_url", "https://www.djguide.nl")
	v.SetDefault("harvest.detail_prefix", "/party.p")
	v.SetDefault("harvest.fetcher", FetcherHTTP)
	v.SetDefault("harvest.user_agent", "ade-events/1.0")
	v.SetDefault("harvest.timeout", 30*time.Second)
	v.SetDefault("harvest.consent_selector", ".fc-button.fc-cta-consent.fc-primary-button")
	v.SetDefault("harvest.consent_timeout", 5*time.Second)
	v.SetDefault("harvest.on_error", OnErrorAbort)

	v.SetDefault("normalize.exclusions", []string{"amsterdam dance event", "amsterdam dance events"})

	v.SetDefault("metrics.textfile", "")
}

// Load reads configuration from path (optional), .env, ADE_* variables and the
// given flags. flags maps config keys to command line flags that override them.
func Load(path string, flags map[string]*pflag.Flag) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("ade-events")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ade-events")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flag.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFS:
	case BackendS3:
		if c.Store.Bucket == "" {
			return ErrMissingBucket
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Store.Backend)
	}

	if c.Dataset.Name == "" || c.Dataset.RawStage == "" || c.Dataset.CleanStage == "" {
		return ErrMissingDataset
	}

	switch c.Harvest.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFetcher, c.Harvest.Fetcher)
	}

	switch c.Harvest.OnError {
	case OnErrorAbort, OnErrorSkip:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOnError, c.Harvest.OnError)
	}

	if !strings.Contains(c.Harvest.IndexURL, YearPlaceholder) {
		return ErrMissingIndex
	}

	return nil
}
