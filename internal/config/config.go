package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	// Source forum settings.
	SourceName     string `mapstructure:"SOURCE_NAME"`
	SourceBaseURL  string `mapstructure:"SOURCE_BASE_URL"`
	PageURLPattern string `mapstructure:"PAGE_URL_PATTERN"` // must contain one %d for the page number
	PageCount      int    `mapstructure:"PAGE_COUNT"`

	// Fetcher selects the page retrieval backend: "http" (colly) or
	// "browser" (rod, for listing pages that need JS rendering).
	Fetcher      string        `mapstructure:"FETCHER"`
	FetchTimeout time.Duration `mapstructure:"FETCH_TIMEOUT"`
	FetchDelay   time.Duration `mapstructure:"FETCH_DELAY"` // pause between page requests, 0 disables
	UserAgent    string        `mapstructure:"USER_AGENT"`

	// Storage paths.
	BadgerDBPath string `mapstructure:"BADGERDB_PATH"`
	CatalogPath  string `mapstructure:"CATALOG_PATH"`

	// Sync gate.
	CooldownWindow time.Duration `mapstructure:"COOLDOWN_WINDOW"`

	// Optional classifier backend. Leaving the endpoint empty selects
	// the no-op classifier.
	ClassifierEndpoint string        `mapstructure:"CLASSIFIER_ENDPOINT"`
	ClassifierAPIKey   string        `mapstructure:"CLASSIFIER_API_KEY"`
	ClassifierModel    string        `mapstructure:"CLASSIFIER_MODEL"`
	ClassifierTimeout  time.Duration `mapstructure:"CLASSIFIER_TIMEOUT"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SOURCE_NAME", "forum")
	viper.SetDefault("PAGE_COUNT", 3)
	viper.SetDefault("FETCHER", "http")
	viper.SetDefault("FETCH_TIMEOUT", 30*time.Second)
	viper.SetDefault("FETCH_DELAY", 1*time.Second)
	viper.SetDefault("USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	viper.SetDefault("BADGERDB_PATH", "./badger_data")
	viper.SetDefault("CATALOG_PATH", "./catalog")
	viper.SetDefault("COOLDOWN_WINDOW", 30*time.Minute)
	viper.SetDefault("CLASSIFIER_TIMEOUT", 20*time.Second)
	viper.SetDefault("LOG_LEVEL", "info")

	err = viper.ReadInConfig()
	if err != nil {
		// A missing config file is fine as long as env vars cover the
		// required values; any other read error is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if config.SourceBaseURL == "" {
		return Config{}, fmt.Errorf("SOURCE_BASE_URL is not set")
	}
	if config.PageURLPattern == "" {
		config.PageURLPattern = config.SourceBaseURL + "?page=%d"
	}
	if !strings.Contains(config.PageURLPattern, "%d") {
		return Config{}, fmt.Errorf("PAGE_URL_PATTERN must contain a %%d page placeholder")
	}
	if config.Fetcher != "http" && config.Fetcher != "browser" {
		return Config{}, fmt.Errorf("FETCHER must be \"http\" or \"browser\", got %q", config.Fetcher)
	}
	if config.PageCount < 1 {
		return Config{}, fmt.Errorf("PAGE_COUNT must be at least 1")
	}

	return config, nil
}
