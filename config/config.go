// Package config loads the process configuration once at startup. The
// resulting struct is passed explicitly to every component; there is no
// ambient global lookup.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every tunable the process reads at startup.
type Config struct {
	// Provider selects the generation backend: "openai" or "anthropic".
	Provider string `mapstructure:"provider"`

	// ModelName is the provider-specific model identifier.
	ModelName string `mapstructure:"model_name"`

	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	TavilyAPIKey    string `mapstructure:"tavily_api_key"`

	// ThrottleEvery and MinFragmentLen tune partial-record throttling.
	ThrottleEvery  int `mapstructure:"throttle_every"`
	MinFragmentLen int `mapstructure:"min_fragment_len"`

	// CacheCapacity bounds the session hot tier.
	CacheCapacity int `mapstructure:"cache_capacity"`

	// StorePath is the durable session database directory; empty disables
	// the durable tier.
	StorePath string `mapstructure:"store_path"`

	// ListenAddr is the WebSocket server bind address.
	ListenAddr string `mapstructure:"listen_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Provider:       "openai",
		ModelName:      "gpt-4o-mini",
		ThrottleEvery:  3,
		MinFragmentLen: 5,
		CacheCapacity:  1000,
		ListenAddr:     ":8080",
		LogLevel:       "info",
	}
}

// Load reads configuration from an optional file and TRIPMESH_* environment
// variables, layered over the defaults. When file is empty, tripmesh.yaml is
// searched in the working directory.
func Load(file string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("provider", def.Provider)
	v.SetDefault("model_name", def.ModelName)
	v.SetDefault("throttle_every", def.ThrottleEvery)
	v.SetDefault("min_fragment_len", def.MinFragmentLen)
	v.SetDefault("cache_capacity", def.CacheCapacity)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("TRIPMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("tripmesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// A missing default file is fine; env and defaults apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot run with.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.ModelName == "" {
		return fmt.Errorf("model_name must be set")
	}
	if c.ThrottleEvery < 1 {
		return fmt.Errorf("throttle_every must be at least 1")
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be at least 1")
	}
	return nil
}
