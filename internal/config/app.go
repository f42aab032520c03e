package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig is the process-level configuration (everything that is not
// the scoring rule table).
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Indexer IndexerConfig `mapstructure:"indexer"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// IndexerConfig configures the chain-indexer client.
type IndexerConfig struct {
	Endpoint          string `mapstructure:"endpoint"`
	TimeoutMs         int    `mapstructure:"timeout_ms"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryMaxElapsedMs int    `mapstructure:"retry_max_elapsed_ms"`
}

type RulesConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadApp reads the app config file, with GOVSCORE_* env overrides.
func LoadApp(configPath string) (*AppConfig, error) {
	v := viper.New()

	setAppDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("govscore")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GOVSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults plus env cover every key.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read app config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse app config: %w", err)
	}
	return &cfg, nil
}

func setAppDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("storage.db_path", "data/govscore.db")
	v.SetDefault("indexer.endpoint", "http://localhost:4350/graphql")
	v.SetDefault("indexer.timeout_ms", 10000)
	v.SetDefault("indexer.max_retries", 3)
	v.SetDefault("indexer.retry_max_elapsed_ms", 30000)
	v.SetDefault("rules.path", "configs/rules.yaml")
	v.SetDefault("log.level", "info")
}
