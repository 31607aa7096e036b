package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// configName is the config file name without extension.
	configName = ".paracord"
	configType = "yaml"

	// envPrefix is the environment variable prefix, e.g. PARACORD_SERVER_PORT.
	envPrefix       = "PARACORD"
	envKeySeparator = "_"
)

// LoadConfig loads configuration from file, env vars and defaults.
// A non-empty configPath names the file explicitly and must exist.
// Otherwise .paracord.yaml is searched in the working directory and $HOME,
// and a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() *Config {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}

	return &cfg
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("interner.hasher", DefaultHasher)
	viperCfg.SetDefault("interner.seed", DefaultSeed)
	viperCfg.SetDefault("interner.shards", DefaultShards)
	viperCfg.SetDefault("interner.capacity", DefaultCapacity)
	viperCfg.SetDefault("interner.arena_chunk", DefaultArenaChunk)

	viperCfg.SetDefault("server.host", DefaultHost)
	viperCfg.SetDefault("server.port", DefaultPort)
	viperCfg.SetDefault("server.read_timeout", DefaultReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	viperCfg.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	viperCfg.SetDefault("server.max_body_size", DefaultMaxBodySize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_headers", DefaultOTLPHeaders)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
}
