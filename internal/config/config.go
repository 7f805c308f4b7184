package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Source         string
	GatewayURL     string
	ContractPath   string
	RPCURL         string
	PoolRegistry   string
	TickWordRadius int
	PGDSN          string
	Out            string
	Port           int
	MaxRetries     int
	RetryBackoff   time.Duration
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUOTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", "gateway")
	v.SetDefault("contract-path", "/api/asset/dexv3-contract")
	v.SetDefault("tick-word-radius", 5)
	v.SetDefault("port", 8080)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Source:         v.GetString("source"),
		GatewayURL:     v.GetString("gateway-url"),
		ContractPath:   v.GetString("contract-path"),
		RPCURL:         v.GetString("rpc"),
		PoolRegistry:   v.GetString("pool-registry"),
		TickWordRadius: v.GetInt("tick-word-radius"),
		PGDSN:          v.GetString("pg-dsn"),
		Out:            v.GetString("out"),
		Port:           v.GetInt("port"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}
