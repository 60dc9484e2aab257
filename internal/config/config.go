package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"nitroScope/internal/api"
	"nitroScope/internal/chain"
	"nitroScope/internal/position"
)

const envPrefix = "NITRO"

// legacyRPCEnv is honoured when neither --rpc nor NITRO_RPC is set.
const legacyRPCEnv = "NETWORK_URL"

// DefaultSpNFT is the OD-ETH spNFT contract on Arbitrum.
const DefaultSpNFT = "0x7647Da336cF43F894aC7A0bf87f04806b2E03bb8"

// Chain holds settings shared by every command that reads the chain.
type Chain struct {
	RPCURL           string
	MaxRetries       int
	RetryBackoff     time.Duration
	AlgebraPositions string
	SpNFTs           []string
	MismatchPolicy   string
	Concurrency      int
	MaxPositions     uint64
	LogLevel         string
}

// API holds Camelot REST API and cache settings.
type API struct {
	BaseURL       string
	RateLimit     float64
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

func loadViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func chainDefaults() map[string]interface{} {
	return map[string]interface{}{
		"max-retries":       3,
		"retry-backoff":     500 * time.Millisecond,
		"algebra-positions": position.DefaultAlgebraPositions,
		"spnft":             []string{DefaultSpNFT},
		"mismatch-policy":   position.MismatchSkip.String(),
		"concurrency":       8,
		"max-positions":     1000,
		"log-level":         "info",
	}
}

func apiDefaults() map[string]interface{} {
	return map[string]interface{}{
		"api-url":   api.DefaultBaseURL,
		"api-rate":  2.0,
		"redis-db":  0,
		"cache-ttl": time.Minute,
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func readChain(v *viper.Viper) Chain {
	return Chain{
		RPCURL:           resolveRPC(v.GetString("rpc")),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		AlgebraPositions: v.GetString("algebra-positions"),
		SpNFTs:           getStringSlice(v, "spnft"),
		MismatchPolicy:   v.GetString("mismatch-policy"),
		Concurrency:      v.GetInt("concurrency"),
		MaxPositions:     v.GetUint64("max-positions"),
		LogLevel:         v.GetString("log-level"),
	}
}

func readAPI(v *viper.Viper) API {
	return API{
		BaseURL:       v.GetString("api-url"),
		RateLimit:     v.GetFloat64("api-rate"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		CacheTTL:      v.GetDuration("cache-ttl"),
	}
}

// resolveRPC falls back to NETWORK_URL and then the public Arbitrum gateway.
func resolveRPC(value string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	if legacy := strings.TrimSpace(os.Getenv(legacyRPCEnv)); legacy != "" {
		return legacy
	}
	return chain.DefaultRPCURL
}

// PositionConfig converts the chain settings into an aggregator config.
func (c Chain) PositionConfig() (position.Config, error) {
	policy, err := position.ParseMismatchPolicy(c.MismatchPolicy)
	if err != nil {
		return position.Config{}, err
	}
	spNFTs, err := ParseAddresses(c.SpNFTs)
	if err != nil {
		return position.Config{}, fmt.Errorf("spnft: %w", err)
	}
	cfg := position.Config{
		SpNFTs:       spNFTs,
		Policy:       policy,
		Concurrency:  c.Concurrency,
		MaxPositions: c.MaxPositions,
	}
	if c.AlgebraPositions != "" {
		manager, err := ParseAddress("algebra-positions", c.AlgebraPositions)
		if err != nil {
			return position.Config{}, err
		}
		cfg.AlgebraPositions = manager
	}
	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return splitAndClean(strings.Join(typed, ","))
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
