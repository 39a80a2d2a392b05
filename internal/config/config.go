package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const ArbitrumOne uint64 = 42161

const maxRetriesLimit = 20

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPC             map[uint64]string
	ChainID         uint64
	RoutingDisabled bool
	MaxRetries      int
	RetryBackoff    time.Duration
	SlippageBps     uint32
	Deadline        time.Duration
	Recipient       string
	Out             string
	PGDSN           string
	LogLevel        string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding values already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Names used by earlier deployments of the tool.
	_ = v.BindEnv("rpc-arbitrum", "SWAPPER_RPC_ARBITRUM", "RPC_URL_ARBITRUM")
	_ = v.BindEnv("no-routing", "SWAPPER_NO_ROUTING", "NO_SOR")
	_ = v.BindEnv("recipient", "SWAPPER_RECIPIENT", "WALLET_ADDRESS")

	v.SetDefault("chain-id", ArbitrumOne)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 100*time.Millisecond)
	v.SetDefault("slippage-bps", 50)
	v.SetDefault("deadline", 20*time.Minute)
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

	rpc, err := parseEndpoints(getStringMap(v, "rpc"))
	if err != nil {
		return Config{}, err
	}
	if url := strings.TrimSpace(v.GetString("rpc-arbitrum")); url != "" {
		if _, ok := rpc[ArbitrumOne]; !ok {
			rpc[ArbitrumOne] = url
		}
	}

	cfg := Config{
		RPC:             rpc,
		ChainID:         v.GetUint64("chain-id"),
		RoutingDisabled: v.GetBool("no-routing"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		SlippageBps:     v.GetUint32("slippage-bps"),
		Deadline:        v.GetDuration("deadline"),
		Recipient:       strings.TrimSpace(v.GetString("recipient")),
		Out:             v.GetString("out"),
		PGDSN:           v.GetString("pg-dsn"),
		LogLevel:        v.GetString("log-level"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > maxRetriesLimit {
		return fmt.Errorf("max-retries must be between 0 and %d", maxRetriesLimit)
	}
	if c.RetryBackoff <= 0 {
		return fmt.Errorf("retry-backoff must be positive")
	}
	if c.SlippageBps == 0 || c.SlippageBps > 10_000 {
		return fmt.Errorf("slippage-bps must be between 1 and 10000")
	}
	if c.Deadline <= 0 {
		return fmt.Errorf("deadline must be positive")
	}
	return nil
}

// ChainIDs returns the chains with a configured endpoint, sorted.
func (c Config) ChainIDs() []uint64 {
	ids := make([]uint64, 0, len(c.RPC))
	for id := range c.RPC {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func parseEndpoints(raw map[string]string) (map[uint64]string, error) {
	out := make(map[uint64]string, len(raw))
	for key, url := range raw {
		id, err := strconv.ParseUint(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("rpc: invalid chain id %q", key)
		}
		out[id] = url
	}
	return out, nil
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	case []string:
		return parseStringMap(strings.Join(typed, ","))
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
