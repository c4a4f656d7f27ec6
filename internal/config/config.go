// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"solana-token-minter/internal/domain"
)

// Defaults.
const (
	DefaultHTTPAddr         = ":8080"
	DefaultMaxUploadBytes   = 5 << 20
	DefaultPinataAPIURL     = "https://api.pinata.cloud"
	DefaultPinataGatewayURL = "https://gateway.pinata.cloud/ipfs/"
	DefaultRPCTimeout       = 30 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
)

// Config holds everything the composition root needs.
type Config struct {
	// Solana
	RPCEndpoint string
	WSEndpoint  string // derived from RPCEndpoint when empty
	Cluster     string // devnet, testnet, mainnet-beta, custom
	RPCTimeout  time.Duration
	MintMode    domain.MintMode

	// Service wallet secret: inline value wins over the file path.
	WalletSecret string
	WalletPath   string

	// Pinata
	PinataAPIKey     string
	PinataSecretKey  string
	PinataAPIURL     string
	PinataGatewayURL string
	MaxUploadBytes   int64

	// Storage
	PostgresDSN   string
	ClickHouseDSN string
	UseMemory     bool

	// Process
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Error reports an invalid configuration value.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// FromEnv reads the configuration using getenv (os.Getenv in production).
// Missing optional values fall back to defaults. Call Validate after applying flag overrides.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		RPCEndpoint:      getenv("SOLANA_RPC_ENDPOINT"),
		WSEndpoint:       getenv("SOLANA_WS_ENDPOINT"),
		Cluster:          getenv("SOLANA_CLUSTER"),
		RPCTimeout:       DefaultRPCTimeout,
		MintMode:         domain.MintModeCombined,
		WalletSecret:     getenv("SERVICE_WALLET_SECRET"),
		WalletPath:       getenv("SERVICE_WALLET_PATH"),
		PinataAPIKey:     getenv("PINATA_API_KEY"),
		PinataSecretKey:  getenv("PINATA_SECRET_API_KEY"),
		PinataAPIURL:     orDefault(getenv("PINATA_API_URL"), DefaultPinataAPIURL),
		PinataGatewayURL: orDefault(getenv("PINATA_GATEWAY_URL"), DefaultPinataGatewayURL),
		MaxUploadBytes:   DefaultMaxUploadBytes,
		PostgresDSN:      getenv("POSTGRES_DSN"),
		ClickHouseDSN:    getenv("CLICKHOUSE_DSN"),
		HTTPAddr:         orDefault(getenv("HTTP_ADDR"), DefaultHTTPAddr),
		LogLevel:         orDefault(getenv("LOG_LEVEL"), "info"),
		LogFormat:        orDefault(getenv("LOG_FORMAT"), "json"),
		ShutdownTimeout:  DefaultShutdownTimeout,
	}

	if v := getenv("MINT_MODE"); v != "" {
		cfg.MintMode = domain.MintMode(strings.ToLower(v))
	}
	if v := getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &Error{Field: "MAX_UPLOAD_BYTES", Msg: fmt.Sprintf("not an integer: %q", v)}
		}
		cfg.MaxUploadBytes = n
	}
	if v := getenv("SOLANA_RPC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, &Error{Field: "SOLANA_RPC_TIMEOUT", Msg: fmt.Sprintf("not a duration: %q", v)}
		}
		cfg.RPCTimeout = d
	}
	if v := getenv("USE_MEMORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &Error{Field: "USE_MEMORY", Msg: fmt.Sprintf("not a boolean: %q", v)}
		}
		cfg.UseMemory = b
	}

	return cfg, nil
}

// Validate checks required values and fills derived ones.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return &Error{Field: "SOLANA_RPC_ENDPOINT", Msg: "required"}
	}
	u, err := url.Parse(c.RPCEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &Error{Field: "SOLANA_RPC_ENDPOINT", Msg: fmt.Sprintf("not an http(s) URL: %q", c.RPCEndpoint)}
	}
	if c.WSEndpoint == "" {
		c.WSEndpoint = DeriveWSEndpoint(c.RPCEndpoint)
	}
	if c.Cluster == "" {
		c.Cluster = InferCluster(c.RPCEndpoint)
	}
	if !c.MintMode.Valid() {
		return &Error{Field: "MINT_MODE", Msg: fmt.Sprintf("must be %q or %q, got %q",
			domain.MintModeCombined, domain.MintModeSequential, c.MintMode)}
	}
	if c.MaxUploadBytes <= 0 {
		return &Error{Field: "MAX_UPLOAD_BYTES", Msg: "must be positive"}
	}
	if c.RPCTimeout <= 0 {
		return &Error{Field: "SOLANA_RPC_TIMEOUT", Msg: "must be positive"}
	}
	if !c.UseMemory && (c.PostgresDSN == "") != (c.ClickHouseDSN == "") {
		return &Error{Field: "POSTGRES_DSN", Msg: "POSTGRES_DSN and CLICKHOUSE_DSN must be set together"}
	}
	return nil
}

// PersistentStorage reports whether database-backed stores should be used.
func (c *Config) PersistentStorage() bool {
	return !c.UseMemory && c.PostgresDSN != "" && c.ClickHouseDSN != ""
}

// PinningConfigured reports whether both Pinata credentials are present.
func (c *Config) PinningConfigured() bool {
	return c.PinataAPIKey != "" && c.PinataSecretKey != ""
}

// DeriveWSEndpoint maps http(s)://host to ws(s)://host.
func DeriveWSEndpoint(rpc string) string {
	switch {
	case strings.HasPrefix(rpc, "https://"):
		return "wss://" + strings.TrimPrefix(rpc, "https://")
	case strings.HasPrefix(rpc, "http://"):
		return "ws://" + strings.TrimPrefix(rpc, "http://")
	default:
		return ""
	}
}

// InferCluster guesses the explorer cluster name from the RPC host.
func InferCluster(rpc string) string {
	lower := strings.ToLower(rpc)
	switch {
	case strings.Contains(lower, "devnet"):
		return "devnet"
	case strings.Contains(lower, "testnet"):
		return "testnet"
	case strings.Contains(lower, "mainnet"):
		return "mainnet-beta"
	default:
		return "custom"
	}
}

// LoadEnvFile loads KEY=VALUE lines from path into the process environment.
// Existing variables are not overridden. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
