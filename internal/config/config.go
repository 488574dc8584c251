// Package config loads the process bootstrap file: which chains to
// register, where their CSDL schema documents and EVM ABI directories
// live, and how the stream engine should be tuned per chain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the YAML bootstrap configuration.
type Config struct {
	Version int      `yaml:"version"`
	Chains  []Chain  `yaml:"chains"`
	Stream  Stream   `yaml:"stream"`
}

// Chain describes one chain registration: its family, its transport
// endpoint, and the schema/ABI material to load for it at startup.
type Chain struct {
	Slug     string   `yaml:"slug"`
	Family   string   `yaml:"family"` // evm | solana | cosmos
	RPCURL   string   `yaml:"rpc_url"`
	WSURL    string   `yaml:"ws_url"`
	CSDLDirs  []string `yaml:"csdl_dirs"`
	ABIDirs   []string `yaml:"abi_dirs"`   // evm only
	Addresses []string `yaml:"addresses,omitempty"` // evm only; empty means subscribe to all addresses

	Stream *ChainStream `yaml:"stream,omitempty"` // per-chain override of the global Stream block
}

// Stream tunes the live-decode pipeline of internal/stream.
type Stream struct {
	IngressCapacity  int           `yaml:"ingress_capacity"`
	SubscriberBuffer int           `yaml:"subscriber_buffer"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	SubscribeTimeout time.Duration `yaml:"subscribe_timeout"`
}

// ChainStream is Stream plus a per-chain schema-name allow-list.
type ChainStream struct {
	Stream    `yaml:",inline"`
	AllowList []string `yaml:"allow_list,omitempty"`
}

var envPattern = regexp.MustCompile(`\${([A-Za-z_][A-Za-z0-9_]*)}`)

// Load reads, interpolates env vars, parses YAML, and validates.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	interpolated, err := interpolateEnv(string(raw))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	return nil
}

func interpolateEnv(input string) (string, error) {
	missing := []string{}
	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing environment variables: %s", strings.Join(dedup(missing), ", "))
	}
	return out, nil
}

// Validate performs small, direct schema checks.
func (c *Config) Validate() error {
	if c.Version == 0 {
		return errors.New("version is required")
	}
	if len(c.Chains) == 0 {
		return errors.New("at least one chain is required")
	}

	slugs := map[string]struct{}{}
	for i := range c.Chains {
		ch := &c.Chains[i]
		if _, exists := slugs[ch.Slug]; exists {
			return fmt.Errorf("duplicate chain slug: %s", ch.Slug)
		}
		slugs[ch.Slug] = struct{}{}
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("chain %s: %w", ch.Slug, err)
		}
	}

	return c.Stream.Validate()
}

// ChainBySlug looks up a configured chain by slug, the way the CLI
// commands resolve which CSDL dirs and RPC endpoint a batch or stream
// operation should use.
func (c *Config) ChainBySlug(slug string) (*Chain, error) {
	for i := range c.Chains {
		if c.Chains[i].Slug == slug {
			return &c.Chains[i], nil
		}
	}
	return nil, fmt.Errorf("no configured chain with slug %q", slug)
}

func (ch *Chain) Validate() error {
	if ch.Slug == "" {
		return errors.New("slug is required")
	}
	switch strings.ToLower(ch.Family) {
	case "evm":
		if ch.RPCURL == "" {
			return errors.New("rpc_url is required for evm chains")
		}
	case "solana":
		if ch.RPCURL == "" {
			return errors.New("rpc_url is required for solana chains")
		}
	case "cosmos":
		if ch.RPCURL == "" {
			return errors.New("rpc_url is required for cosmos chains")
		}
	default:
		return fmt.Errorf("unsupported chain family: %s", ch.Family)
	}
	if len(ch.CSDLDirs) == 0 {
		return errors.New("csdl_dirs is required (at least one schema directory)")
	}
	if ch.Stream != nil {
		if err := ch.Stream.Validate(); err != nil {
			return fmt.Errorf("stream override: %w", err)
		}
	}
	return nil
}

// Validate fills in the defaults internal/stream.NewPipeline would
// otherwise apply, so a caller can log the resolved values up front.
func (s *Stream) Validate() error {
	if s.IngressCapacity < 0 {
		return errors.New("stream.ingress_capacity must not be negative")
	}
	if s.SubscriberBuffer < 0 {
		return errors.New("stream.subscriber_buffer must not be negative")
	}
	if s.ConnectTimeout < 0 || s.SubscribeTimeout < 0 {
		return errors.New("stream timeouts must not be negative")
	}
	if s.IngressCapacity == 0 {
		s.IngressCapacity = 1024
	}
	if s.SubscriberBuffer == 0 {
		s.SubscriberBuffer = 256
	}
	if s.ConnectTimeout == 0 {
		s.ConnectTimeout = 30 * time.Second
	}
	if s.SubscribeTimeout == 0 {
		s.SubscribeTimeout = 30 * time.Second
	}
	return nil
}

func dedup(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
