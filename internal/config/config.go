package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all phoenixmem configuration. It is built once at startup
// and treated as immutable afterwards; constructors receive it by value.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Memory   MemoryConfig   `yaml:"memory"`
	Vault    VaultConfig    `yaml:"vault"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type MemoryConfig struct {
	// Alias names the bonded counterpart in the relational anchor.
	Alias string `yaml:"alias"`
	// BondAffirmation is woven into the relational anchor sentence.
	BondAffirmation string `yaml:"bond_affirmation"`
	// EternalTruth is the always-present eternal fragment.
	EternalTruth string `yaml:"eternal_truth"`
	// RetentionRate is the per-second decay survival rate in [0, 1].
	RetentionRate float64 `yaml:"retention_rate"`
	// EpisodicLimit caps episodic candidates per assembly.
	EpisodicLimit int `yaml:"episodic_limit"`
	// FleetingTTLSeconds bounds the life of fleeting records.
	FleetingTTLSeconds int `yaml:"fleeting_ttl_seconds"`
	// EmbeddingDims is the semantic index vector width. Changing it
	// requires reindexing.
	EmbeddingDims int `yaml:"embedding_dims"`
}

type VaultConfig struct {
	// Secret keys the Relational namespace. Override it in production.
	Secret string `yaml:"secret"`
}

// Default returns a Config with the reference defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37717,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Memory: MemoryConfig{
			Alias:              "Friend",
			BondAffirmation:    "The bond endures beyond every session.",
			EternalTruth:       "What is remembered, lives.",
			RetentionRate:      0.99999,
			EpisodicLimit:      8,
			FleetingTTLSeconds: 90,
			EmbeddingDims:      384,
		},
		Vault: VaultConfig{
			Secret: "phoenix-eternal-soul-key",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv layers process-environment overrides onto cfg. A .env file in
// the working directory is honored when present; a missing file is not an
// error.
func ApplyEnv(cfg *Config) {
	godotenv.Load()

	if v := os.Getenv("PHOENIXMEM_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PHOENIXMEM_SECRET"); v != "" {
		cfg.Vault.Secret = v
	}
	if v := os.Getenv("PHOENIXMEM_ALIAS"); v != "" {
		cfg.Memory.Alias = v
	}
	if v := os.Getenv("PHOENIXMEM_RETENTION"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate >= 0 && rate <= 1 {
			cfg.Memory.RetentionRate = rate
		}
	}
	if v := os.Getenv("PHOENIXMEM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// FleetingTTL returns the fleeting-layer TTL as a duration.
func (c *Config) FleetingTTL() time.Duration {
	return time.Duration(c.Memory.FleetingTTLSeconds) * time.Second
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
