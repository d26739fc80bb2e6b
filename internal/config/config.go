package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type (
	// Config drives both binaries; unset fields keep their defaults.
	Config struct {
		Relay   RelayConfig   `toml:"relay"`
		Redis   RedisConfig   `toml:"redis"`
		Mongo   MongoConfig   `toml:"mongo"`
		Account AccountConfig `toml:"account"`
		Vault   VaultConfig   `toml:"vault"`
	}

	RelayConfig struct {
		// host:port the relay listens on / the client dials
		Addr string `toml:"addr"`
	}

	RedisConfig struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	}

	MongoConfig struct {
		URI      string `toml:"uri"`
		Database string `toml:"database"`
	}

	AccountConfig struct {
		// path of the 32-byte account seed; created on first run
		SeedFile string `toml:"seed_file"`
	}

	VaultConfig struct {
		// name of the environment variable holding the passphrase that
		// encrypts PSKs and counter state at rest
		PassphraseEnv string `toml:"passphrase_env"`
	}
)

func Default() *Config {
	return &Config{
		Relay:   RelayConfig{Addr: "localhost:9090"},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "algochat"},
		Account: AccountConfig{SeedFile: "algochat.seed"},
		Vault:   VaultConfig{PassphraseEnv: "ALGOCHAT_PASSPHRASE"},
	}
}

// Load reads a TOML file over the defaults. A missing file is not an error:
// the defaults match the development relay setup.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
