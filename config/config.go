// Package config loads the settings of the powchain binary from defaults, an
// optional config file and POWCHAIN_* environment variables, in increasing
// order of precedence.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/luca-patrignani/powchain/ledger"
)

// EnvPrefix prefixes the environment variable of every key.
const EnvPrefix = "POWCHAIN"

// Config holds the settings of one run.
type Config struct {
	Difficulty    int
	Reward        float64
	RewardSender  string
	Miner         string
	HashSuite     string
	MaxAttempts   uint64        // zero: unbounded
	MiningTimeout time.Duration // zero: none
	CheckInterval time.Duration
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("difficulty", ledger.DefaultDifficulty)
	v.SetDefault("reward", ledger.DefaultReward)
	v.SetDefault("reward_sender", ledger.DefaultRewardSender)
	v.SetDefault("miner", "miner1")
	v.SetDefault("hash_suite", "Ed25519")
	v.SetDefault("max_attempts", 0)
	v.SetDefault("mining_timeout", time.Duration(0))
	v.SetDefault("check_interval", 500*time.Millisecond)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment are used. The file format follows its
// extension (yaml, json, toml, ...).
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := Config{
		Difficulty:    v.GetInt("difficulty"),
		Reward:        v.GetFloat64("reward"),
		RewardSender:  v.GetString("reward_sender"),
		Miner:         v.GetString("miner"),
		HashSuite:     v.GetString("hash_suite"),
		MaxAttempts:   v.GetUint64("max_attempts"),
		MiningTimeout: v.GetDuration("mining_timeout"),
		CheckInterval: v.GetDuration("check_interval"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings a chain cannot be built or monitored with.
func (c Config) Validate() error {
	if c.Difficulty < 0 || c.Difficulty > ledger.MaxDifficulty {
		return fmt.Errorf("difficulty %d: %w", c.Difficulty, ledger.ErrInvalidDifficulty)
	}
	if _, err := ledger.HasherForSuite(c.HashSuite); err != nil {
		return err
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive, got %s", c.CheckInterval)
	}
	return nil
}

// ChainOptions translates the configuration into options for ledger.NewChain.
func (c Config) ChainOptions() ([]ledger.ChainOption, error) {
	hasher, err := ledger.HasherForSuite(c.HashSuite)
	if err != nil {
		return nil, err
	}
	return []ledger.ChainOption{
		ledger.WithReward(c.Reward),
		ledger.WithRewardSender(c.RewardSender),
		ledger.WithMiningBudget(c.MaxAttempts, c.MiningTimeout),
		ledger.WithHasher(hasher),
	}, nil
}
