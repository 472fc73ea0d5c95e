package ledger

import (
	"log/slog"
	"time"
)

// ChainOption customises a Chain built by NewChain.
type ChainOption func(Chain) Chain

// WithReward sets the amount credited to the miner after each MinePending.
func WithReward(amount float64) ChainOption {
	return func(c Chain) Chain {
		c.reward = amount
		return c
	}
}

// WithRewardSender sets the reserved sender of reward transactions.
func WithRewardSender(sender string) ChainOption {
	return func(c Chain) Chain {
		c.rewardSender = sender
		return c
	}
}

// WithMiningBudget bounds every proof-of-work search of the chain, genesis
// included. Zero values mean unbounded.
func WithMiningBudget(maxAttempts uint64, timeout time.Duration) ChainOption {
	return func(c Chain) Chain {
		c.mineOpts = []MineOption{WithMaxAttempts(maxAttempts), WithTimeout(timeout)}
		return c
	}
}

// WithHasher replaces the digest hash function.
func WithHasher(h Hasher) ChainOption {
	return func(c Chain) Chain {
		c.hasher = h
		return c
	}
}

// WithClock replaces the source of block timestamps.
func WithClock(now func() time.Time) ChainOption {
	return func(c Chain) Chain {
		c.now = now
		return c
	}
}

// WithLogger sets the logger for mining events. A nil logger discards them.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c Chain) Chain {
		c.logger = logger
		return c
	}
}
