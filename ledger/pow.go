package ledger

import (
	"fmt"
	"time"
)

// MaxDifficulty is the length of a hex encoded 256-bit digest.
const MaxDifficulty = 64

// how many attempts run between two deadline checks
const deadlineCheckInterval = 256

// MineOption bounds a proof-of-work search.
type MineOption func(mineConfig) mineConfig

type mineConfig struct {
	maxAttempts uint64
	timeout     time.Duration
}

// WithMaxAttempts bounds the nonce search to n hash computations, the one for
// the starting nonce included. Zero means unbounded.
func WithMaxAttempts(n uint64) MineOption {
	return func(c mineConfig) mineConfig {
		c.maxAttempts = n
		return c
	}
}

// WithTimeout bounds the nonce search in wall-clock time. Zero means unbounded.
func WithTimeout(timeout time.Duration) MineOption {
	return func(c mineConfig) mineConfig {
		c.timeout = timeout
		return c
	}
}

// MeetsDifficulty reports whether the first difficulty characters of hash are '0'.
func MeetsDifficulty(hash string, difficulty int) bool {
	if difficulty > len(hash) {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}
	return true
}

// Mine increments the nonce until the block hash starts with difficulty zero
// hex digits. Without options the search only stops on success.
// If a budget runs out the nonce and hash are put back as they were and the
// returned error wraps ErrNonceNotFound.
func (b *Block) Mine(difficulty int, opts ...MineOption) error {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidDifficulty, difficulty, MaxDifficulty)
	}
	var cfg mineConfig
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	var deadline time.Time
	if cfg.timeout > 0 {
		deadline = time.Now().Add(cfg.timeout)
	}

	startNonce, startHash := b.Nonce, b.Hash
	b.Hash = b.CalculateHash()
	attempts := uint64(1)
	for !MeetsDifficulty(b.Hash, difficulty) {
		if cfg.maxAttempts > 0 && attempts >= cfg.maxAttempts {
			b.Nonce, b.Hash = startNonce, startHash
			return fmt.Errorf("block %d: %w after %d attempts", b.Index, ErrNonceNotFound, attempts)
		}
		if !deadline.IsZero() && attempts%deadlineCheckInterval == 0 && time.Now().After(deadline) {
			b.Nonce, b.Hash = startNonce, startHash
			return fmt.Errorf("block %d: %w within %s", b.Index, ErrNonceNotFound, cfg.timeout)
		}
		b.Nonce++
		b.Hash = b.CalculateHash()
		attempts++
	}
	return nil
}
