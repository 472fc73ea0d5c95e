package ledger

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"
)

// Defaults used by NewChain and the config package.
const (
	DefaultDifficulty   = 2
	DefaultReward       = 10
	DefaultRewardSender = "network"
)

// Chain is an append-only list of mined blocks plus a pool of pending
// transactions.
//
// A Chain assumes a single owner: calls must not overlap. Wrap it in a
// SyncChain to share it between goroutines.
type Chain struct {
	blocks     []Block
	difficulty int
	pending    []Transaction

	reward       float64
	rewardSender string
	mineOpts     []MineOption
	hasher       Hasher
	now          func() time.Time
	logger       *slog.Logger
}

// NewChain creates a chain whose blocks need difficulty leading zero hex
// digits, and mines its genesis block (index 0, no transactions, previous
// hash "0"). It fails only for a difficulty outside [0, MaxDifficulty] or
// when a mining budget set through WithMiningBudget runs out.
func NewChain(difficulty int, opts ...ChainOption) (*Chain, error) {
	c := Chain{
		blocks:       make([]Block, 0),
		difficulty:   difficulty,
		pending:      make([]Transaction, 0),
		reward:       DefaultReward,
		rewardSender: DefaultRewardSender,
	}
	for _, opt := range opts {
		c = opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.hasher == nil {
		c.hasher = DefaultHasher
	}
	if c.now == nil {
		c.now = time.Now
	}

	genesis := newBlock(0, c.now().UnixNano(), nil, GenesisPrevHash, c.hasher)
	if err := genesis.Mine(c.difficulty, c.mineOpts...); err != nil {
		return nil, fmt.Errorf("mining genesis block: %w", err)
	}
	c.blocks = append(c.blocks, *genesis)
	c.logger.Debug("genesis block mined", "hash", genesis.Hash, "nonce", genesis.Nonce)

	return &c, nil
}

// AddTransaction puts a transaction in the pending pool. Nothing is validated.
func (c *Chain) AddTransaction(sender, recipient string, amount float64) {
	c.pending = append(c.pending, Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	})
}

// MinePending packs a copy of the pending pool into a new block linked to the
// latest one, mines it and appends it. The pool is then reset to a single
// reward transaction for minerAddress.
//
// The reward is not part of the block just mined: it is only recorded by the
// next call to MinePending.
//
// If mining fails the chain and the pool are left untouched.
func (c *Chain) MinePending(minerAddress string) (Block, error) {
	next, err := c.nextBlock()
	if err != nil {
		return Block{}, err
	}
	block, err := c.mine(next)
	if err != nil {
		return Block{}, err
	}
	c.commit(block, minerAddress)
	return block.clone(), nil
}

// candidate holds what a new block is built from, taken from the chain in
// one go so that mining can happen without access to it.
type candidate struct {
	index        int
	timestamp    int64
	transactions []Transaction
	prevHash     string
}

func (c *Chain) nextBlock() (candidate, error) {
	if len(c.blocks) == 0 {
		return candidate{}, ErrEmptyChain
	}
	return candidate{
		index:        len(c.blocks),
		timestamp:    c.now().UnixNano(),
		transactions: slices.Clone(c.pending),
		prevHash:     c.blocks[len(c.blocks)-1].Hash,
	}, nil
}

// isTip reports whether next still extends the latest block.
func (c *Chain) isTip(next candidate) bool {
	return len(c.blocks) == next.index && c.blocks[len(c.blocks)-1].Hash == next.prevHash
}

// mine only reads settings fixed by NewChain, so it may run while other
// goroutines use the chain.
func (c *Chain) mine(next candidate) (*Block, error) {
	block := newBlock(next.index, next.timestamp, next.transactions, next.prevHash, c.hasher)
	if err := block.Mine(c.difficulty, c.mineOpts...); err != nil {
		return nil, fmt.Errorf("mining block %d: %w", block.Index, err)
	}
	return block, nil
}

// commit appends a mined block and replaces the transactions it recorded
// with the reward. Transactions added after the block was built stay pending.
func (c *Chain) commit(block *Block, minerAddress string) {
	c.blocks = append(c.blocks, *block)

	rest := c.pending[len(block.Transactions):]
	c.pending = append([]Transaction{{
		Sender:    c.rewardSender,
		Recipient: minerAddress,
		Amount:    c.reward,
	}}, rest...)
	c.logger.Debug("block mined",
		"index", block.Index,
		"transactions", len(block.Transactions),
		"nonce", block.Nonce,
		"hash", block.Hash,
	)
}

// Verify recomputes the hash of every block after the genesis and checks its
// link to the previous block. It returns a *ValidationError for the first
// block that fails. The genesis block is trusted.
func (c *Chain) Verify() error {
	if len(c.blocks) == 0 {
		return ErrEmptyChain
	}

	for i := 1; i < len(c.blocks); i++ {
		current := &c.blocks[i]
		previous := &c.blocks[i-1]

		if expected := current.CalculateHash(); current.Hash != expected {
			return &ValidationError{Index: i, Err: ErrHashMismatch, Expected: expected, Got: current.Hash}
		}
		if current.PrevHash != previous.Hash {
			return &ValidationError{Index: i, Err: ErrBrokenLink, Expected: previous.Hash, Got: current.PrevHash}
		}
	}

	return nil
}

// Check returns the number of blocks together with the result of Verify on
// those same blocks.
func (c *Chain) Check() (int, error) {
	return len(c.blocks), c.Verify()
}

// IsValid reports whether Verify finds nothing wrong.
func (c *Chain) IsValid() bool {
	return c.Verify() == nil
}

// Blocks returns a copy of every block, genesis first.
func (c *Chain) Blocks() []Block {
	blocks := make([]Block, len(c.blocks))
	for i, b := range c.blocks {
		blocks[i] = b.clone()
	}
	return blocks
}

// GetByIndex returns a copy of the block at index.
func (c *Chain) GetByIndex(index int) (Block, error) {
	if index < 0 || index >= len(c.blocks) {
		return Block{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return c.blocks[index].clone(), nil
}

// GetLatest returns a copy of the most recently mined block.
func (c *Chain) GetLatest() (Block, error) {
	if len(c.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}
	return c.blocks[len(c.blocks)-1].clone(), nil
}

// Len returns the number of blocks, genesis included.
func (c *Chain) Len() int {
	return len(c.blocks)
}

// Pending returns a copy of the transactions waiting to be mined.
func (c *Chain) Pending() []Transaction {
	return slices.Clone(c.pending)
}

// Difficulty returns the number of leading zero hex digits every block needs.
func (c *Chain) Difficulty() int {
	return c.difficulty
}

// Tamper hands the stored block at index to fn, which may change any of its
// fields. It exists to simulate an attacker writing to the chain's memory
// and deliberately skips every invariant of the append-only API.
func (c *Chain) Tamper(index int, fn func(*Block)) error {
	if index < 0 || index >= len(c.blocks) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	fn(&c.blocks[index])
	return nil
}
