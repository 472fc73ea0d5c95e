package ledger

import (
	"github.com/sasha-s/go-deadlock"
)

// SyncChain guards a Chain with a read/write lock so it can be mined by one
// goroutine while others verify or read it. The proof-of-work search runs
// without the lock, so no caller waits on it for longer than a copy of the
// chain's state.
type SyncChain struct {
	mu    *deadlock.RWMutex
	chain *Chain
}

// NewSyncChain wraps chain. The caller must stop using chain directly.
func NewSyncChain(chain *Chain) *SyncChain {
	return &SyncChain{
		mu:    &deadlock.RWMutex{},
		chain: chain,
	}
}

// AddTransaction puts a transaction in the pending pool.
func (s *SyncChain) AddTransaction(sender, recipient string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chain.AddTransaction(sender, recipient, amount)
}

// MinePending mines the transactions pending when it is called, as
// Chain.MinePending does. Transactions added during the search stay pending
// behind the reward. If another block is appended meanwhile the search
// starts over on top of it.
func (s *SyncChain) MinePending(minerAddress string) (Block, error) {
	for {
		s.mu.RLock()
		next, err := s.chain.nextBlock()
		s.mu.RUnlock()
		if err != nil {
			return Block{}, err
		}

		block, err := s.chain.mine(next)
		if err != nil {
			return Block{}, err
		}

		s.mu.Lock()
		if s.chain.isTip(next) {
			s.chain.commit(block, minerAddress)
			s.mu.Unlock()
			return block.clone(), nil
		}
		s.mu.Unlock()
		s.chain.logger.Debug("chain moved while mining, retrying", "index", next.index)
	}
}

// Tamper runs fn on the stored block at index under the write lock.
func (s *SyncChain) Tamper(index int, fn func(*Block)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain.Tamper(index, fn)
}

// Verify checks the chain under the read lock.
func (s *SyncChain) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Verify()
}

// Check returns the length and the Verify result of one consistent view of
// the chain.
func (s *SyncChain) Check() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Check()
}

// IsValid reports whether Verify finds nothing wrong.
func (s *SyncChain) IsValid() bool {
	return s.Verify() == nil
}

// Blocks returns a copy of every block.
func (s *SyncChain) Blocks() []Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Blocks()
}

// GetByIndex returns a copy of the block at index.
func (s *SyncChain) GetByIndex(index int) (Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.GetByIndex(index)
}

// GetLatest returns a copy of the latest block.
func (s *SyncChain) GetLatest() (Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.GetLatest()
}

// Len returns the number of blocks.
func (s *SyncChain) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Len()
}

// Pending returns a copy of the pending pool.
func (s *SyncChain) Pending() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Pending()
}

// Difficulty never changes after NewChain, so it needs no lock.
func (s *SyncChain) Difficulty() int {
	return s.chain.Difficulty()
}
