package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// TestSyncChainConcurrentUse mines from one goroutine while others add
// transactions and verify. Run with -race to check the locking.
func TestSyncChainConcurrentUse(t *testing.T) {
	sc := NewSyncChain(newTestChain(t))

	const writers = 4
	const perWriter = 10
	var wg sync.WaitGroup
	fatal := make(chan error, writers+2)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				sc.AddTransaction(fmt.Sprintf("writer%d", w), "sink", float64(i))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			if _, err := sc.MinePending("miner1"); err != nil {
				fatal <- err
				return
			}
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if err := sc.Verify(); err != nil {
				fatal <- err
				return
			}
			_ = sc.Blocks()
		}
	}()
	wg.Wait()
	close(fatal)
	for err := range fatal {
		t.Fatal(err)
	}

	if sc.Len() != 4 {
		t.Fatalf("expected 4 blocks, got %d", sc.Len())
	}
	if _, err := sc.MinePending("miner1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// every transfer ends up in exactly one block
	transfers := 0
	for _, b := range sc.Blocks() {
		for _, tx := range b.Transactions {
			if tx.Recipient == "sink" {
				transfers++
			}
		}
	}
	if transfers != writers*perWriter {
		t.Fatalf("expected %d transfers on chain, got %d", writers*perWriter, transfers)
	}
	if !sc.IsValid() {
		t.Fatalf("chain should be valid: %v", sc.Verify())
	}
}

// TestSyncChainTamper verifies that tampering through the wrapper is seen by Verify.
func TestSyncChainTamper(t *testing.T) {
	sc := NewSyncChain(newTestChain(t))
	sc.AddTransaction("Alice", "Bob", 50)
	if _, err := sc.MinePending("miner1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sc.Tamper(1, func(b *Block) { b.Transactions[0].Amount = 100 }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.IsValid() {
		t.Fatal("tampered chain should be invalid")
	}
	latest, err := sc.GetLatest()
	if err != nil || latest.Index != 1 {
		t.Fatalf("expected latest index 1, got %d (%v)", latest.Index, err)
	}
	if block, err := sc.GetByIndex(0); err != nil || block.PrevHash != GenesisPrevHash {
		t.Fatalf("unexpected genesis %v (%v)", block, err)
	}
	if len(sc.Pending()) != 1 || sc.Difficulty() != DefaultDifficulty {
		t.Fatalf("unexpected pool %v or difficulty %d", sc.Pending(), sc.Difficulty())
	}
}

// TestSyncChainMiningDoesNotHoldLock mines a slow block while another
// goroutine keeps checking the chain, with a deadlock timeout far shorter than
// the search. No lock wait may come close to it.
func TestSyncChainMiningDoesNotHoldLock(t *testing.T) {
	timeout, onDeadlock := deadlock.Opts.DeadlockTimeout, deadlock.Opts.OnPotentialDeadlock
	defer func() {
		deadlock.Opts.DeadlockTimeout, deadlock.Opts.OnPotentialDeadlock = timeout, onDeadlock
	}()
	var reported atomic.Bool
	deadlock.Opts.DeadlockTimeout = 20 * time.Millisecond
	deadlock.Opts.OnPotentialDeadlock = func() { reported.Store(true) }

	h := &countingHasher{}
	c, err := NewChain(1, WithHasher(h))
	if err != nil {
		t.Fatalf("failed to create chain: %v", err)
	}
	sc := NewSyncChain(c)
	sc.AddTransaction("Alice", "Bob", 50)
	// every hash now outlasts the deadlock timeout
	h.delay.Store(int64(30 * time.Millisecond))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				_, _ = sc.Check()
				_ = sc.Pending()
			}
		}
	}()

	if _, err := sc.MinePending("miner1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(done)
	wg.Wait()

	if reported.Load() {
		t.Fatal("a reader waited on the lock for the whole proof-of-work search")
	}
	if n, err := sc.Check(); n != 2 || err != nil {
		t.Fatalf("expected a valid 2 block chain, got %d blocks (%v)", n, err)
	}
}

// TestSyncChainConcurrentMiners verifies that two miners racing for the same
// tip both end up with a block, and that no transaction is recorded twice.
func TestSyncChainConcurrentMiners(t *testing.T) {
	sc := NewSyncChain(newTestChain(t))
	sc.AddTransaction("Alice", "Bob", 50)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, miner := range []string{"miner1", "miner2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sc.MinePending(miner); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	if sc.Len() != 3 {
		t.Fatalf("expected 3 blocks, got %d", sc.Len())
	}
	if err := sc.Verify(); err != nil {
		t.Fatalf("verification failed: %v", err)
	}
	transfers := 0
	for _, b := range sc.Blocks() {
		for _, tx := range b.Transactions {
			if tx.Sender == "Alice" {
				transfers++
			}
		}
	}
	if transfers != 1 {
		t.Fatalf("expected the transfer on chain once, got %d", transfers)
	}
}

// TestSyncChainKeepsLateTransactions verifies that a transaction added while
// a block is being mined is neither lost nor put in that block.
func TestSyncChainKeepsLateTransactions(t *testing.T) {
	sc := NewSyncChain(newTestChain(t))
	sc.AddTransaction("Alice", "Bob", 50)

	next, err := sc.chain.nextBlock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sc.AddTransaction("Bob", "Charlie", 30)
	block, err := sc.chain.mine(next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sc.chain.isTip(next) {
		t.Fatal("adding a transaction must not move the tip")
	}
	sc.chain.commit(block, "miner1")

	if len(block.Transactions) != 1 {
		t.Fatalf("expected 1 transaction in the block, got %d", len(block.Transactions))
	}
	pending := sc.Pending()
	if len(pending) != 2 || pending[0].Recipient != "miner1" || pending[1].Recipient != "Charlie" {
		t.Fatalf("expected reward then the late transfer, got %v", pending)
	}
}
