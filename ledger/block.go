package ledger

import (
	"slices"
	"time"
)

// GenesisPrevHash is the previous hash recorded by the genesis block.
const GenesisPrevHash = "0"

// Transaction moves Amount from Sender to Recipient. No balance or sign check
// is ever applied.
type Transaction struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// Block is a single mined entry of the chain.
type Block struct {
	Index        int           `json:"index"`
	Timestamp    int64         `json:"timestamp"` // unix nanoseconds
	Transactions []Transaction `json:"transactions"`
	PrevHash     string        `json:"prev_hash"`
	Nonce        uint64        `json:"nonce"`
	Hash         string        `json:"hash"`

	hasher Hasher
}

// NewBlock creates an unmined block stamped with the current time.
// The transactions are copied, so the caller may reuse its slice.
func NewBlock(index int, transactions []Transaction, prevHash string) *Block {
	return NewBlockAt(index, time.Now().UnixNano(), transactions, prevHash)
}

// NewBlockAt is NewBlock with an explicit timestamp.
func NewBlockAt(index int, timestamp int64, transactions []Transaction, prevHash string) *Block {
	return newBlock(index, timestamp, transactions, prevHash, nil)
}

func newBlock(index int, timestamp int64, transactions []Transaction, prevHash string, h Hasher) *Block {
	b := &Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: slices.Clone(transactions),
		PrevHash:     prevHash,
		Nonce:        0,
		hasher:       h,
	}
	b.Hash = b.CalculateHash()
	return b
}

// CalculateHash returns the digest of the block's current field values.
// The stored Hash is not read.
func (b *Block) CalculateHash() string {
	return Digest(b)
}

// Time returns the construction time of the block.
func (b Block) Time() time.Time {
	return time.Unix(0, b.Timestamp)
}

func (b *Block) hasherOrDefault() Hasher {
	if b.hasher == nil {
		return DefaultHasher
	}
	return b.hasher
}

// clone returns a deep copy of b.
func (b Block) clone() Block {
	b.Transactions = slices.Clone(b.Transactions)
	return b
}
