package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/suites"
)

// Hasher produces the hash function used for block digests.
// Every kyber suite satisfies it.
type Hasher = kyber.HashFactory

// DefaultHasher is the Ed25519 suite, whose hash is SHA-256.
var DefaultHasher Hasher = suites.MustFind("Ed25519")

// HasherForSuite looks up a kyber suite by name.
func HasherForSuite(name string) (Hasher, error) {
	s, err := suites.Find(name)
	if err != nil {
		return nil, fmt.Errorf("unknown hash suite %q: %w", name, err)
	}
	return s, nil
}

// The digest input is a JSON object whose keys appear in sorted order.
// Field order in these structs is therefore part of the chain format.
type txPayload struct {
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
	Sender    string `json:"sender"`
}

type blockPayload struct {
	Index        int         `json:"index"`
	Nonce        uint64      `json:"nonce"`
	PrevHash     string      `json:"previous_hash"`
	Timestamp    int64       `json:"timestamp"`
	Transactions []txPayload `json:"transactions"`
}

// Encode returns the canonical byte encoding of the hashed block fields:
//
//	{"index":1,"nonce":7,"previous_hash":"00ab…","timestamp":1700000000000000000,
//	 "transactions":[{"amount":"50","recipient":"Bob","sender":"Alice"}]}
//
// Amounts use the shortest decimal form, and a nil transaction list encodes as [].
func Encode(b *Block) []byte {
	txs := make([]txPayload, len(b.Transactions))
	for i, tx := range b.Transactions {
		txs[i] = txPayload{
			Amount:    strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			Recipient: tx.Recipient,
			Sender:    tx.Sender,
		}
	}
	// only strings and integers, Marshal cannot fail
	data, _ := json.Marshal(blockPayload{
		Index:        b.Index,
		Nonce:        b.Nonce,
		PrevHash:     b.PrevHash,
		Timestamp:    b.Timestamp,
		Transactions: txs,
	})
	return data
}

// Digest hashes the canonical encoding of b and returns it hex encoded.
// Blocks mined by a Chain use the chain's hasher, others DefaultHasher.
func Digest(b *Block) string {
	return digestWith(b.hasherOrDefault(), b)
}

func digestWith(h Hasher, b *Block) string {
	hh := h.Hash()
	hh.Write(Encode(b))
	return hex.EncodeToString(hh.Sum(nil))
}
