// Package ledger implements a minimal proof-of-work blockchain held in memory.
//
// # Core Components
//
// Block: an index, a timestamp, a list of transactions, the hash of the
// previous block, a nonce and its own hash. Mine searches the nonce until the
// hash starts with the requested number of zero hex digits.
//
// Chain: the ordered list of blocks, starting from a mined genesis block,
// plus a pool of pending transactions. MinePending packs the pool into a new
// block and credits a fixed reward to the miner in the next pool.
//
// SyncChain: a Chain behind a read/write lock, for sharing between goroutines.
//
// # Hashing
//
// The digest of a block is the hex encoded hash of a JSON object with sorted
// keys (see Encode). The hash function comes from a kyber suite and defaults
// to SHA-256. Two chains only agree on hashes if they agree on both.
//
// # Tamper detection
//
// Verify recomputes every block hash and checks every link to the previous
// block. A block whose fields were changed after mining, for instance through
// Tamper, is reported as a *ValidationError naming its index and the failed
// check.
package ledger
