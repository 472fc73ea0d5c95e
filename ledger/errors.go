package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNonceNotFound     = errors.New("no nonce found within budget")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrHashMismatch      = errors.New("invalid hash")
	ErrBrokenLink        = errors.New("invalid prev hash")
	ErrEmptyChain        = errors.New("empty blockchain")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

// ValidationError tells which block failed verification and which check
// caught it. Err is ErrHashMismatch or ErrBrokenLink.
type ValidationError struct {
	Index    int
	Err      error
	Expected string
	Got      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("block %d invalid: %v: expected %s, got %s", e.Index, e.Err, e.Expected, e.Got)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
