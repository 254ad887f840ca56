package trade

import (
	"errors"
	"fmt"
)

// Validation failures, in the order they are checked. Each maps to one
// user-facing message; none of them reaches the order service.
var (
	ErrQuoteUnavailable     = errors.New("trade: no current price for ticker")
	ErrInvalidQuantity      = errors.New("trade: quantity must be positive")
	ErrInsufficientHoldings = errors.New("trade: not enough shares to sell")
	ErrInsufficientBalance  = errors.New("trade: not enough cash to buy")
)

// SubmissionError means the order passed local validation but the order
// service rejected or failed the request. ServerMessage carries the
// service's own wording when it sent one.
type SubmissionError struct {
	ServerMessage string
	Err           error
}

func (e *SubmissionError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("trade: submission failed: %s", e.ServerMessage)
	}
	return fmt.Sprintf("trade: submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
