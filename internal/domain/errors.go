package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUnsupportedChain      = errors.New("unsupported chain")
	ErrQuoteUnavailable      = errors.New("quote unavailable")
	ErrPriceOracle           = errors.New("price oracle unavailable")
	ErrOnChainRead           = errors.New("on-chain read failed")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrNotFound              = errors.New("not found")
)

// QuoteError pairs one of the sentinel errors above with a message that is
// safe to return verbatim in the API response body.
type QuoteError struct {
	Kind error
	Msg  string
}

// NewQuoteError creates a QuoteError of the given kind.
func NewQuoteError(kind error, msg string) *QuoteError {
	return &QuoteError{Kind: kind, Msg: msg}
}

func (e *QuoteError) Error() string { return e.Msg }

func (e *QuoteError) Unwrap() error { return e.Kind }

// UpstreamError carries the HTTP status and message of a failed aggregator
// call so the handler can propagate them to the client unchanged.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}
