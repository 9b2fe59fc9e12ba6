package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSymbolNotFound means the provider does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrClassifierUnavailable means the model strategy was asked for but none is loaded.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	// ErrInvalidSymbol means the symbol is empty after normalization.
	ErrInvalidSymbol = errors.New("symbol is required")
	// ErrNoHistory means the provider returned no bars for the requested chart window.
	ErrNoHistory = errors.New("No history found")
)

// InsufficientDataError reports that a series cannot yield a usable feature row.
type InsufficientDataError struct {
	Symbol string
	Have   int
	Need   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s for %s (have %d bars, need %d)", e.Reason, e.Symbol, e.Have, e.Need)
	}
	return fmt.Sprintf("%s (have %d bars, need %d)", e.Reason, e.Have, e.Need)
}

// UpstreamFetchError wraps a failure of the market-data or search provider.
type UpstreamFetchError struct {
	Source string
	Symbol string
	Err    error
}

func (e *UpstreamFetchError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s fetch %s: %v", e.Source, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s fetch: %v", e.Source, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide)
}
