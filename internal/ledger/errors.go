package ledger

import "errors"

// Sentinel errors for the ledger engine. Callers discriminate with errors.Is;
// wrapping with fmt.Errorf("...: %w", err) preserves the classification.
var (
	// ErrInvalidInput marks a request rejected before any read (non-positive
	// quantity, negative price or expense). Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock marks a sale or death whose quantity exceeds the
	// current head-count. Never retried.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict is surfaced when a commit lost a race against a concurrent
	// writer on every retry attempt.
	ErrConflict = errors.New("stock state changed concurrently")

	// ErrVersionConflict is returned by the store when a versioned write
	// matched no document. The processor retries on it; it never reaches
	// callers directly.
	ErrVersionConflict = errors.New("stale stock state version")

	// ErrStockNotFound means no stock state exists for the owner and category.
	ErrStockNotFound = errors.New("stock state not found")

	// ErrAlreadyInitialized means the category already has a stock state.
	ErrAlreadyInitialized = errors.New("stock already initialized")

	// ErrUnauthenticated means no owner identity could be established.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStorageUnavailable wraps persistence failures below the processor.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
