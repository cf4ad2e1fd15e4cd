package ledger

import (
	"fmt"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// Apply folds one proposed entry into a stock state and returns the
// resulting state. The input state is never mutated: the entry history is
// copied, the entry gets its RemainingStock snapshot, and the head-count and
// last-updated marker move forward. Persistence is the caller's concern.
//
// Deaths and sales exceeding the current head-count fail with
// ErrInsufficientStock and leave nothing applied.
func Apply(state models.StockState, entry models.LedgerEntry) (models.StockState, error) {
	if entry.Quantity <= 0 {
		return models.StockState{}, fmt.Errorf("%w: entry quantity must be positive, got %d", ErrInvalidInput, entry.Quantity)
	}

	var newCount int
	switch entry.Type {
	case models.EntryInitial, models.EntryAddition:
		newCount = state.CurrentBirds + entry.Quantity
	case models.EntryDeath, models.EntrySale:
		if entry.Quantity > state.CurrentBirds {
			return models.StockState{}, fmt.Errorf("%w: requested %d of %d available", ErrInsufficientStock, entry.Quantity, state.CurrentBirds)
		}
		newCount = state.CurrentBirds - entry.Quantity
	default:
		return models.StockState{}, fmt.Errorf("%w: unknown entry type %q", ErrInvalidInput, entry.Type)
	}

	entry.RemainingStock = newCount

	entries := make([]models.LedgerEntry, 0, len(state.Entries)+1)
	entries = append(entries, state.Entries...)
	entries = append(entries, entry)

	next := state
	next.CurrentBirds = newCount
	next.Entries = entries
	next.UpdatedAt = entry.Date
	return next, nil
}

// FoldHeadCount replays a history and returns the net head-count. The audit
// job compares this against the cached CurrentBirds projection.
func FoldHeadCount(history []models.LedgerEntry) int {
	count := 0
	for _, entry := range history {
		if entry.IsAcquisition() {
			count += entry.Quantity
		} else {
			count -= entry.Quantity
		}
	}
	return count
}
