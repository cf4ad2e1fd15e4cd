package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// WeightedAverageCost derives the per-animal cost basis from a stock history:
// the total acquisition expense across every initial/addition batch divided
// by the total units those batches brought in. This is a batch-weighted
// average over the full history, not a FIFO consumption model; a single
// fungible flock does not track which individual animals were sold.
//
// Entries dated after cutoff are ignored; a nil cutoff considers the whole
// history. When the history folds to no live animals the basis is zero, and
// acquisition batches with no expense record contribute units at zero cost.
func WeightedAverageCost(history []models.LedgerEntry, cutoff *time.Time) decimal.Decimal {
	remaining := 0
	for _, entry := range history {
		if cutoff != nil && entry.Date.After(*cutoff) {
			continue
		}
		if entry.IsAcquisition() {
			remaining += entry.Quantity
		} else {
			remaining -= entry.Quantity
		}
	}
	if remaining <= 0 {
		return decimal.Zero
	}

	totalCost := decimal.Zero
	totalUnits := 0
	for _, entry := range history {
		if cutoff != nil && entry.Date.After(*cutoff) {
			continue
		}
		if !entry.IsAcquisition() {
			continue
		}
		if entry.Expenses != nil {
			totalCost = totalCost.Add(ExpenseTotal(*entry.Expenses))
		}
		totalUnits += entry.Quantity
	}
	if totalUnits == 0 {
		return decimal.Zero
	}
	return totalCost.Div(decimal.NewFromInt(int64(totalUnits)))
}
