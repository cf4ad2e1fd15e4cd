package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// ValidateExpenses rejects expense records carrying a negative field.
func ValidateExpenses(expenses models.ExpenseRecord) error {
	fields := map[string]float64{
		"acquisitionCost": expenses.AcquisitionCost,
		"medicine":        expenses.Medicine,
		"feed":            expenses.Feed,
		"miscellaneous":   expenses.Miscellaneous,
	}
	for name, value := range fields {
		if value < 0 {
			return fmt.Errorf("%w: expense field %s is negative", ErrInvalidInput, name)
		}
	}
	return nil
}

// ExpenseTotal sums the four expense fields of one batch.
func ExpenseTotal(expenses models.ExpenseRecord) decimal.Decimal {
	return decimal.NewFromFloat(expenses.AcquisitionCost).
		Add(decimal.NewFromFloat(expenses.Medicine)).
		Add(decimal.NewFromFloat(expenses.Feed)).
		Add(decimal.NewFromFloat(expenses.Miscellaneous))
}

// ExpensePerUnit divides the batch total across totalUnits animals.
// A non-positive totalUnits yields zero rather than an error.
func ExpensePerUnit(expenses models.ExpenseRecord, totalUnits int) decimal.Decimal {
	if totalUnits <= 0 {
		return decimal.Zero
	}
	return ExpenseTotal(expenses).Div(decimal.NewFromInt(int64(totalUnits)))
}
