package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

func TestExpenseTotal(t *testing.T) {
	expenses := models.ExpenseRecord{
		AcquisitionCost: 12000,
		Medicine:        800,
		Feed:            4500,
		Miscellaneous:   200,
	}

	require.InDelta(t, 17500.0, ExpenseTotal(expenses).InexactFloat64(), 0.0001)
}

func TestExpenseTotalZeroRecord(t *testing.T) {
	require.True(t, ExpenseTotal(models.ExpenseRecord{}).IsZero())
}

func TestExpensePerUnit(t *testing.T) {
	expenses := models.ExpenseRecord{AcquisitionCost: 15000}

	require.InDelta(t, 150.0, ExpensePerUnit(expenses, 100).InexactFloat64(), 0.0001)
	require.True(t, ExpensePerUnit(expenses, 0).IsZero())
	require.True(t, ExpensePerUnit(expenses, -5).IsZero())
}

func TestValidateExpenses(t *testing.T) {
	require.NoError(t, ValidateExpenses(models.ExpenseRecord{AcquisitionCost: 100, Feed: 50}))
	require.NoError(t, ValidateExpenses(models.ExpenseRecord{}))

	err := ValidateExpenses(models.ExpenseRecord{Medicine: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}
