package models

import "time"

// EntryType discriminates the kind of stock-affecting event a ledger entry records.
type EntryType string

const (
	// EntryInitial is the opening stock of a category, recorded once at setup.
	EntryInitial EntryType = "initial"
	// EntryAddition is a new acquisition batch added to an existing category.
	EntryAddition EntryType = "addition"
	// EntryDeath records a loss of animals; no expense is attached.
	EntryDeath EntryType = "death"
	// EntrySale records animals sold, with the price and frozen cost basis.
	EntrySale EntryType = "sale"
)

// ExpenseRecord captures the costs attributable to one acquisition batch.
// All fields are amounts in the farm currency and must be non-negative.
type ExpenseRecord struct {
	AcquisitionCost float64 `bson:"acquisitionCost" json:"acquisitionCost"`
	Medicine        float64 `bson:"medicine" json:"medicine"`
	Feed            float64 `bson:"feed" json:"feed"`
	Miscellaneous   float64 `bson:"miscellaneous" json:"miscellaneous"`
}

// LedgerEntry is one immutable stock-affecting event. Entries are only ever
// appended to a stock state's history, never edited or reordered.
//
// RemainingStock is the head-count immediately after this entry, frozen at
// append time so history views never need to replay the ledger. For sale
// entries PricePerUnit and CostPerUnit carry the amounts used at commit time;
// CostPerUnit is never recomputed afterwards.
type LedgerEntry struct {
	ID             string         `bson:"id" json:"id"`
	Type           EntryType      `bson:"type" json:"type"`
	Quantity       int            `bson:"quantity" json:"quantity"`
	Expenses       *ExpenseRecord `bson:"expenses,omitempty" json:"expenses,omitempty"`
	PricePerUnit   float64        `bson:"pricePerUnit,omitempty" json:"pricePerUnit,omitempty"`
	CostPerUnit    float64        `bson:"costPerUnit,omitempty" json:"costPerUnit,omitempty"`
	Description    string         `bson:"description" json:"description"`
	Date           time.Time      `bson:"date" json:"date"`
	RemainingStock int            `bson:"remainingStock" json:"remainingStock"`
}

// IsAcquisition reports whether the entry adds animals to the stock.
func (e LedgerEntry) IsAcquisition() bool {
	return e.Type == EntryInitial || e.Type == EntryAddition
}
