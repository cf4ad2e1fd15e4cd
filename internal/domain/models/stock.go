package models

import "time"

// StockState is the materialized view of one livestock category owned by a
// single user: the current head-count plus the full ordered event history it
// was folded from. The ledger is the source of truth; CurrentBirds is a
// cached projection that must never diverge from the fold of Entries.
//
// Version implements optimistic concurrency control: every persisted
// replacement of the state increments it, and a writer whose read is stale
// fails its commit instead of overwriting a concurrent update.
type StockState struct {
	OwnerID      string        `bson:"ownerId" json:"ownerId"`
	Category     string        `bson:"category" json:"category"`
	CurrentBirds int           `bson:"currentBirds" json:"currentBirds"`
	Version      int64         `bson:"version" json:"version"`
	Entries      []LedgerEntry `bson:"entries" json:"entries"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}
