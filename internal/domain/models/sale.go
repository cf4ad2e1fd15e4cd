package models

import "time"

// Sale is the standalone record of one committed sale transaction, stored
// independently of the stock state for reporting. It is created exactly once
// at commit time and immutable thereafter; CostPerUnit is the weighted
// average cost basis frozen when the sale committed.
type Sale struct {
	ID            string    `bson:"id" json:"id"`
	OwnerID       string    `bson:"ownerId" json:"ownerId"`
	Category      string    `bson:"category" json:"category"`
	Quantity      int       `bson:"quantity" json:"quantity"`
	PricePerUnit  float64   `bson:"pricePerUnit" json:"pricePerUnit"`
	CostPerUnit   float64   `bson:"costPerUnit" json:"costPerUnit"`
	TotalAmount   float64   `bson:"totalAmount" json:"totalAmount"`
	ProfitPerUnit float64   `bson:"profitPerUnit" json:"profitPerUnit"`
	TotalProfit   float64   `bson:"totalProfit" json:"totalProfit"`
	Date          time.Time `bson:"date" json:"date"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}
