package sales

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/ledger"
)

// Store is the narrow persistence surface the processor commits through.
// Writes are versioned: a commit whose prev state is stale must fail with
// ledger.ErrVersionConflict instead of overwriting a concurrent update.
type Store interface {
	GetStockState(ctx context.Context, owner, category string) (models.StockState, error)
	CreateStockState(ctx context.Context, state models.StockState) error
	ReplaceStockState(ctx context.Context, prev, next models.StockState) error
	CommitSale(ctx context.Context, prev, next models.StockState, sale models.Sale) error
	ListSales(ctx context.Context, owner, category string) ([]models.Sale, error)
}

// Notifier receives best-effort notifications after a sale has committed.
type Notifier interface {
	NotifySale(ctx context.Context, sale models.Sale) error
}

const (
	defaultMaxAttempts = 4
	retryBaseDelay     = 25 * time.Millisecond
)

// Processor owns every mutation of stock states and sale records. No other
// code path writes either collection; that exclusivity is what makes the
// atomicity guarantee meaningful.
type Processor struct {
	store       Store
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewProcessor wires a sale transaction processor. The notifier may be nil.
func NewProcessor(store Store, notifier Notifier, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
		sleep:       sleepCtx,
	}
}

// CommitSale atomically applies a sale: it validates the request against the
// current stock state, freezes the weighted-average cost basis, computes the
// profit figures and persists the decremented stock state together with the
// new sale record as one unit. A concurrent writer invalidating the read
// restarts the whole cycle, up to the retry bound.
//
// A sale below cost is legal and recorded as a loss.
func (p *Processor) CommitSale(ctx context.Context, owner, category string, quantity int, pricePerUnit float64) (models.Sale, error) {
	if owner == "" {
		return models.Sale{}, ledger.ErrUnauthenticated
	}
	if quantity <= 0 {
		return models.Sale{}, fmt.Errorf("%w: quantity must be positive, got %d", ledger.ErrInvalidInput, quantity)
	}
	if pricePerUnit < 0 {
		return models.Sale{}, fmt.Errorf("%w: price per unit must not be negative, got %.2f", ledger.ErrInvalidInput, pricePerUnit)
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, backoff(attempt)); err != nil {
				return models.Sale{}, err
			}
		}

		state, err := p.store.GetStockState(ctx, owner, category)
		if err != nil {
			return models.Sale{}, fmt.Errorf("read stock state: %w", err)
		}
		if quantity > state.CurrentBirds {
			return models.Sale{}, fmt.Errorf("%w: requested %d of %d available", ledger.ErrInsufficientStock, quantity, state.CurrentBirds)
		}

		cost := ledger.WeightedAverageCost(state.Entries, nil)
		now := p.now().UTC()
		sale := buildSale(owner, category, quantity, pricePerUnit, cost, now)

		entry := models.LedgerEntry{
			ID:           uuid.NewString(),
			Type:         models.EntrySale,
			Quantity:     quantity,
			PricePerUnit: pricePerUnit,
			CostPerUnit:  sale.CostPerUnit,
			Description:  fmt.Sprintf("Sold %d %s at %.2f each", quantity, category, pricePerUnit),
			Date:         now,
		}
		next, err := ledger.Apply(state, entry)
		if err != nil {
			return models.Sale{}, err
		}

		err = p.store.CommitSale(ctx, state, next, sale)
		if errors.Is(err, ledger.ErrVersionConflict) {
			p.logger.Debug("sale commit lost race, retrying",
				zap.String("category", category),
				zap.Int("attempt", attempt),
				zap.Int64("staleVersion", state.Version))
			continue
		}
		if err != nil {
			return models.Sale{}, fmt.Errorf("commit sale: %w", err)
		}

		p.logger.Info("sale committed",
			zap.String("saleId", sale.ID),
			zap.String("category", category),
			zap.Int("quantity", quantity),
			zap.Float64("pricePerUnit", pricePerUnit),
			zap.Float64("costPerUnit", sale.CostPerUnit),
			zap.Float64("totalProfit", sale.TotalProfit),
			zap.Int("remainingStock", next.CurrentBirds))
		p.notify(sale)
		return sale, nil
	}

	return models.Sale{}, fmt.Errorf("%w after %d attempts", ledger.ErrConflict, p.maxAttempts)
}

// InitializeStock creates the stock state for a category with its opening
// entry. It runs once per category at farm setup.
func (p *Processor) InitializeStock(ctx context.Context, owner, category string, quantity int, expenses *models.ExpenseRecord, description string) (models.StockState, error) {
	if owner == "" {
		return models.StockState{}, ledger.ErrUnauthenticated
	}
	if err := validateAcquisition(quantity, expenses); err != nil {
		return models.StockState{}, err
	}

	now := p.now().UTC()
	entry := models.LedgerEntry{
		ID:          uuid.NewString(),
		Type:        models.EntryInitial,
		Quantity:    quantity,
		Expenses:    expenses,
		Description: defaultDescription(description, fmt.Sprintf("Opening stock of %d %s", quantity, category)),
		Date:        now,
	}

	state, err := ledger.Apply(models.StockState{OwnerID: owner, Category: category}, entry)
	if err != nil {
		return models.StockState{}, err
	}

	if err := p.store.CreateStockState(ctx, state); err != nil {
		return models.StockState{}, fmt.Errorf("create stock state: %w", err)
	}

	p.logger.Info("stock initialized",
		zap.String("category", category),
		zap.Int("quantity", quantity))
	return state, nil
}

// RecordAddition appends a new acquisition batch to an existing category.
func (p *Processor) RecordAddition(ctx context.Context, owner, category string, quantity int, expenses *models.ExpenseRecord, description string) (models.StockState, error) {
	if err := validateAcquisition(quantity, expenses); err != nil {
		return models.StockState{}, err
	}
	return p.appendEntry(ctx, owner, category, func(now time.Time) models.LedgerEntry {
		return models.LedgerEntry{
			ID:          uuid.NewString(),
			Type:        models.EntryAddition,
			Quantity:    quantity,
			Expenses:    expenses,
			Description: defaultDescription(description, fmt.Sprintf("Added %d %s", quantity, category)),
			Date:        now,
		}
	})
}

// RecordDeath appends a mortality entry. Deaths carry no expense; the loss
// shows up through the shrinking head-count, not the cost basis.
func (p *Processor) RecordDeath(ctx context.Context, owner, category string, quantity int, description string) (models.StockState, error) {
	if quantity <= 0 {
		return models.StockState{}, fmt.Errorf("%w: quantity must be positive, got %d", ledger.ErrInvalidInput, quantity)
	}
	return p.appendEntry(ctx, owner, category, func(now time.Time) models.LedgerEntry {
		return models.LedgerEntry{
			ID:          uuid.NewString(),
			Type:        models.EntryDeath,
			Quantity:    quantity,
			Description: defaultDescription(description, fmt.Sprintf("Recorded %d %s lost", quantity, category)),
			Date:        now,
		}
	})
}

// GetStockState exposes the current state for display. Reads here are
// allowed to be stale; only the commit path requires strict consistency.
func (p *Processor) GetStockState(ctx context.Context, owner, category string) (models.StockState, error) {
	if owner == "" {
		return models.StockState{}, ledger.ErrUnauthenticated
	}
	return p.store.GetStockState(ctx, owner, category)
}

// CostBasis returns the current weighted-average cost per animal.
func (p *Processor) CostBasis(ctx context.Context, owner, category string) (float64, error) {
	state, err := p.GetStockState(ctx, owner, category)
	if err != nil {
		return 0, err
	}
	return ledger.WeightedAverageCost(state.Entries, nil).InexactFloat64(), nil
}

// ListSales returns the owner's sale records, optionally filtered by category.
func (p *Processor) ListSales(ctx context.Context, owner, category string) ([]models.Sale, error) {
	if owner == "" {
		return nil, ledger.ErrUnauthenticated
	}
	return p.store.ListSales(ctx, owner, category)
}

func (p *Processor) appendEntry(ctx context.Context, owner, category string, build func(now time.Time) models.LedgerEntry) (models.StockState, error) {
	if owner == "" {
		return models.StockState{}, ledger.ErrUnauthenticated
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, backoff(attempt)); err != nil {
				return models.StockState{}, err
			}
		}

		state, err := p.store.GetStockState(ctx, owner, category)
		if err != nil {
			return models.StockState{}, fmt.Errorf("read stock state: %w", err)
		}

		next, err := ledger.Apply(state, build(p.now().UTC()))
		if err != nil {
			return models.StockState{}, err
		}

		err = p.store.ReplaceStockState(ctx, state, next)
		if errors.Is(err, ledger.ErrVersionConflict) {
			p.logger.Debug("ledger append lost race, retrying",
				zap.String("category", category),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return models.StockState{}, fmt.Errorf("replace stock state: %w", err)
		}
		return next, nil
	}

	return models.StockState{}, fmt.Errorf("%w after %d attempts", ledger.ErrConflict, p.maxAttempts)
}

// notify fires the webhook outside the transaction. Failures are logged and
// never unwind an acknowledged commit.
func (p *Processor) notify(sale models.Sale) {
	if p.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.notifier.NotifySale(ctx, sale); err != nil {
			p.logger.Warn("sale notification failed", zap.String("saleId", sale.ID), zap.Error(err))
		}
	}()
}

func buildSale(owner, category string, quantity int, pricePerUnit float64, cost decimal.Decimal, now time.Time) models.Sale {
	price := decimal.NewFromFloat(pricePerUnit)
	qty := decimal.NewFromInt(int64(quantity))
	profitPerUnit := price.Sub(cost)

	return models.Sale{
		ID:            uuid.NewString(),
		OwnerID:       owner,
		Category:      category,
		Quantity:      quantity,
		PricePerUnit:  pricePerUnit,
		CostPerUnit:   cost.InexactFloat64(),
		TotalAmount:   price.Mul(qty).InexactFloat64(),
		ProfitPerUnit: profitPerUnit.InexactFloat64(),
		TotalProfit:   profitPerUnit.Mul(qty).InexactFloat64(),
		Date:          now,
		CreatedAt:     now,
	}
}

func validateAcquisition(quantity int, expenses *models.ExpenseRecord) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ledger.ErrInvalidInput, quantity)
	}
	if expenses != nil {
		return ledger.ValidateExpenses(*expenses)
	}
	return nil
}

func defaultDescription(given, fallback string) string {
	if given != "" {
		return given
	}
	return fallback
}

func backoff(attempt int) time.Duration {
	jitter := time.Duration(rand.Int63n(int64(retryBaseDelay)))
	return time.Duration(attempt-1)*retryBaseDelay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
