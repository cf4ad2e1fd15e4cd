package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/ledger"
)

const (
	stockStatesCollection = "stock_states"
	salesCollection       = "sales"
)

// LedgerRepository persists stock states and sale records in MongoDB.
// Stock state writes are guarded by a version field: an update filters on
// the version the writer read, so a stale writer matches nothing and gets
// ledger.ErrVersionConflict instead of clobbering a concurrent commit.
type LedgerRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

// NewLedgerRepository connects to MongoDB, verifies the connection and
// ensures the indexes the ledger relies on.
func NewLedgerRepository(ctx context.Context, uri, dbName string, logger *zap.Logger) (*LedgerRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &LedgerRepository{client: client, dbName: dbName, logger: logger}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return repo, nil
}

func (r *LedgerRepository) ensureIndexes(ctx context.Context) error {
	stockIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "category", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.stockStates().Indexes().CreateMany(ctx, stockIndexes); err != nil {
		return err
	}

	saleIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "category", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := r.sales().Indexes().CreateMany(ctx, saleIndexes)
	return err
}

// GetStockState loads the current state for one owner and category.
func (r *LedgerRepository) GetStockState(ctx context.Context, owner, category string) (models.StockState, error) {
	var state models.StockState
	err := r.stockStates().FindOne(ctx, stateFilter(owner, category)).Decode(&state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StockState{}, fmt.Errorf("%w: %s/%s", ledger.ErrStockNotFound, owner, category)
	}
	if err != nil {
		return models.StockState{}, fmt.Errorf("%w: find stock state: %v", ledger.ErrStorageUnavailable, err)
	}
	return state, nil
}

// CreateStockState inserts the opening state for a category. The unique
// owner+category index turns a second initialization into
// ledger.ErrAlreadyInitialized.
func (r *LedgerRepository) CreateStockState(ctx context.Context, state models.StockState) error {
	state.Version = 1
	_, err := r.stockStates().InsertOne(ctx, state)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s/%s", ledger.ErrAlreadyInitialized, state.OwnerID, state.Category)
	}
	if err != nil {
		return fmt.Errorf("%w: insert stock state: %v", ledger.ErrStorageUnavailable, err)
	}
	return nil
}

// ReplaceStockState swaps the stored state for next, provided nobody has
// written since prev was read.
func (r *LedgerRepository) ReplaceStockState(ctx context.Context, prev, next models.StockState) error {
	result, err := r.stockStates().UpdateOne(ctx, versionedFilter(prev), replacementUpdate(prev, next))
	if err != nil {
		return fmt.Errorf("%w: update stock state: %v", ledger.ErrStorageUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return ledger.ErrVersionConflict
	}
	return nil
}

// CommitSale performs the two-write commit as a single MongoDB transaction:
// the versioned stock state replacement and the sale insert either both
// land or neither does.
func (r *LedgerRepository) CommitSale(ctx context.Context, prev, next models.StockState, sale models.Sale) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %v", ledger.ErrStorageUnavailable, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		result, err := r.stockStates().UpdateOne(sessCtx, versionedFilter(prev), replacementUpdate(prev, next))
		if err != nil {
			return nil, fmt.Errorf("%w: update stock state: %v", ledger.ErrStorageUnavailable, err)
		}
		if result.MatchedCount == 0 {
			return nil, ledger.ErrVersionConflict
		}

		if _, err := r.sales().InsertOne(sessCtx, sale); err != nil {
			return nil, fmt.Errorf("%w: insert sale: %v", ledger.ErrStorageUnavailable, err)
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrVersionConflict) || errors.Is(err, ledger.ErrStorageUnavailable) {
			return err
		}
		return fmt.Errorf("%w: commit transaction: %v", ledger.ErrStorageUnavailable, err)
	}

	r.logger.Debug("sale committed to store",
		zap.String("saleId", sale.ID),
		zap.String("category", sale.Category),
		zap.Int64("newVersion", prev.Version+1))
	return nil
}

// ListSales returns the owner's sales newest first, optionally scoped to a
// category.
func (r *LedgerRepository) ListSales(ctx context.Context, owner, category string) ([]models.Sale, error) {
	filter := bson.M{"ownerId": owner}
	if category != "" {
		filter["category"] = category
	}

	cursor, err := r.sales().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: find sales: %v", ledger.ErrStorageUnavailable, err)
	}
	defer cursor.Close(ctx)

	var sales []models.Sale
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, fmt.Errorf("%w: decode sales: %v", ledger.ErrStorageUnavailable, err)
	}
	return sales, nil
}

// ListStockStates returns every stored state. The audit job walks this to
// re-fold each ledger against its cached head-count.
func (r *LedgerRepository) ListStockStates(ctx context.Context) ([]models.StockState, error) {
	cursor, err := r.stockStates().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: find stock states: %v", ledger.ErrStorageUnavailable, err)
	}
	defer cursor.Close(ctx)

	var states []models.StockState
	if err := cursor.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("%w: decode stock states: %v", ledger.ErrStorageUnavailable, err)
	}
	return states, nil
}

// Close closes the MongoDB connection.
func (r *LedgerRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *LedgerRepository) stockStates() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(stockStatesCollection)
}

func (r *LedgerRepository) sales() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(salesCollection)
}

func stateFilter(owner, category string) bson.M {
	return bson.M{"ownerId": owner, "category": category}
}

func versionedFilter(prev models.StockState) bson.M {
	return bson.M{"ownerId": prev.OwnerID, "category": prev.Category, "version": prev.Version}
}

func replacementUpdate(prev, next models.StockState) bson.M {
	return bson.M{"$set": bson.M{
		"currentBirds": next.CurrentBirds,
		"entries":      next.Entries,
		"updatedAt":    next.UpdatedAt,
		"version":      prev.Version + 1,
	}}
}
