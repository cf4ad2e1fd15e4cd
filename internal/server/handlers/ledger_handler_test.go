package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/ledger"
	"github.com/mamadbah2/stockbook/internal/service/sales"
)

// fakeStore is a versioned in-memory sales.Store for HTTP-level tests.
type fakeStore struct {
	mu     sync.Mutex
	states map[string]models.StockState
	sales  []models.Sale
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]models.StockState)}
}

func (s *fakeStore) key(owner, category string) string {
	return fmt.Sprintf("%s/%s", owner, category)
}

func (s *fakeStore) GetStockState(_ context.Context, owner, category string) (models.StockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[s.key(owner, category)]
	if !ok {
		return models.StockState{}, ledger.ErrStockNotFound
	}
	return state, nil
}

func (s *fakeStore) CreateStockState(_ context.Context, state models.StockState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(state.OwnerID, state.Category)
	if _, ok := s.states[key]; ok {
		return ledger.ErrAlreadyInitialized
	}
	state.Version = 1
	s.states[key] = state
	return nil
}

func (s *fakeStore) ReplaceStockState(_ context.Context, prev, next models.StockState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(prev, next)
}

func (s *fakeStore) CommitSale(_ context.Context, prev, next models.StockState, sale models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.replaceLocked(prev, next); err != nil {
		return err
	}
	s.sales = append(s.sales, sale)
	return nil
}

func (s *fakeStore) ListSales(_ context.Context, owner, category string) ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Sale
	for _, sale := range s.sales {
		if sale.OwnerID == owner && (category == "" || sale.Category == category) {
			result = append(result, sale)
		}
	}
	return result, nil
}

func (s *fakeStore) replaceLocked(prev, next models.StockState) error {
	key := s.key(prev.OwnerID, prev.Category)
	current, ok := s.states[key]
	if !ok {
		return ledger.ErrStockNotFound
	}
	if current.Version != prev.Version {
		return ledger.ErrVersionConflict
	}
	next.Version = prev.Version + 1
	s.states[key] = next
	return nil
}

func newTestEngine(store sales.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewLedgerHandler(sales.NewProcessor(store, nil, nil), nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(OwnerContextKey, "owner-1")
		c.Next()
	})
	r.POST("/api/v1/stock/:category", handler.InitializeStock)
	r.GET("/api/v1/stock/:category", handler.GetStock)
	r.GET("/api/v1/stock/:category/history", handler.GetHistory)
	r.GET("/api/v1/stock/:category/cost", handler.GetCostBasis)
	r.POST("/api/v1/stock/:category/additions", handler.RecordAddition)
	r.POST("/api/v1/stock/:category/deaths", handler.RecordDeath)
	r.POST("/api/v1/sales", handler.CommitSale)
	r.GET("/api/v1/sales", handler.ListSales)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedBirds(t *testing.T, r *gin.Engine) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/stock/birds", gin.H{
		"quantity": 100,
		"expenses": gin.H{"acquisitionCost": 50000},
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestInitializeAndReadStock(t *testing.T) {
	r := newTestEngine(newFakeStore())
	seedBirds(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/stock/birds", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Category     string `json:"category"`
		CurrentBirds int    `json:"currentBirds"`
		Entries      int    `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "birds", resp.Category)
	require.Equal(t, 100, resp.CurrentBirds)
	require.Equal(t, 1, resp.Entries)
}

func TestInitializeTwiceConflicts(t *testing.T) {
	r := newTestEngine(newFakeStore())
	seedBirds(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/stock/birds", gin.H{"quantity": 10})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCommitSaleEndpoint(t *testing.T) {
	store := newFakeStore()
	r := newTestEngine(store)
	seedBirds(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", gin.H{
		"category":     "birds",
		"quantity":     20,
		"pricePerUnit": 700,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var sale models.Sale
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sale))
	require.Equal(t, 20, sale.Quantity)
	require.InDelta(t, 500.0, sale.CostPerUnit, 0.0001)
	require.InDelta(t, 4000.0, sale.TotalProfit, 0.0001)

	w = doJSON(t, r, http.MethodGet, "/api/v1/sales?category=birds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Sales []models.Sale `json:"sales"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Sales, 1)
}

func TestCommitSaleOversellRejected(t *testing.T) {
	store := newFakeStore()
	r := newTestEngine(store)
	seedBirds(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", gin.H{
		"category":     "birds",
		"quantity":     101,
		"pricePerUnit": 700,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Empty(t, store.sales)
}

func TestCommitSaleValidation(t *testing.T) {
	r := newTestEngine(newFakeStore())

	// Binding rejects a missing quantity before the processor runs.
	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", gin.H{"category": "birds"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/sales", gin.H{
		"category":     "birds",
		"quantity":     -2,
		"pricePerUnit": 700,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeathsAndCostEndpoints(t *testing.T) {
	r := newTestEngine(newFakeStore())
	seedBirds(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/stock/birds/additions", gin.H{
		"quantity": 50,
		"expenses": gin.H{"acquisitionCost": 30000},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/stock/birds/deaths", gin.H{"quantity": 10})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/stock/birds/cost", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var costResp struct {
		CostPerUnit float64 `json:"costPerUnit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &costResp))
	require.InDelta(t, 80000.0/150.0, costResp.CostPerUnit, 0.0001)

	w = doJSON(t, r, http.MethodGet, "/api/v1/stock/birds/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var histResp struct {
		History []models.LedgerEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &histResp))
	require.Len(t, histResp.History, 3)
	require.Equal(t, 140, histResp.History[2].RemainingStock)
}

func TestUnknownCategoryIs404(t *testing.T) {
	r := newTestEngine(newFakeStore())

	w := doJSON(t, r, http.MethodGet, "/api/v1/stock/goats", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
