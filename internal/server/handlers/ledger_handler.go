package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/ledger"
	"github.com/mamadbah2/stockbook/internal/service/sales"
)

// OwnerContextKey is where the auth middleware stores the resolved owner id.
const OwnerContextKey = "ownerID"

// LedgerHandler exposes the stock ledger and sale operations over HTTP.
type LedgerHandler struct {
	processor *sales.Processor
	logger    *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(processor *sales.Processor, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{processor: processor, logger: logger}
}

type expensePayload struct {
	AcquisitionCost float64 `json:"acquisitionCost" binding:"gte=0"`
	Medicine        float64 `json:"medicine" binding:"gte=0"`
	Feed            float64 `json:"feed" binding:"gte=0"`
	Miscellaneous   float64 `json:"miscellaneous" binding:"gte=0"`
}

func (p *expensePayload) toRecord() *models.ExpenseRecord {
	if p == nil {
		return nil
	}
	return &models.ExpenseRecord{
		AcquisitionCost: p.AcquisitionCost,
		Medicine:        p.Medicine,
		Feed:            p.Feed,
		Miscellaneous:   p.Miscellaneous,
	}
}

type initStockRequest struct {
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	Expenses    *expensePayload `json:"expenses"`
	Description string          `json:"description"`
}

type additionRequest struct {
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	Expenses    *expensePayload `json:"expenses"`
	Description string          `json:"description"`
}

type deathRequest struct {
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Description string `json:"description"`
}

type saleRequest struct {
	Category     string  `json:"category" binding:"required"`
	Quantity     int     `json:"quantity" binding:"required,gt=0"`
	PricePerUnit float64 `json:"pricePerUnit" binding:"gte=0"`
}

// InitializeStock opens a new category with its initial entry.
func (h *LedgerHandler) InitializeStock(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	var req initStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid init payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	state, err := h.processor.InitializeStock(c.Request.Context(), owner, c.Param("category"), req.Quantity, req.Expenses.toRecord(), req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

// GetStock returns the current stock state summary for a category.
func (h *LedgerHandler) GetStock(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	state, err := h.processor.GetStockState(c.Request.Context(), owner, c.Param("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category":     state.Category,
		"currentBirds": state.CurrentBirds,
		"updatedAt":    state.UpdatedAt,
		"entries":      len(state.Entries),
	})
}

// GetHistory returns the ordered ledger entries for a category.
func (h *LedgerHandler) GetHistory(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	state, err := h.processor.GetStockState(c.Request.Context(), owner, c.Param("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": state.Category, "history": state.Entries})
}

// GetCostBasis returns the current weighted-average cost per animal.
func (h *LedgerHandler) GetCostBasis(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	basis, err := h.processor.CostBasis(c.Request.Context(), owner, c.Param("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": c.Param("category"), "costPerUnit": basis})
}

// RecordAddition appends an acquisition batch.
func (h *LedgerHandler) RecordAddition(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	var req additionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid addition payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	state, err := h.processor.RecordAddition(c.Request.Context(), owner, c.Param("category"), req.Quantity, req.Expenses.toRecord(), req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// RecordDeath appends a mortality entry.
func (h *LedgerHandler) RecordDeath(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	var req deathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid death payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	state, err := h.processor.RecordDeath(c.Request.Context(), owner, c.Param("category"), req.Quantity, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// CommitSale runs the atomic sale transaction.
func (h *LedgerHandler) CommitSale(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid sale payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sale, err := h.processor.CommitSale(c.Request.Context(), owner, req.Category, req.Quantity, req.PricePerUnit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// ListSales returns the owner's sale records, optionally filtered by the
// category query parameter.
func (h *LedgerHandler) ListSales(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	salesList, err := h.processor.ListSales(c.Request.Context(), owner, c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if salesList == nil {
		salesList = []models.Sale{}
	}
	c.JSON(http.StatusOK, gin.H{"sales": salesList})
}

// respondError maps the ledger error taxonomy onto HTTP statuses.
func (h *LedgerHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.Is(err, ledger.ErrStockNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrAlreadyInitialized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "stock changed concurrently, please resubmit"})
	case errors.Is(err, ledger.ErrStorageUnavailable):
		h.logger.Error("storage failure", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		h.logger.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func ownerFrom(c *gin.Context) (string, bool) {
	owner := c.GetString(OwnerContextKey)
	if owner == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return "", false
	}
	return owner, true
}
