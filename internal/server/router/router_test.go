package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockbook/internal/server/handlers"
	"github.com/mamadbah2/stockbook/internal/service/identity"
	"github.com/mamadbah2/stockbook/internal/service/sales"
)

type nilStore struct{ sales.Store }

func TestRouterAuth(t *testing.T) {
	resolver := identity.NewStaticResolver(map[string]string{"tok": "owner-1"}, nil)
	handler := handlers.NewLedgerHandler(sales.NewProcessor(nilStore{}, nil, nil), nil)
	engine := New(handler, resolver, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	resolver := identity.NewStaticResolver(nil, nil)
	handler := handlers.NewLedgerHandler(sales.NewProcessor(nilStore{}, nil, nil), nil)
	engine := New(handler, resolver, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
