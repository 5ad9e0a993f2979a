package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvt/aquastore/internal/catalog"
	"github.com/minhvt/aquastore/internal/inventory"
	"github.com/minhvt/aquastore/internal/shop"
)

func TestRestock_Success(t *testing.T) {
	mock := &productStoreMock{product: catalog.Product{
		ID: "prod-1", Name: "Guppy", Available: 25, Active: true,
	}}
	h := &CatalogHandler{Products: mock}

	req := httptest.NewRequest(http.MethodPost, "/admin/products/prod-1/restock",
		strings.NewReader(`{"quantity":10,"note":"weekly shipment"}`))
	req = withParam(withUser(req, "admin", true), "productID", "prod-1")
	rec := do(h.restock, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 25, got.Available)
}

func TestRestock_NonPositiveQuantity(t *testing.T) {
	mock := &productStoreMock{err: fmt.Errorf("%w: restock quantity must be positive", shop.ErrBadRequest)}
	h := &CatalogHandler{Products: mock}

	req := httptest.NewRequest(http.MethodPost, "/admin/products/prod-1/restock",
		strings.NewReader(`{"quantity":0}`))
	req = withParam(withUser(req, "admin", true), "productID", "prod-1")
	rec := do(h.restock, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAudit_Balanced(t *testing.T) {
	mock := &auditStoreMock{audit: inventory.Audit{
		ProductID: "prod-1", Added: 20, Available: 12, Reserved: 3, Sold: 5, Counted: 20,
	}}
	h := &CatalogHandler{Audit: mock}

	req := httptest.NewRequest(http.MethodGet, "/admin/products/prod-1/audit", nil)
	req = withParam(withUser(req, "admin", true), "productID", "prod-1")
	rec := do(h.audit, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Balanced bool `json:"balanced"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Balanced)
}

func TestGetProduct_NotFound(t *testing.T) {
	mock := &productStoreMock{err: fmt.Errorf("%w: product gone", shop.ErrNotFound)}
	h := &CatalogHandler{Products: mock}

	req := httptest.NewRequest(http.MethodGet, "/products/nope", nil)
	rec := do(h.get, withParam(req, "productID", "nope"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
