package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productsvc "github.com/minsukang/storefront-backend/internal/products"
	"github.com/minsukang/storefront-backend/pkg/enums"
	pkgerrors "github.com/minsukang/storefront-backend/pkg/errors"
	"github.com/minsukang/storefront-backend/pkg/logger"
	"github.com/minsukang/storefront-backend/pkg/pagination"
)

type stubProductService struct {
	lastQuery *productsvc.ListQuery
	lastLimit int
	product   *productsvc.ProductResponse
	err       error
}

func (s *stubProductService) GetProduct(_ context.Context, id uuid.UUID) (*productsvc.ProductResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func (s *stubProductService) ListProducts(_ context.Context, query productsvc.ListQuery) (*productsvc.ProductListResponse, error) {
	s.lastQuery = &query
	if s.err != nil {
		return nil, s.err
	}
	return &productsvc.ProductListResponse{
		Products: []productsvc.ProductResponse{},
		Page:     pagination.Resolve(query.Pagination, 0),
	}, nil
}

func (s *stubProductService) PopularProducts(_ context.Context, limit int) ([]productsvc.ProductResponse, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return []productsvc.ProductResponse{}, nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func productsRouter(svc productsvc.Service) http.Handler {
	logg := testControllerLogger()
	r := chi.NewRouter()
	r.Get("/products", ListProducts(svc, logg))
	r.Get("/products/popular", PopularProducts(svc, logg))
	r.Get("/products/{productId}", GetProduct(svc, logg))
	return r
}

func TestListProductsParsesQuery(t *testing.T) {
	svc := &stubProductService{}
	router := productsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/products?page=2&limit=5&category=electronics&sort=price-asc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastQuery)
	assert.Equal(t, 2, svc.lastQuery.Pagination.Page)
	assert.Equal(t, 5, svc.lastQuery.Pagination.Limit)
	require.NotNil(t, svc.lastQuery.Category)
	assert.Equal(t, enums.ProductCategoryElectronics, *svc.lastQuery.Category)
	assert.Equal(t, enums.ProductSortPriceAsc, svc.lastQuery.Sort)
}

func TestListProductsRejectsUnknownCategory(t *testing.T) {
	router := productsRouter(&stubProductService{})

	req := httptest.NewRequest(http.MethodGet, "/products?category=vehicles", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown category")
}

func TestListProductsRejectsBadPage(t *testing.T) {
	router := productsRouter(&stubProductService{})

	req := httptest.NewRequest(http.MethodGet, "/products?page=zero", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPopularProductsDefaultsLimit(t *testing.T) {
	svc := &stubProductService{}
	router := productsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/products/popular", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productsvc.DefaultPopularLimit, svc.lastLimit)
}

func TestGetProductHappyPath(t *testing.T) {
	product := &productsvc.ProductResponse{
		ID:    uuid.New(),
		Name:  "lamp",
		Price: decimal.RequireFromString("19.90"),
	}
	router := productsRouter(&stubProductService{product: product})

	req := httptest.NewRequest(http.MethodGet, "/products/"+product.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data productsvc.ProductResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, product.ID, envelope.Data.ID)
	assert.Equal(t, "lamp", envelope.Data.Name)
}

func TestGetProductRejectsMalformedID(t *testing.T) {
	router := productsRouter(&stubProductService{})

	req := httptest.NewRequest(http.MethodGet, "/products/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProductPropagatesNotFound(t *testing.T) {
	router := productsRouter(&stubProductService{
		err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found"),
	})

	req := httptest.NewRequest(http.MethodGet, "/products/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "product not found")
}
