package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/enums"
	pkgerrors "github.com/minsukang/storefront-backend/pkg/errors"
	"github.com/minsukang/storefront-backend/pkg/logger"
	"github.com/minsukang/storefront-backend/pkg/pagination"
)

// DefaultPopularLimit bounds the popular-products strip when the caller does
// not ask for a specific size.
const DefaultPopularLimit = 10

type catalogRepo interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActive(ctx context.Context, query ListQuery) (*ListResult, error)
	ListActiveByRecency(ctx context.Context, limit int, excludeIDs []uuid.UUID) ([]models.Product, error)
	SoldQuantities(ctx context.Context) ([]SoldQuantity, error)
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Service exposes the customer-facing catalog reads.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error)
	ListProducts(ctx context.Context, query ListQuery) (*ProductListResponse, error)
	PopularProducts(ctx context.Context, limit int) ([]ProductResponse, error)
}

type service struct {
	repo catalogRepo
	logg *logger.Logger
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo catalogRepo, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// GetProduct returns one active product. Missing and inactive ids both
// surface as not-found so inactive listings stay invisible.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	resp := toProductResponse(*product)
	return &resp, nil
}

// ListProducts returns one page of active products. The popularity sort is
// ranked over the order history; every other sort is pushed down to the
// repository.
func (s *service) ListProducts(ctx context.Context, query ListQuery) (*ProductListResponse, error) {
	if query.Sort == enums.ProductSortPopularity {
		return s.listByPopularity(ctx, query)
	}

	result, err := s.repo.ListActive(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	return &ProductListResponse{
		Products: toProductResponses(result.Products),
		Page:     result.Page,
	}, nil
}

// PopularProducts returns up to limit products ranked by total units sold,
// backfilled with recency-ordered actives when the order history is thin.
func (s *service) PopularProducts(ctx context.Context, limit int) ([]ProductResponse, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	if limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}

	ranked, err := s.rankedActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return toProductResponses(ranked), nil
}

func (s *service) listByPopularity(ctx context.Context, query ListQuery) (*ProductListResponse, error) {
	ranked, err := s.rankedActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	if query.Category != nil {
		filtered := ranked[:0:0]
		for _, p := range ranked {
			if p.Category != nil && *p.Category == *query.Category {
				filtered = append(filtered, p)
			}
		}
		ranked = filtered
	}

	page := pagination.Resolve(query.Pagination, int64(len(ranked)))
	start := page.Offset()
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + page.Limit
	if end > len(ranked) {
		end = len(ranked)
	}

	return &ProductListResponse{
		Products: toProductResponses(ranked[start:end]),
		Page:     page,
	}, nil
}

// rankedActiveProducts orders every active product: sold-quantity ranking
// first, then the remaining actives newest-first. A failed aggregation falls
// back to pure recency instead of failing the read.
func (s *service) rankedActiveProducts(ctx context.Context) ([]models.Product, error) {
	sold, err := s.repo.SoldQuantities(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "popularity aggregation failed, falling back to recency")
		rows, err := s.repo.ListActiveByRecency(ctx, 0, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products by recency")
		}
		return rows, nil
	}

	rankedIDs := make([]uuid.UUID, 0, len(sold))
	for _, row := range sold {
		rankedIDs = append(rankedIDs, row.ProductID)
	}

	rankedProducts, err := s.repo.FindActiveByIDs(ctx, rankedIDs)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "loading ranked products failed, falling back to recency")
		rows, err := s.repo.ListActiveByRecency(ctx, 0, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products by recency")
		}
		return rows, nil
	}
	byID := make(map[uuid.UUID]models.Product, len(rankedProducts))
	for _, p := range rankedProducts {
		byID[p.ID] = p
	}

	ordered := make([]models.Product, 0, len(rankedIDs))
	for _, id := range rankedIDs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	// A failed backfill shortens the result instead of failing the read.
	backfill, err := s.repo.ListActiveByRecency(ctx, 0, rankedIDs)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "popularity backfill failed, returning ranked products only")
		return ordered, nil
	}
	return append(ordered, backfill...), nil
}
