package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	catalogCacheKey = "catalog:products"
	catalogCacheTTL = 4 * time.Hour
)

// CatalogService exposes the products sales and gifts refer to.
type CatalogService interface {
	List(ctx context.Context) ([]dto.ProductResponse, error)
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
}

type catalogService struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

// NewCatalogService builds the service. rdb may be nil, which disables caching.
func NewCatalogService(repo repository.ProductRepository, rdb *redis.Client) CatalogService {
	return &catalogService{repo: repo, rdb: rdb}
}

func (s *catalogService) List(ctx context.Context) ([]dto.ProductResponse, error) {
	// 1. Try Redis cache
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, catalogCacheKey).Bytes(); err == nil {
			var resp []dto.ProductResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return resp, nil
			}
		}
	}

	// 2. Cache miss, query DB
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = productToResponse(&products[i])
	}

	// 3. Populate cache, best effort
	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, catalogCacheKey, b, catalogCacheTTL).Err()
		}
	}
	return resp, nil
}

func (s *catalogService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		Cost:        req.Cost,
		Stock:       req.Stock,
		Size:        strings.TrimSpace(req.Size),
		Color:       strings.TrimSpace(req.Color),
		Description: trimmedPtr(req.Description),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, catalogCacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("catalog: cache invalidation failed")
		}
	}
	resp := productToResponse(p)
	return &resp, nil
}
