package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

const (
	// TextSearchLimit caps relevance search results.
	TextSearchLimit = 5
	// ProximityLimit caps proximity search results.
	ProximityLimit = 10
	// ProximityRadiusMeters is the fixed proximity search radius.
	ProximityRadiusMeters = 10000
)

// SearchUsecase wraps the storage engine's text-relevance and geospatial
// primitives. Both operations are read-only and side-effect free.
type SearchUsecase struct {
	repo   domain.StoreRepository
	logger *logger.Logger
}

func NewSearchUsecase(repo domain.StoreRepository, log *logger.Logger) *SearchUsecase {
	return &SearchUsecase{repo: repo, logger: log.Named("SearchUsecase")}
}

// SearchByText returns up to TextSearchLimit stores ranked by the text
// index's relevance score. Ties keep the index's native order.
func (uc *SearchUsecase) SearchByText(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", domain.ErrInvalidQuery)
	}

	results, err := uc.repo.SearchText(ctx, query, TextSearchLimit)
	if err != nil {
		uc.logger.Error("Text search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return results, nil
}

// SearchByProximity returns up to ProximityLimit store previews within
// ProximityRadiusMeters of the point, nearest first.
func (uc *SearchUsecase) SearchByProximity(ctx context.Context, lat, lng float64) ([]*domain.StorePreview, error) {
	if !domain.CoordinatesInRange(lat, lng) {
		return nil, fmt.Errorf("%w: coordinates (%v, %v) out of range", domain.ErrInvalidQuery, lat, lng)
	}

	previews, err := uc.repo.FindNear(ctx, lat, lng, ProximityRadiusMeters, ProximityLimit)
	if err != nil {
		uc.logger.Error("Proximity search failed", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		return nil, err
	}
	return previews, nil
}
