package usecase

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

// TopStoresLimit caps the top-stores ranking.
const TopStoresLimit = 10

// RatingUsecase joins stores with the external review aggregate and ranks
// them. It never writes to the review source.
type RatingUsecase struct {
	stores  domain.StoreRepository
	reviews domain.ReviewSource
	logger  *logger.Logger
}

func NewRatingUsecase(stores domain.StoreRepository, reviews domain.ReviewSource, log *logger.Logger) *RatingUsecase {
	return &RatingUsecase{
		stores:  stores,
		reviews: reviews,
		logger:  log.Named("RatingUsecase"),
	}
}

// TopStores ranks stores by average rating descending, review count
// descending, then slug ascending so the order is total and stable. Stores
// with no reviews rank last with an average of 0. At most TopStoresLimit
// entries are returned.
func (uc *RatingUsecase) TopStores(ctx context.Context) ([]*domain.RatedStore, error) {
	stores, err := uc.stores.FindAll(ctx)
	if err != nil {
		uc.logger.Error("Failed to load stores for ranking", zap.Error(err))
		return nil, err
	}
	summaries, err := uc.reviews.RatingSummaries(ctx)
	if err != nil {
		uc.logger.Error("Failed to load rating summaries", zap.Error(err))
		return nil, err
	}

	rated := make([]*domain.RatedStore, 0, len(stores))
	for _, s := range stores {
		summary := summaries[s.ID]
		rated = append(rated, &domain.RatedStore{
			Store:         s,
			AverageRating: summary.AverageRating,
			ReviewCount:   summary.ReviewCount,
		})
	}

	sort.Slice(rated, func(i, j int) bool {
		if rated[i].AverageRating != rated[j].AverageRating {
			return rated[i].AverageRating > rated[j].AverageRating
		}
		if rated[i].ReviewCount != rated[j].ReviewCount {
			return rated[i].ReviewCount > rated[j].ReviewCount
		}
		return rated[i].Store.Slug < rated[j].Store.Slug
	})

	if len(rated) > TopStoresLimit {
		rated = rated[:TopStoresLimit]
	}
	return rated, nil
}
