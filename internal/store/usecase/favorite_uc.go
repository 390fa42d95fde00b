package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

// FavoriteUsecase toggles and reads the per-user hearts set.
type FavoriteUsecase struct {
	users  domain.UserRepository
	stores domain.StoreRepository
	events EventPublisher
	logger *logger.Logger
}

func NewFavoriteUsecase(users domain.UserRepository, stores domain.StoreRepository, events EventPublisher, log *logger.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{
		users:  users,
		stores: stores,
		events: events,
		logger: log.Named("FavoriteUsecase"),
	}
}

// ToggleHeart flips the membership of storeID in the user's hearts set and
// returns the updated set. The repository guarantees the toggle is a single
// atomic update, so concurrent toggles from the same user cannot race.
func (uc *FavoriteUsecase) ToggleHeart(ctx context.Context, userID, storeID string) ([]string, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "must not be empty")
	}
	if storeID == "" {
		return nil, domain.NewValidationError("storeId", "must not be empty")
	}

	hearts, err := uc.users.ToggleHeart(ctx, userID, storeID)
	if err != nil {
		uc.logger.Error("Failed to toggle heart", zap.String("user_id", userID), zap.String("store_id", storeID), zap.Error(err))
		return nil, err
	}
	uc.logger.Info("Heart toggled", zap.String("user_id", userID), zap.String("store_id", storeID), zap.Int("hearts", len(hearts)))

	if uc.events != nil {
		event := StoreEvent{StoreID: storeID, Actor: userID}
		if err := uc.events.Publish(ctx, SubjectStoreHearted, event); err != nil {
			uc.logger.Warn("Failed to publish heart event", zap.Error(err))
		}
	}
	return hearts, nil
}

// ListHearted returns every store in the user's hearts set, in storage order.
func (uc *FavoriteUsecase) ListHearted(ctx context.Context, userID string) ([]*domain.Store, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "must not be empty")
	}

	hearts, err := uc.users.Hearts(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to read hearts", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("reading hearts for user %s: %w", userID, err)
	}
	if len(hearts) == 0 {
		return []*domain.Store{}, nil
	}
	return uc.stores.FindByIDs(ctx, hearts)
}
