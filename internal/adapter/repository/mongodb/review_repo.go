package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

const reviewCollectionName = "reviews"

// ReviewRepository is the read-only aggregate view over the external reviews
// collection. The engine never writes here.
type ReviewRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewReviewRepository(db *mongo.Database, log *logger.Logger) *ReviewRepository {
	return &ReviewRepository{
		collection: db.Collection(reviewCollectionName),
		logger:     log.Named("ReviewRepository"),
	}
}

type ratingRow struct {
	StoreID       string  `bson:"_id"`
	AverageRating float64 `bson:"average_rating"`
	ReviewCount   int64   `bson:"count"`
}

// RatingSummary computes the average rating and count for one store. A store
// with no reviews gets the zero summary, not an error.
func (r *ReviewRepository) RatingSummary(ctx context.Context, storeID string) (domain.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "store_id", Value: storeID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$store_id"},
			{Key: "average_rating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate rating summary", zap.String("store_id", storeID), zap.Error(err))
		return domain.RatingSummary{}, storageErr("aggregate rating summary", err)
	}
	defer cursor.Close(ctx)

	var rows []ratingRow
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.RatingSummary{}, storageErr("decode rating summary", err)
	}
	if len(rows) == 0 {
		return domain.RatingSummary{}, nil
	}
	return domain.RatingSummary{
		AverageRating: rows[0].AverageRating,
		ReviewCount:   rows[0].ReviewCount,
	}, nil
}

// RatingSummaries computes the aggregate for every reviewed store in one
// pass. Stores without reviews are absent from the result.
func (r *ReviewRepository) RatingSummaries(ctx context.Context) (map[string]domain.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$store_id"},
			{Key: "average_rating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate rating summaries", zap.Error(err))
		return nil, storageErr("aggregate rating summaries", err)
	}
	defer cursor.Close(ctx)

	var rows []ratingRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, storageErr("decode rating summaries", err)
	}

	summaries := make(map[string]domain.RatingSummary, len(rows))
	for _, row := range rows {
		summaries[row.StoreID] = domain.RatingSummary{
			AverageRating: row.AverageRating,
			ReviewCount:   row.ReviewCount,
		}
	}
	return summaries, nil
}
