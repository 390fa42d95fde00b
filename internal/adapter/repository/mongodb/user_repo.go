package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

const userCollectionName = "users"

// UserRepository reads and toggles the hearts set embedded on user records.
// The engine references users, it does not own them.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{
		collection: db.Collection(userCollectionName),
		logger:     log.Named("UserRepository"),
	}
}

// ToggleHeart flips storeID's membership in the user's hearts set with a
// single pipeline update, so two concurrent toggles from the same user
// serialize on the document instead of losing one of the writes. The set can
// never hold duplicates: an add is a concat guarded by the same $in that
// routes repeats to the remove branch.
func (r *UserRepository) ToggleHeart(ctx context.Context, userID, storeID string) ([]string, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id %q", domain.ErrNotFound, userID)
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "hearts", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$in", Value: bson.A{storeID, bson.D{{Key: "$ifNull", Value: bson.A{"$hearts", bson.A{}}}}}}},
					bson.D{{Key: "$setDifference", Value: bson.A{"$hearts", bson.A{storeID}}}},
					bson.D{{Key: "$concatArrays", Value: bson.A{
						bson.D{{Key: "$ifNull", Value: bson.A{"$hearts", bson.A{}}}},
						bson.A{storeID},
					}}},
				}},
			}},
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"hearts": 1})

	var doc struct {
		Hearts []string `bson:"hearts"`
	}
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		r.logger.Error("ToggleHeart update failed", zap.String("user_id", userID), zap.String("store_id", storeID), zap.Error(err))
		return nil, storageErr("toggle heart", err)
	}

	if doc.Hearts == nil {
		doc.Hearts = []string{}
	}
	return doc.Hearts, nil
}

// Hearts returns the user's hearts set, empty when the user has none.
func (r *UserRepository) Hearts(ctx context.Context, userID string) ([]string, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id %q", domain.ErrNotFound, userID)
	}

	var doc struct {
		Hearts []string `bson:"hearts"`
	}
	opts := options.FindOne().SetProjection(bson.M{"hearts": 1})
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		return nil, storageErr("read hearts", err)
	}

	if doc.Hearts == nil {
		doc.Hearts = []string{}
	}
	return doc.Hearts, nil
}
