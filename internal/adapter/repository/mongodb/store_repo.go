package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

const storeCollectionName = "stores"

// StoreRepository implements domain.StoreRepository on MongoDB. The slug
// carries a unique index, location a 2dsphere index and name+description a
// text index; the constructor ensures all three.
type StoreRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewStoreRepository creates the repository and ensures its indexes.
func NewStoreRepository(db *mongo.Database, log *logger.Logger) (*StoreRepository, error) {
	collection := db.Collection(storeCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Indexes may already exist or be managed out of band.
		log.Error("Failed to create indexes for stores collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for stores collection")
	}

	return &StoreRepository{
		collection: collection,
		logger:     log.Named("StoreRepository"),
	}, nil
}

// Create inserts a new store. The unique slug index is the backstop against
// a disambiguation race.
func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	doc, err := toStoreDocument(store)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	store.ID = doc.ID.Hex()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewValidationError("slug", fmt.Sprintf("%q is already taken", store.Slug))
		}
		r.logger.Error("InsertOne failed", zap.String("slug", store.Slug), zap.Error(err))
		return storageErr("insert store", err)
	}
	r.logger.Info("Store created", zap.String("id", store.ID), zap.String("slug", store.Slug))
	return nil
}

// Update applies the patch with one atomic FindOneAndUpdate and returns the
// document as written, so a concurrent reader never sees a half-applied edit.
func (r *StoreRepository) Update(ctx context.Context, id string, patch domain.StorePatch) (*domain.Store, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid store id %q", domain.ErrNotFound, id)
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Slug != nil {
		set["slug"] = *patch.Slug
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Tags != nil {
		set["tags"] = patch.Tags
	}
	if patch.Location != nil {
		set["location"] = geoPointDocument{
			Type:        domain.GeoJSONPoint,
			Coordinates: patch.Location.Coordinates,
		}
	}
	if patch.Photo != nil {
		set["photo"] = *patch.Photo
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc storeDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: id %s", domain.ErrNotFound, id)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.NewValidationError("slug", "already taken")
		}
		r.logger.Error("FindOneAndUpdate failed", zap.String("id", id), zap.Error(err))
		return nil, storageErr("update store", err)
	}
	return toDomainStore(&doc), nil
}

func (r *StoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid store id %q", domain.ErrNotFound, id)
	}

	var doc storeDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: id %s", domain.ErrNotFound, id)
		}
		return nil, storageErr("find store by id", err)
	}
	return toDomainStore(&doc), nil
}

func (r *StoreRepository) FindBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	var doc storeDocument
	if err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: slug %q", domain.ErrNotFound, slug)
		}
		return nil, storageErr("find store by slug", err)
	}
	return toDomainStore(&doc), nil
}

// FindPage returns one window of the directory, newest first, plus the total
// count for pagination.
func (r *StoreRepository) FindPage(ctx context.Context, skip, limit int64) ([]*domain.Store, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, storageErr("count stores", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, storageErr("find store page", err)
	}
	defer cursor.Close(ctx)

	var docs []*storeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, storageErr("decode store page", err)
	}
	return toDomainStores(docs), total, nil
}

func (r *StoreRepository) FindAll(ctx context.Context) ([]*domain.Store, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, storageErr("find all stores", err)
	}
	defer cursor.Close(ctx)

	var docs []*storeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("decode stores", err)
	}
	return toDomainStores(docs), nil
}

func (r *StoreRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Store, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			// A heart may point at an id minted elsewhere; skip it.
			r.logger.Warn("Skipping malformed store id", zap.String("id", id))
			continue
		}
		objIDs = append(objIDs, objID)
	}
	if len(objIDs) == 0 {
		return []*domain.Store{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, storageErr("find stores by ids", err)
	}
	defer cursor.Close(ctx)

	var docs []*storeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("decode stores by ids", err)
	}
	return toDomainStores(docs), nil
}

// FindByTag matches stores carrying the tag. domain.TagAny matches any store
// with a non-empty tags field.
func (r *StoreRepository) FindByTag(ctx context.Context, tag string) ([]*domain.Store, error) {
	var filter bson.M
	if tag == domain.TagAny {
		filter = bson.M{"tags": bson.M{"$exists": true, "$ne": bson.A{}}}
	} else {
		filter = bson.M{"tags": tag}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, storageErr("find stores by tag", err)
	}
	defer cursor.Close(ctx)

	var docs []*storeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("decode stores by tag", err)
	}
	return toDomainStores(docs), nil
}

// CountSlugLike counts slugs matching base or base-N, the input to slug
// disambiguation.
func (r *StoreRepository) CountSlugLike(ctx context.Context, base string) (int64, error) {
	pattern := fmt.Sprintf("^%s(-[0-9]+)?$", regexp.QuoteMeta(base))
	count, err := r.collection.CountDocuments(ctx, bson.M{"slug": primitive.Regex{Pattern: pattern}})
	if err != nil {
		return 0, storageErr("count slugs", err)
	}
	return count, nil
}

// TagCounts aggregates distinct tags with usage counts, most used first.
func (r *StoreRepository) TagCounts(ctx context.Context) ([]*domain.TagCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tags"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storageErr("aggregate tags", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Tag   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, storageErr("decode tag counts", err)
	}

	counts := make([]*domain.TagCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, &domain.TagCount{Tag: row.Tag, Count: row.Count})
	}
	return counts, nil
}

// SearchText runs a $text query and returns stores sorted by the index's
// relevance score. Ties keep the index's native order.
func (r *StoreRepository) SearchText(ctx context.Context, query string, limit int64) ([]*domain.SearchResult, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageErr("text search", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.SearchResult
	for cursor.Next(ctx) {
		var doc storeDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, storageErr("decode text search", err)
		}
		var score float64
		if raw, lookupErr := cursor.Current.LookupErr("score"); lookupErr == nil {
			score, _ = raw.DoubleOK()
		}
		results = append(results, &domain.SearchResult{Store: toDomainStore(&doc), Score: score})
	}
	if err := cursor.Err(); err != nil {
		return nil, storageErr("text search cursor", err)
	}
	return results, nil
}

// FindNear returns previews within maxDistance meters of the point, nearest
// first per the 2dsphere $near ordering.
func (r *StoreRepository) FindNear(ctx context.Context, lat, lng float64, maxDistance, limit int64) ([]*domain.StorePreview, error) {
	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        domain.GeoJSONPoint,
					"coordinates": bson.A{lng, lat},
				},
				"$maxDistance": maxDistance,
			},
		},
	}
	opts := options.Find().
		SetProjection(bson.M{"slug": 1, "name": 1, "description": 1, "location": 1, "photo": 1}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageErr("proximity search", err)
	}
	defer cursor.Close(ctx)

	var docs []*storePreviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("decode proximity search", err)
	}

	previews := make([]*domain.StorePreview, 0, len(docs))
	for _, doc := range docs {
		previews = append(previews, toDomainPreview(doc))
	}
	return previews, nil
}

// storageErr wraps a driver failure in the transient taxonomy error, so
// callers retry with backoff instead of matching on driver internals.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}
