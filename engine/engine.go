// Package engine wires the store discovery and engagement engine together
// and exposes its operations as a library. It owns no transport: an HTTP (or
// any other) presentation layer is expected to call into it with already
// authenticated user ids and raw form values.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"store-directory/internal/adapter/messaging/nats"
	"store-directory/internal/adapter/repository/cache"
	"store-directory/internal/adapter/repository/mongodb"
	"store-directory/internal/adapter/storage/s3"
	"store-directory/internal/config"
	"store-directory/internal/platform/logger"
	"store-directory/internal/platform/metrics"
	"store-directory/internal/store/domain"
	"store-directory/internal/store/usecase"
)

// Engine is the composed discovery and engagement engine.
type Engine struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.MetricsManager

	mongoClient *mongo.Client
	storeCache  *cache.StoreCache
	publisher   *nats.Publisher

	listings  *usecase.ListingUsecase
	search    *usecase.SearchUsecase
	favorites *usecase.FavoriteUsecase
	ratings   *usecase.RatingUsecase
}

// closeStack collects teardown callbacks while New connects backends. When a
// later dependency fails to initialize, unwind releases the earlier ones in
// reverse order so a partial init leaks nothing.
type closeStack []func()

func (s closeStack) unwind() {
	for i := len(s) - 1; i >= 0; i-- {
		s[i]()
	}
}

// New connects every backend from the configuration and assembles the
// engine. All dependencies are injected into the usecases here; nothing is
// resolved from a global registry.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Engine, error) {
	var undo closeStack

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	undo = append(undo, func() { _ = mongoClient.Disconnect(ctx) })
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		undo.unwind()
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	storeRepo, err := mongodb.NewStoreRepository(db, log)
	if err != nil {
		undo.unwind()
		return nil, err
	}
	userRepo := mongodb.NewUserRepository(db, log)
	reviewRepo := mongodb.NewReviewRepository(db, log)

	storeCache, err := cache.NewStoreCache(cfg.RedisAddress)
	if err != nil {
		undo.unwind()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	undo = append(undo, func() { _ = storeCache.Close() })

	photoStorage, err := s3.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, log)
	if err != nil {
		undo.unwind()
		return nil, fmt.Errorf("initializing photo storage: %w", err)
	}

	publisher, err := nats.NewPublisher(cfg.NATSURL)
	if err != nil {
		undo.unwind()
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	mm := metrics.NewMetricsManager(cfg.ServiceName)
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, log, mm.Registry); err != nil {
				log.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	photos := usecase.NewPhotoUsecase(photoStorage, log)
	return &Engine{
		cfg:         cfg,
		logger:      log.Named("Engine"),
		metrics:     mm,
		mongoClient: mongoClient,
		storeCache:  storeCache,
		publisher:   publisher,
		listings:    usecase.NewListingUsecase(storeRepo, reviewRepo, photos, storeCache, publisher, log),
		search:      usecase.NewSearchUsecase(storeRepo, log),
		favorites:   usecase.NewFavoriteUsecase(userRepo, storeRepo, publisher, log),
		ratings:     usecase.NewRatingUsecase(storeRepo, reviewRepo, log),
	}, nil
}

// Close releases every backend connection.
func (e *Engine) Close(ctx context.Context) error {
	e.publisher.Close()
	if err := e.storeCache.Close(); err != nil {
		e.logger.Warn("Closing redis client", zap.Error(err))
	}
	return e.mongoClient.Disconnect(ctx)
}

// ListingForm carries the raw form fields of a new listing. Lat and Lng are
// the form values as submitted; parsing failures surface as validation
// errors on the location field.
type ListingForm struct {
	Name        string
	Description string
	Tags        []string
	Lat         string
	Lng         string
	Photo       *usecase.PhotoUpload
}

// ListingPatchForm carries a partial edit. Nil/empty fields stay untouched;
// Lat and Lng must be supplied together.
type ListingPatchForm struct {
	Name        *string
	Description *string
	Tags        []string
	Lat         string
	Lng         string
	Photo       *usecase.PhotoUpload
}

// CreateListing publishes a new store owned by authorID.
func (e *Engine) CreateListing(ctx context.Context, form ListingForm, authorID string) (*domain.Store, error) {
	defer e.observe("create_listing", time.Now())

	lat, lng, err := parseCoordinates(form.Lat, form.Lng)
	if err != nil {
		e.countError("create_listing", err)
		return nil, err
	}

	store, err := e.listings.CreateStore(ctx, usecase.CreateStoreInput{
		Name:        form.Name,
		Description: form.Description,
		Tags:        form.Tags,
		Lat:         lat,
		Lng:         lng,
		Photo:       form.Photo,
	}, authorID)
	if err != nil {
		e.countError("create_listing", err)
		return nil, err
	}
	e.metrics.StoresCreatedTotal.Inc()
	return store, nil
}

// UpdateListing edits a store. Only the author may update; anyone else gets
// domain.ErrNotOwner and nothing is written.
func (e *Engine) UpdateListing(ctx context.Context, id string, form ListingPatchForm, requesterID string) (*domain.Store, error) {
	defer e.observe("update_listing", time.Now())

	in := usecase.UpdateStoreInput{
		Name:        form.Name,
		Description: form.Description,
		Tags:        form.Tags,
		Photo:       form.Photo,
	}
	if form.Lat != "" || form.Lng != "" {
		lat, lng, err := parseCoordinates(form.Lat, form.Lng)
		if err != nil {
			e.countError("update_listing", err)
			return nil, err
		}
		in.Lat, in.Lng = &lat, &lng
	}

	store, err := e.listings.UpdateStore(ctx, id, in, requesterID)
	if err != nil {
		e.countError("update_listing", err)
		return nil, err
	}
	e.metrics.StoresUpdatedTotal.Inc()
	return store, nil
}

// GetListingBySlug returns a store and its rating aggregate, or
// domain.ErrNotFound for the caller to render a not-found outcome.
func (e *Engine) GetListingBySlug(ctx context.Context, slug string) (*domain.StoreDetail, error) {
	defer e.observe("get_listing", time.Now())
	detail, err := e.listings.GetBySlug(ctx, slug)
	if err != nil {
		e.countError("get_listing", err)
		return nil, err
	}
	return detail, nil
}

// ListListings returns one page of the directory. A request past the end
// yields a *usecase.PageOutOfRangeError carrying the last valid page.
func (e *Engine) ListListings(ctx context.Context, page int64) (*usecase.StorePage, error) {
	defer e.observe("list_listings", time.Now())
	result, err := e.listings.ListStores(ctx, page)
	if err != nil {
		e.countError("list_listings", err)
		return nil, err
	}
	return result, nil
}

// ListByTag returns every store carrying the tag; "any" (or empty) matches
// all tagged stores.
func (e *Engine) ListByTag(ctx context.Context, tag string) ([]*domain.Store, error) {
	defer e.observe("list_by_tag", time.Now())
	stores, err := e.listings.ListByTag(ctx, tag)
	if err != nil {
		e.countError("list_by_tag", err)
		return nil, err
	}
	return stores, nil
}

// ListTags returns the tag-browse navigation entries.
func (e *Engine) ListTags(ctx context.Context) ([]*domain.TagCount, error) {
	defer e.observe("list_tags", time.Now())
	counts, err := e.listings.ListTags(ctx)
	if err != nil {
		e.countError("list_tags", err)
		return nil, err
	}
	return counts, nil
}

// SearchByText returns up to five stores ranked by text relevance. The
// result is JSON-serializable for direct use by API callers.
func (e *Engine) SearchByText(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	defer e.observe("search_text", time.Now())
	e.metrics.SearchesTotal.WithLabelValues("text").Inc()
	results, err := e.search.SearchByText(ctx, query)
	if err != nil {
		e.countError("search_text", err)
		return nil, err
	}
	return results, nil
}

// SearchByProximity returns up to ten map previews within 10km of the point.
// Non-numeric coordinates are rejected with domain.ErrInvalidQuery.
func (e *Engine) SearchByProximity(ctx context.Context, lat, lng string) ([]*domain.StorePreview, error) {
	defer e.observe("search_proximity", time.Now())
	e.metrics.SearchesTotal.WithLabelValues("proximity").Inc()

	latF, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		e.countError("search_proximity", domain.ErrInvalidQuery)
		return nil, fmt.Errorf("%w: latitude %q is not numeric", domain.ErrInvalidQuery, lat)
	}
	lngF, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		e.countError("search_proximity", domain.ErrInvalidQuery)
		return nil, fmt.Errorf("%w: longitude %q is not numeric", domain.ErrInvalidQuery, lng)
	}

	previews, err := e.search.SearchByProximity(ctx, latF, lngF)
	if err != nil {
		e.countError("search_proximity", err)
		return nil, err
	}
	return previews, nil
}

// ToggleHeart flips storeID in the user's favorites set and returns the
// updated set.
func (e *Engine) ToggleHeart(ctx context.Context, userID, storeID string) ([]string, error) {
	defer e.observe("toggle_heart", time.Now())
	hearts, err := e.favorites.ToggleHeart(ctx, userID, storeID)
	if err != nil {
		e.countError("toggle_heart", err)
		return nil, err
	}
	e.metrics.HeartsToggledTotal.Inc()
	return hearts, nil
}

// ListHearted returns the stores in the user's favorites set.
func (e *Engine) ListHearted(ctx context.Context, userID string) ([]*domain.Store, error) {
	defer e.observe("list_hearted", time.Now())
	stores, err := e.favorites.ListHearted(ctx, userID)
	if err != nil {
		e.countError("list_hearted", err)
		return nil, err
	}
	return stores, nil
}

// TopStores returns the ten best-rated stores.
func (e *Engine) TopStores(ctx context.Context) ([]*domain.RatedStore, error) {
	defer e.observe("top_stores", time.Now())
	rated, err := e.ratings.TopStores(ctx)
	if err != nil {
		e.countError("top_stores", err)
		return nil, err
	}
	return rated, nil
}

func (e *Engine) observe(operation string, start time.Time) {
	e.metrics.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (e *Engine) countError(operation string, err error) {
	e.metrics.OperationErrors.WithLabelValues(operation, errorType(err)).Inc()
}

// errorType folds an error into its taxonomy bucket for the error counter.
func errorType(err error) string {
	var pageErr *usecase.PageOutOfRangeError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return "unsupported_media_type"
	case errors.Is(err, domain.ErrInvalidQuery):
		return "invalid_query"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.As(err, &pageErr):
		return "page_out_of_range"
	default:
		return "internal"
	}
}

// parseCoordinates parses form lat/lng values, surfacing malformed input as
// a validation error on the location field.
func parseCoordinates(lat, lng string) (float64, float64, error) {
	latF, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, domain.NewValidationError("location", fmt.Sprintf("latitude %q is not numeric", lat))
	}
	lngF, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return 0, 0, domain.NewValidationError("location", fmt.Sprintf("longitude %q is not numeric", lng))
	}
	return latF, lngF, nil
}
