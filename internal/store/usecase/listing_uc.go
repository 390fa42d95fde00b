package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

// Event subjects published after successful writes.
const (
	SubjectStoreCreated = "store.created"
	SubjectStoreUpdated = "store.updated"
	SubjectStoreHearted = "store.hearted"
)

// StoreCache is a read-through cache over slug lookups and tag counts.
// A miss is (nil, nil); cache failures are logged and never fail a request.
type StoreCache interface {
	GetStore(ctx context.Context, slug string) (*domain.Store, error)
	SetStore(ctx context.Context, store *domain.Store) error
	DeleteStore(ctx context.Context, slug string) error
	GetTagCounts(ctx context.Context) ([]*domain.TagCount, error)
	SetTagCounts(ctx context.Context, counts []*domain.TagCount) error
	DeleteTagCounts(ctx context.Context) error
}

// EventPublisher emits domain events to interested collaborators.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
}

// StoreEvent is the payload published on store.* subjects.
type StoreEvent struct {
	StoreID string `json:"store_id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Actor   string `json:"actor,omitempty"`
}

// StorePage is one browsable page of the store directory.
type StorePage struct {
	Stores []*domain.Store
	Pagination
}

// CreateStoreInput carries the form fields of a new listing. Photo is the
// raw upload; it may be nil.
type CreateStoreInput struct {
	Name        string
	Description string
	Tags        []string
	Lat         float64
	Lng         float64
	Photo       *PhotoUpload
}

// UpdateStoreInput carries a partial listing edit. Nil fields are left
// untouched. Lat and Lng must be supplied together.
type UpdateStoreInput struct {
	Name        *string
	Description *string
	Tags        []string
	Lat         *float64
	Lng         *float64
	Photo       *PhotoUpload
}

// ListingUsecase implements listing CRUD, tag browsing and pagination over
// the store repository.
type ListingUsecase struct {
	repo    domain.StoreRepository
	reviews domain.ReviewSource
	photos  *PhotoUsecase
	cache   StoreCache
	events  EventPublisher
	logger  *logger.Logger
}

// NewListingUsecase creates a ListingUsecase. Cache and events may be nil;
// both are optional collaborators.
func NewListingUsecase(repo domain.StoreRepository, reviews domain.ReviewSource, photos *PhotoUsecase, cache StoreCache, events EventPublisher, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:    repo,
		reviews: reviews,
		photos:  photos,
		cache:   cache,
		events:  events,
		logger:  log.Named("ListingUsecase"),
	}
}

// CreateStore validates the input, runs the photo pipeline, assigns a unique
// slug and persists the new listing owned by authorID.
func (uc *ListingUsecase) CreateStore(ctx context.Context, in CreateStoreInput, authorID string) (*domain.Store, error) {
	uc.logger.Info("Creating store", zap.String("name", in.Name), zap.String("author", authorID))

	if err := domain.ValidateNewStore(in.Name, in.Lat, in.Lng, authorID); err != nil {
		return nil, err
	}

	// A photo failure aborts the listing write.
	photo, err := uc.photos.Process(ctx, in.Photo)
	if err != nil {
		uc.logger.Warn("Photo intake failed, aborting create", zap.Error(err))
		return nil, err
	}
	if photo == "" {
		photo = domain.DefaultPhoto
	}

	slug, err := uc.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	store := &domain.Store{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		Tags:        normalizeTags(in.Tags),
		Location:    domain.NewLocation(in.Lat, in.Lng),
		Photo:       photo,
		Author:      authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, store); err != nil {
		uc.logger.Error("Failed to create store", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	uc.invalidateTags(ctx)
	uc.publish(ctx, SubjectStoreCreated, store, authorID)
	return store, nil
}

// UpdateStore applies a partial edit. Ownership is a hard precondition: a
// requester that is not the author gets ErrNotOwner and nothing is written.
func (uc *ListingUsecase) UpdateStore(ctx context.Context, id string, in UpdateStoreInput, requesterID string) (*domain.Store, error) {
	uc.logger.Info("Updating store", zap.String("store_id", id), zap.String("requester", requesterID))

	current, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Author != requesterID {
		uc.logger.Warn("Update rejected, requester is not the owner",
			zap.String("store_id", id), zap.String("owner", current.Author), zap.String("requester", requesterID))
		return nil, fmt.Errorf("%w: store %s", domain.ErrNotOwner, id)
	}

	patch, err := uc.buildPatch(ctx, current, in)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePatch(patch); err != nil {
		return nil, err
	}

	updated, err := uc.repo.Update(ctx, id, patch)
	if err != nil {
		uc.logger.Error("Failed to update store", zap.String("store_id", id), zap.Error(err))
		return nil, err
	}

	uc.invalidateStore(ctx, current.Slug)
	if updated.Slug != current.Slug {
		uc.invalidateStore(ctx, updated.Slug)
	}
	uc.invalidateTags(ctx)
	uc.publish(ctx, SubjectStoreUpdated, updated, requesterID)
	return updated, nil
}

// GetBySlug returns the store identified by slug joined with its rating
// aggregate, or ErrNotFound.
func (uc *ListingUsecase) GetBySlug(ctx context.Context, slug string) (*domain.StoreDetail, error) {
	store := uc.cachedStore(ctx, slug)
	if store == nil {
		var err error
		store, err = uc.repo.FindBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if uc.cache != nil {
			if err := uc.cache.SetStore(ctx, store); err != nil {
				uc.logger.Warn("Failed to cache store", zap.String("slug", slug), zap.Error(err))
			}
		}
	}

	rating, err := uc.reviews.RatingSummary(ctx, store.ID)
	if err != nil {
		uc.logger.Warn("Failed to load rating summary", zap.String("store_id", store.ID), zap.Error(err))
		rating = domain.RatingSummary{}
	}
	return &domain.StoreDetail{Store: store, Rating: rating}, nil
}

// ListStores returns one page of all stores. A request past the last page
// yields a *PageOutOfRangeError carrying the last valid page number.
func (uc *ListingUsecase) ListStores(ctx context.Context, page int64) (*StorePage, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * DefaultPageSize
	stores, total, err := uc.repo.FindPage(ctx, skip, DefaultPageSize)
	if err != nil {
		uc.logger.Error("Failed to list stores", zap.Int64("page", page), zap.Error(err))
		return nil, err
	}

	p := NewPagination(page, DefaultPageSize, total)
	if err := p.Validate(); err != nil {
		uc.logger.Info("Page out of range", zap.Int64("page", page), zap.Int64("total_pages", p.TotalPages))
		return nil, err
	}
	return &StorePage{Stores: stores, Pagination: p}, nil
}

// ListByTag returns every store carrying the tag. domain.TagAny (or an empty
// tag) matches any store with at least one tag.
func (uc *ListingUsecase) ListByTag(ctx context.Context, tag string) ([]*domain.Store, error) {
	if tag == "" {
		tag = domain.TagAny
	}
	stores, err := uc.repo.FindByTag(ctx, tag)
	if err != nil {
		uc.logger.Error("Failed to list stores by tag", zap.String("tag", tag), zap.Error(err))
		return nil, err
	}
	return stores, nil
}

// ListTags returns the distinct tags with usage counts for tag navigation.
func (uc *ListingUsecase) ListTags(ctx context.Context) ([]*domain.TagCount, error) {
	if uc.cache != nil {
		counts, err := uc.cache.GetTagCounts(ctx)
		if err != nil {
			uc.logger.Warn("Tag count cache read failed", zap.Error(err))
		} else if counts != nil {
			return counts, nil
		}
	}

	counts, err := uc.repo.TagCounts(ctx)
	if err != nil {
		uc.logger.Error("Failed to aggregate tags", zap.Error(err))
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.SetTagCounts(ctx, counts); err != nil {
			uc.logger.Warn("Failed to cache tag counts", zap.Error(err))
		}
	}
	return counts, nil
}

// uniqueSlug derives the slug base from name and appends a numeric suffix
// when other stores already claimed it.
func (uc *ListingUsecase) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := domain.Slugify(name)
	if base == "" {
		return "", domain.NewValidationError("name", "does not yield a usable slug")
	}
	taken, err := uc.repo.CountSlugLike(ctx, base)
	if err != nil {
		return "", err
	}
	if taken == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, taken), nil
}

func (uc *ListingUsecase) buildPatch(ctx context.Context, current *domain.Store, in UpdateStoreInput) (domain.StorePatch, error) {
	patch := domain.StorePatch{
		Description: in.Description,
		Tags:        normalizeTags(in.Tags),
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		patch.Name = &name
		// The slug stays stable unless the name actually changes its base.
		// Comparing bases (not the stored slug, which may carry a -N
		// disambiguation suffix) keeps "corner-store-1" stable across a
		// same-name save while still re-deriving on a real rename.
		base := domain.Slugify(name)
		if base != "" && base != domain.Slugify(current.Name) {
			slug, err := uc.uniqueSlug(ctx, name)
			if err != nil {
				return domain.StorePatch{}, err
			}
			patch.Slug = &slug
		}
	}

	if (in.Lat == nil) != (in.Lng == nil) {
		return domain.StorePatch{}, domain.NewValidationError("location", "latitude and longitude must be supplied together")
	}
	if in.Lat != nil {
		// The type tag is always forced back to "Point".
		loc := domain.NewLocation(*in.Lat, *in.Lng)
		patch.Location = &loc
	}

	if in.Photo != nil {
		photo, err := uc.photos.Process(ctx, in.Photo)
		if err != nil {
			return domain.StorePatch{}, err
		}
		if photo != "" {
			patch.Photo = &photo
		}
	}
	return patch, nil
}

func (uc *ListingUsecase) cachedStore(ctx context.Context, slug string) *domain.Store {
	if uc.cache == nil {
		return nil
	}
	store, err := uc.cache.GetStore(ctx, slug)
	if err != nil {
		uc.logger.Warn("Store cache read failed", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	return store
}

func (uc *ListingUsecase) invalidateStore(ctx context.Context, slug string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteStore(ctx, slug); err != nil {
		uc.logger.Warn("Failed to invalidate store cache", zap.String("slug", slug), zap.Error(err))
	}
}

func (uc *ListingUsecase) invalidateTags(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteTagCounts(ctx); err != nil {
		uc.logger.Warn("Failed to invalidate tag count cache", zap.Error(err))
	}
}

func (uc *ListingUsecase) publish(ctx context.Context, subject string, store *domain.Store, actor string) {
	if uc.events == nil {
		return
	}
	event := StoreEvent{StoreID: store.ID, Slug: store.Slug, Name: store.Name, Actor: actor}
	if err := uc.events.Publish(ctx, subject, event); err != nil {
		uc.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// normalizeTags trims and drops empty tags, keeping order.
func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
