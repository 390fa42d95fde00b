package domain

import "context"

// TagAny is the listByTag wildcard: it matches every store that has at least
// one tag, rather than a specific tag value.
const TagAny = "any"

// StoreRepository owns persistence of Store records. Implementations must
// keep Slug unique and apply updates atomically, so a concurrent reader never
// observes a partially applied patch.
type StoreRepository interface {
	Create(ctx context.Context, store *Store) error
	// Update applies the patch with a single find-and-update and returns the
	// updated record. ErrNotFound when the id does not exist.
	Update(ctx context.Context, id string, patch StorePatch) (*Store, error)
	FindByID(ctx context.Context, id string) (*Store, error)
	FindBySlug(ctx context.Context, slug string) (*Store, error)
	// FindPage returns one page window of all stores plus the total count.
	FindPage(ctx context.Context, skip, limit int64) ([]*Store, int64, error)
	FindAll(ctx context.Context) ([]*Store, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Store, error)
	// FindByTag matches stores carrying the tag; TagAny matches any store
	// with a non-empty tag set.
	FindByTag(ctx context.Context, tag string) ([]*Store, error)
	// CountSlugLike counts slugs that are base or base-N, for disambiguation.
	CountSlugLike(ctx context.Context, base string) (int64, error)
	// TagCounts aggregates distinct tags with their usage counts.
	TagCounts(ctx context.Context) ([]*TagCount, error)
	// SearchText returns stores ranked by the text index's relevance score.
	SearchText(ctx context.Context, query string, limit int64) ([]*SearchResult, error)
	// FindNear returns previews within maxDistance meters of the point,
	// nearest first.
	FindNear(ctx context.Context, lat, lng float64, maxDistance, limit int64) ([]*StorePreview, error)
}

// UserRepository exposes the per-user hearts set. The engine references
// users, it does not own them.
type UserRepository interface {
	// ToggleHeart atomically adds storeID to the user's hearts set if absent,
	// removes it if present, and returns the updated set. The toggle is a
	// single read-modify-write on the user record.
	ToggleHeart(ctx context.Context, userID, storeID string) ([]string, error)
	Hearts(ctx context.Context, userID string) ([]string, error)
}

// ReviewSource is the read-only aggregate view over an external review
// collection.
type ReviewSource interface {
	RatingSummary(ctx context.Context, storeID string) (RatingSummary, error)
	// RatingSummaries returns the aggregate per store id. Stores with no
	// reviews are absent from the map.
	RatingSummaries(ctx context.Context) (map[string]RatingSummary, error)
}

// PhotoStorage persists processed photo bytes under an object name.
type PhotoStorage interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) error
}
