package usecase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"store-directory/internal/store/domain"
)

// fakeStoreRepo is an in-memory domain.StoreRepository for usecase tests.
type fakeStoreRepo struct {
	stores []*domain.Store
	nextID int
}

func (f *fakeStoreRepo) Create(ctx context.Context, store *domain.Store) error {
	for _, s := range f.stores {
		if s.Slug == store.Slug {
			return domain.NewValidationError("slug", "already taken")
		}
	}
	f.nextID++
	store.ID = fmt.Sprintf("store-%d", f.nextID)
	copied := *store
	f.stores = append(f.stores, &copied)
	return nil
}

func (f *fakeStoreRepo) Update(ctx context.Context, id string, patch domain.StorePatch) (*domain.Store, error) {
	for _, s := range f.stores {
		if s.ID != id {
			continue
		}
		if patch.Name != nil {
			s.Name = *patch.Name
		}
		if patch.Slug != nil {
			s.Slug = *patch.Slug
		}
		if patch.Description != nil {
			s.Description = *patch.Description
		}
		if patch.Tags != nil {
			s.Tags = patch.Tags
		}
		if patch.Location != nil {
			s.Location = *patch.Location
		}
		if patch.Photo != nil {
			s.Photo = *patch.Photo
		}
		copied := *s
		return &copied, nil
	}
	return nil, fmt.Errorf("%w: id %s", domain.ErrNotFound, id)
}

func (f *fakeStoreRepo) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	for _, s := range f.stores {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", domain.ErrNotFound, id)
}

func (f *fakeStoreRepo) FindBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	for _, s := range f.stores {
		if s.Slug == slug {
			copied := *s
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: slug %q", domain.ErrNotFound, slug)
}

func (f *fakeStoreRepo) FindPage(ctx context.Context, skip, limit int64) ([]*domain.Store, int64, error) {
	total := int64(len(f.stores))
	lo := skip
	if lo > total {
		lo = total
	}
	hi := lo + limit
	if hi > total {
		hi = total
	}
	return f.stores[lo:hi], total, nil
}

func (f *fakeStoreRepo) FindAll(ctx context.Context) ([]*domain.Store, error) {
	return f.stores, nil
}

func (f *fakeStoreRepo) FindByIDs(ctx context.Context, ids []string) ([]*domain.Store, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []*domain.Store
	for _, s := range f.stores {
		if wanted[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) FindByTag(ctx context.Context, tag string) ([]*domain.Store, error) {
	var out []*domain.Store
	for _, s := range f.stores {
		if tag == domain.TagAny {
			if len(s.Tags) > 0 {
				out = append(out, s)
			}
			continue
		}
		for _, t := range s.Tags {
			if t == tag {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) CountSlugLike(ctx context.Context, base string) (int64, error) {
	re := regexp.MustCompile("^" + regexp.QuoteMeta(base) + "(-[0-9]+)?$")
	var count int64
	for _, s := range f.stores {
		if re.MatchString(s.Slug) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStoreRepo) TagCounts(ctx context.Context) ([]*domain.TagCount, error) {
	byTag := map[string]int64{}
	for _, s := range f.stores {
		for _, t := range s.Tags {
			byTag[t]++
		}
	}
	counts := make([]*domain.TagCount, 0, len(byTag))
	for tag, n := range byTag {
		counts = append(counts, &domain.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	return counts, nil
}

func (f *fakeStoreRepo) SearchText(ctx context.Context, query string, limit int64) ([]*domain.SearchResult, error) {
	q := strings.ToLower(query)
	var results []*domain.SearchResult
	for _, s := range f.stores {
		if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.Description), q) {
			results = append(results, &domain.SearchResult{Store: s, Score: 1})
		}
		if int64(len(results)) == limit {
			break
		}
	}
	return results, nil
}

func (f *fakeStoreRepo) FindNear(ctx context.Context, lat, lng float64, maxDistance, limit int64) ([]*domain.StorePreview, error) {
	type hit struct {
		preview  *domain.StorePreview
		distance float64
	}
	var hits []hit
	for _, s := range f.stores {
		d := haversineMeters(lat, lng, s.Location.Latitude(), s.Location.Longitude())
		if d <= float64(maxDistance) {
			hits = append(hits, hit{
				preview: &domain.StorePreview{
					Slug:        s.Slug,
					Name:        s.Name,
					Description: s.Description,
					Location:    s.Location,
					Photo:       s.Photo,
				},
				distance: d,
			})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if int64(len(hits)) > limit {
		hits = hits[:limit]
	}
	previews := make([]*domain.StorePreview, 0, len(hits))
	for _, h := range hits {
		previews = append(previews, h.preview)
	}
	return previews, nil
}

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// fakeUserRepo mirrors the atomic hearts toggle in memory.
type fakeUserRepo struct {
	hearts map[string][]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{hearts: map[string][]string{}}
}

func (f *fakeUserRepo) ToggleHeart(ctx context.Context, userID, storeID string) ([]string, error) {
	current := f.hearts[userID]
	for i, id := range current {
		if id == storeID {
			current = append(current[:i], current[i+1:]...)
			f.hearts[userID] = current
			return append([]string{}, current...), nil
		}
	}
	current = append(current, storeID)
	f.hearts[userID] = current
	return append([]string{}, current...), nil
}

func (f *fakeUserRepo) Hearts(ctx context.Context, userID string) ([]string, error) {
	return append([]string{}, f.hearts[userID]...), nil
}

// fakeReviewSource serves a fixed aggregate view.
type fakeReviewSource struct {
	summaries map[string]domain.RatingSummary
}

func (f *fakeReviewSource) RatingSummary(ctx context.Context, storeID string) (domain.RatingSummary, error) {
	return f.summaries[storeID], nil
}

func (f *fakeReviewSource) RatingSummaries(ctx context.Context) (map[string]domain.RatingSummary, error) {
	return f.summaries, nil
}

// fakePhotoStorage records uploads instead of writing them anywhere.
type fakePhotoStorage struct {
	objects map[string][]byte
	fail    error
}

func newFakePhotoStorage() *fakePhotoStorage {
	return &fakePhotoStorage{objects: map[string][]byte{}}
}

func (f *fakePhotoStorage) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	if f.fail != nil {
		return f.fail
	}
	f.objects[objectName] = data
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	subjects []string
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	f.subjects = append(f.subjects, subject)
	return nil
}
