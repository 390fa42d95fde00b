package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

func newFavoriteFixture() (*FavoriteUsecase, *fakeUserRepo, *fakeStoreRepo, *fakePublisher) {
	users := newFakeUserRepo()
	stores := &fakeStoreRepo{}
	pub := &fakePublisher{}
	uc := NewFavoriteUsecase(users, stores, pub, logger.NewNop())
	return uc, users, stores, pub
}

func TestToggleHeartAddsThenRemoves(t *testing.T) {
	uc, _, _, pub := newFavoriteFixture()
	ctx := context.Background()

	hearts, err := uc.ToggleHeart(ctx, "user-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"store-1"}, hearts)

	hearts, err = uc.ToggleHeart(ctx, "user-1", "store-1")
	require.NoError(t, err)
	assert.Empty(t, hearts)

	assert.Equal(t, []string{SubjectStoreHearted, SubjectStoreHearted}, pub.subjects)
}

func TestToggleHeartIsAnInvolution(t *testing.T) {
	uc, users, _, _ := newFavoriteFixture()
	ctx := context.Background()

	users.hearts["user-1"] = []string{"store-a", "store-b"}

	_, err := uc.ToggleHeart(ctx, "user-1", "store-c")
	require.NoError(t, err)
	after, err := uc.ToggleHeart(ctx, "user-1", "store-c")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"store-a", "store-b"}, after)
}

func TestToggleHeartNeverDuplicates(t *testing.T) {
	uc, _, _, _ := newFavoriteFixture()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		hearts, err := uc.ToggleHeart(ctx, "user-1", "store-1")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(hearts), 1)
		for _, h := range hearts {
			assert.Equal(t, "store-1", h)
		}
	}
}

func TestToggleHeartValidatesInput(t *testing.T) {
	uc, _, _, _ := newFavoriteFixture()
	ctx := context.Background()

	_, err := uc.ToggleHeart(ctx, "", "store-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.ToggleHeart(ctx, "user-1", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListHeartedReturnsStores(t *testing.T) {
	uc, users, stores, _ := newFavoriteFixture()
	ctx := context.Background()

	s1 := &domain.Store{Name: "One", Slug: "one"}
	s2 := &domain.Store{Name: "Two", Slug: "two"}
	require.NoError(t, stores.Create(ctx, s1))
	require.NoError(t, stores.Create(ctx, s2))

	users.hearts["user-1"] = []string{s1.ID}

	hearted, err := uc.ListHearted(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, hearted, 1)
	assert.Equal(t, "one", hearted[0].Slug)
}

func TestListHeartedEmptySet(t *testing.T) {
	uc, _, _, _ := newFavoriteFixture()

	hearted, err := uc.ListHearted(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, hearted)
}
