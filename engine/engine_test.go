package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-directory/internal/store/domain"
	"store-directory/internal/store/usecase"
)

func TestParseCoordinates(t *testing.T) {
	lat, lng, err := parseCoordinates("43.25", "-76.92")
	require.NoError(t, err)
	assert.Equal(t, 43.25, lat)
	assert.Equal(t, -76.92, lng)

	_, _, err = parseCoordinates("not-a-number", "10")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = parseCoordinates("10", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCloseStackUnwindsInReverseOrder(t *testing.T) {
	var order []string
	var undo closeStack
	undo = append(undo, func() { order = append(order, "mongo") })
	undo = append(undo, func() { order = append(order, "redis") })

	undo.unwind()

	assert.Equal(t, []string{"redis", "mongo"}, order,
		"later backends must be released before the ones they depend on")
}

func TestErrorTypeBuckets(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.NewValidationError("name", "empty"), "validation"},
		{fmt.Errorf("%w: id x", domain.ErrNotFound), "not_found"},
		{domain.ErrNotOwner, "not_owner"},
		{domain.ErrUnsupportedMediaType, "unsupported_media_type"},
		{fmt.Errorf("%w: bad lat", domain.ErrInvalidQuery), "invalid_query"},
		{fmt.Errorf("%w: mongo down", domain.ErrStorageUnavailable), "storage_unavailable"},
		{&usecase.PageOutOfRangeError{RequestedPage: 4, TotalPages: 3}, "page_out_of_range"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errorType(tc.err), tc.err.Error())
	}
}
