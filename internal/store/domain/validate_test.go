package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatesInRange(t *testing.T) {
	assert.True(t, CoordinatesInRange(43.2, 76.9))
	assert.True(t, CoordinatesInRange(-90, 180))
	assert.False(t, CoordinatesInRange(91, 0))
	assert.False(t, CoordinatesInRange(0, -181))
	assert.False(t, CoordinatesInRange(math.NaN(), 0))
	assert.False(t, CoordinatesInRange(0, math.Inf(1)))
}

func TestValidateNewStore(t *testing.T) {
	assert.NoError(t, ValidateNewStore("Corner Store", 43.2, 76.9, "user-1"))

	err := ValidateNewStore("", 43.2, 76.9, "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "name", vErr.Field)

	err = ValidateNewStore("Corner Store", 200, 76.9, "user-1")
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "location", vErr.Field)

	err = ValidateNewStore("Corner Store", 43.2, 76.9, "")
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "author", vErr.Field)
}

func TestValidatePatch(t *testing.T) {
	empty := "  "
	err := ValidatePatch(StorePatch{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	bad := NewLocation(95, 10)
	err = ValidatePatch(StorePatch{Location: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	ok := NewLocation(43.2, 76.9)
	assert.NoError(t, ValidatePatch(StorePatch{Location: &ok}))
}

func TestNewLocationIsAlwaysAPoint(t *testing.T) {
	loc := NewLocation(43.2, 76.9)
	assert.Equal(t, GeoJSONPoint, loc.Type)
	assert.Equal(t, 76.9, loc.Longitude())
	assert.Equal(t, 43.2, loc.Latitude())
}
