package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(1, 4, 10)
	assert.Equal(t, int64(0), p.Skip())
	assert.Equal(t, int64(3), p.TotalPages)
	assert.NoError(t, p.Validate())

	p = NewPagination(3, 4, 10)
	assert.Equal(t, int64(8), p.Skip())
	assert.NoError(t, p.Validate())
}

func TestNewPaginationClampsPageBelowOne(t *testing.T) {
	p := NewPagination(0, 4, 10)
	assert.Equal(t, int64(1), p.Page)
	assert.Equal(t, int64(0), p.Skip())

	p = NewPagination(-3, 4, 10)
	assert.Equal(t, int64(1), p.Page)
}

func TestPaginationOutOfRange(t *testing.T) {
	p := NewPagination(4, 4, 10)
	err := p.Validate()
	require.Error(t, err)

	var pageErr *PageOutOfRangeError
	require.True(t, errors.As(err, &pageErr))
	assert.Equal(t, int64(4), pageErr.RequestedPage)
	assert.Equal(t, int64(3), pageErr.TotalPages)
}

func TestPaginationEmptyFirstPageIsValid(t *testing.T) {
	p := NewPagination(1, 4, 0)
	assert.NoError(t, p.Validate())
	assert.Equal(t, int64(0), p.TotalPages)
}

func TestPaginationExactBoundary(t *testing.T) {
	// 8 items fill exactly 2 pages; page 2 is the last valid page.
	p := NewPagination(2, 4, 8)
	assert.Equal(t, int64(2), p.TotalPages)
	assert.NoError(t, p.Validate())

	p = NewPagination(3, 4, 8)
	assert.Error(t, p.Validate())
}
