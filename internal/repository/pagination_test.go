package repository

import (
	"math"
	"testing"
	"time"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)
	encoded := EncodeCursor(OrderCursor{CreatedAt: at, ID: 42})

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.True(t, at.Equal(decoded.CreatedAt))
	assert.Equal(t, int64(42), decoded.ID)
}

func TestDecodeCursorInvalid(t *testing.T) {
	_, err := DecodeCursor("%%%not-base64")
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestDecodeEmptyCursorStartsAtNewest(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, cursor.IsZero())
	assert.True(t, cursor.Before(models.Order{ID: 1, OrderDate: time.Now()}))
	// Orders stamped by a clock running ahead are still on the first page.
	assert.True(t, cursor.Before(models.Order{ID: 2, OrderDate: time.Now().Add(48 * time.Hour)}))
}

func TestPageOrders(t *testing.T) {
	now := time.Now()
	orders := []models.Order{
		{ID: 3, OrderDate: now},
		{ID: 2, OrderDate: now.Add(-time.Minute)},
		{ID: 1, OrderDate: now.Add(-2 * time.Minute)},
	}

	page := PageOrders(orders, 2)
	assert.True(t, page.HasMore)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	cursor, err := DecodeCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor.ID)
	assert.True(t, cursor.Before(orders[2]))
	assert.False(t, cursor.Before(orders[0]))

	last := PageOrders(orders[2:], 2)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.NextCursor)
}

func TestNewOffsetPage(t *testing.T) {
	page := NewOffsetPage([]int{1, 2}, 5, 1, 2)
	assert.Equal(t, 3, page.TotalPages)

	empty := NewOffsetPage[int](nil, 0, 1, 20)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestCheckPage(t *testing.T) {
	assert.NoError(t, CheckPage(1, 20))
	assert.ErrorIs(t, CheckPage(0, 20), database.ErrValidation)
	assert.ErrorIs(t, CheckPage(1, 0), database.ErrValidation)
	assert.ErrorIs(t, CheckPage(1, MaxPageSize+1), database.ErrValidation)
}

func TestCheckPageRejectsOffsetOverflow(t *testing.T) {
	assert.NoError(t, CheckPage(math.MaxInt/MaxPageSize+1, MaxPageSize))
	assert.ErrorIs(t, CheckPage(math.MaxInt/MaxPageSize+2, MaxPageSize), database.ErrValidation)
	assert.ErrorIs(t, CheckPage(math.MaxInt64/50+1, 100), database.ErrValidation)
	assert.ErrorIs(t, CheckPage(math.MaxInt, 2), database.ErrValidation)
}
