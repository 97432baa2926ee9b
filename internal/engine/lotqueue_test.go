package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveexchange/backend/internal/domain"
)

func TestAskQueueSortsAscending(t *testing.T) {
	q := NewAskQueue([]domain.Order{
		{OrderID: 1, Price: 12, Volume: 5},
		{OrderID: 2, Price: 10, Volume: 3},
		{OrderID: 3, Price: 11, Volume: 7},
	})

	assert.Equal(t, 10.0, q.HeadPrice())
	q.DropHead()
	assert.Equal(t, 11.0, q.HeadPrice())
	q.DropHead()
	assert.Equal(t, 12.0, q.HeadPrice())
}

func TestBidQueueSortsDescending(t *testing.T) {
	q := NewBidQueue([]domain.Order{
		{OrderID: 1, Price: 90, Volume: 5},
		{OrderID: 2, Price: 110, Volume: 3},
		{OrderID: 3, Price: 100, Volume: 7},
	})

	assert.Equal(t, 110.0, q.HeadPrice())
	q.DropHead()
	assert.Equal(t, 100.0, q.HeadPrice())
}

func TestQueueTieBreakByOrderID(t *testing.T) {
	q := NewAskQueue([]domain.Order{
		{OrderID: 42, Price: 10, Volume: 1},
		{OrderID: 7, Price: 10, Volume: 2},
	})

	assert.Equal(t, 2.0, q.HeadRemaining(), "lower order id should come first on a price tie")
}

func TestQueueTakeSplitsAndAdvances(t *testing.T) {
	q := NewAskQueue([]domain.Order{
		{OrderID: 1, Price: 10, Volume: 5},
		{OrderID: 2, Price: 12, Volume: 4},
	})

	require.Equal(t, 3.0, q.Take(3))
	assert.Equal(t, 2.0, q.HeadRemaining())
	assert.Equal(t, 10.0, q.HeadPrice())

	// Taking more than the head holds only drains the head.
	require.Equal(t, 2.0, q.Take(100))
	assert.Equal(t, 12.0, q.HeadPrice())
	assert.Equal(t, 4.0, q.HeadRemaining())

	require.Equal(t, 4.0, q.Take(4))
	assert.True(t, q.Exhausted())
	assert.Equal(t, 0.0, q.Take(1), "taking from an exhausted queue returns 0")
	assert.Equal(t, 0.0, q.HeadPrice())
}

func TestQueueSkipsZeroVolumeOrders(t *testing.T) {
	q := NewAskQueue([]domain.Order{
		{OrderID: 1, Price: 9, Volume: 0},
		{OrderID: 2, Price: 10, Volume: 6},
	})

	assert.Equal(t, 10.0, q.HeadPrice())

	empty := NewAskQueue([]domain.Order{{OrderID: 1, Price: 9, Volume: 0}})
	assert.True(t, empty.Exhausted())
}

func TestQueueTotalVolume(t *testing.T) {
	q := NewAskQueue([]domain.Order{
		{OrderID: 1, Price: 10, Volume: 5},
		{OrderID: 2, Price: 12, Volume: 4},
		{OrderID: 3, Price: 15, Volume: 0},
	})

	assert.Equal(t, 9.0, q.TotalVolume())
	q.Take(5)
	assert.Equal(t, 9.0, q.TotalVolume(), "total volume reflects construction, not consumption")
}
