package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlob/matchcore/internal/domain"
)

func TestOrderBook_InsertAndRemove(t *testing.T) {
	book := NewOrderBook()
	now := time.Now()

	book.Insert(domain.SideBuy, mkOrder(1, domain.SideBuy, 100, 1, now))
	book.Insert(domain.SideBuy, mkOrder(2, domain.SideBuy, 101, 1, now))

	level, ok := book.BestOpposite(domain.SideSell) // sell taker looks at bids
	require.True(t, ok)
	assert.Equal(t, 101.0, level.price) // highest bid first

	order, ok := book.Remove(2)
	require.True(t, ok)
	assert.Equal(t, uint32(2), order.OrderID)

	level, ok = book.BestOpposite(domain.SideSell)
	require.True(t, ok)
	assert.Equal(t, 100.0, level.price)

	_, ok = book.Remove(2)
	assert.False(t, ok)
}

func TestOrderBook_EmptyLevelIsDropped(t *testing.T) {
	book := NewOrderBook()
	now := time.Now()
	book.Insert(domain.SideSell, mkOrder(1, domain.SideSell, 100, 1, now))

	_, ok := book.Remove(1)
	require.True(t, ok)

	_, ok = book.BestOpposite(domain.SideBuy)
	assert.False(t, ok)
}

func TestFormatSnapshot_HeaderAndSeparator(t *testing.T) {
	out := FormatSnapshot(nil)
	s := string(out)
	assert.Contains(t, s, "SIDE")
	assert.Contains(t, s, snapshotSeparator)
}
