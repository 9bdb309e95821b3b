package kline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMidPrice_ComputesMeanOfBestBidAndAsk(t *testing.T) {
	snapshot := []byte("SIDE      PRICE            QUANTITY\n" +
		"------------------------------------\n" +
		"BUY       99.00000000  1.00000000\n" +
		"SELL      101.00000000  1.00000000\n")

	mid, ok := midPrice(snapshot)
	require.True(t, ok)
	assert.InDelta(t, 100.0, mid, 1e-9)
}

func TestMidPrice_FalseWhenOneSideMissing(t *testing.T) {
	snapshot := []byte("SIDE      PRICE            QUANTITY\n" +
		"------------------------------------\n" +
		"BUY       99.00000000  1.00000000\n")

	_, ok := midPrice(snapshot)
	assert.False(t, ok)
}

func TestAggregator_ObserveBuildsHighLowAcrossSamples(t *testing.T) {
	a := New(zap.NewNop())
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	a.observe(100, t0)
	a.observe(105, t0.Add(time.Second))
	a.observe(95, t0.Add(2*time.Second))

	require.NotNil(t, a.current)
	assert.Equal(t, 100.0, a.current.Open)
	assert.Equal(t, 105.0, a.current.High)
	assert.Equal(t, 95.0, a.current.Low)
	assert.Equal(t, 95.0, a.current.Close)
	assert.Equal(t, 3, a.current.Samples)
}

func TestAggregator_RollsOverOnIntervalBoundary(t *testing.T) {
	a := New(zap.NewNop())
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	a.observe(100, t0)
	a.observe(110, t0.Add(2*time.Minute))

	require.Len(t, a.closed, 1)
	assert.Equal(t, 100.0, a.closed[0])
	assert.Equal(t, 110.0, a.current.Open)
}
