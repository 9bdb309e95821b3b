package runtime

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openlob/matchcore/internal/domain"
	"github.com/openlob/matchcore/internal/envelope"
	"github.com/openlob/matchcore/internal/matching"
)

func newTestEngine(t *testing.T) *matching.Engine {
	t.Helper()
	return matching.NewEngine(zap.NewNop(), matching.NewMetrics(prometheus.NewRegistry()))
}

func TestApplyEnvelope_OrderRests(t *testing.T) {
	e := newTestEngine(t)
	now := domain.NewWireTime(time.Now())
	env := &envelope.Envelope{
		Type: envelope.TypeOrder,
		Order: &domain.Order{
			OrderID: 1, UserID: 1, Price: 100, Quantity: 1,
			Side: domain.SideBuy, Type: domain.OrderTypeLimit,
			Status: domain.StatusInitial, CreateTime: now, UpdateTime: now,
		},
	}

	events, ok, err := applyEnvelope(e, env)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].Unmatched)
}

func TestApplyEnvelope_InvalidOrderIsSilentlyDropped(t *testing.T) {
	e := newTestEngine(t)
	now := domain.NewWireTime(time.Now())
	env := &envelope.Envelope{
		Type: envelope.TypeOrder,
		Order: &domain.Order{
			OrderID: 1, UserID: 1, Price: 100, Quantity: -1, // invalid
			Side: domain.SideBuy, Type: domain.OrderTypeLimit,
			CreateTime: now, UpdateTime: now,
		},
	}

	events, ok, err := applyEnvelope(e, env)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, events)
}

func TestApplyEnvelope_CancelUnknownOrderIsOkWithNoEvents(t *testing.T) {
	e := newTestEngine(t)
	env := &envelope.Envelope{Type: envelope.TypeCancel, CancelOrderID: 99, CancelSide: domain.SideBuy}

	events, ok, err := applyEnvelope(e, env)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, events)
}

func TestApplyEnvelope_UnknownTypeIsNotOk(t *testing.T) {
	e := newTestEngine(t)
	env := &envelope.Envelope{Type: envelope.TypeTrade}

	_, ok, err := applyEnvelope(e, env)
	require.NoError(t, err)
	assert.False(t, ok)
}
