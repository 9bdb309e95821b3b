package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlob/matchcore/internal/domain"
)

func mkOrder() *domain.Order {
	now := domain.NewWireTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return &domain.Order{
		OrderID:    1,
		UserID:     42,
		Price:      100.5,
		Quantity:   2,
		Side:       domain.SideBuy,
		Type:       domain.OrderTypeLimit,
		Status:     domain.StatusMatching,
		CreateTime: now,
		UpdateTime: now,
	}
}

func TestEncodeDecodeOrder_RoundTrips(t *testing.T) {
	order := mkOrder()
	line, err := EncodeOrder(TypeOrder, order, false)
	require.NoError(t, err)

	env, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, TypeOrder, env.Type)
	assert.False(t, env.IsReplay)
	assert.Equal(t, order.OrderID, env.Order.OrderID)
	assert.Equal(t, order.Price, env.Order.Price)
}

func TestEncodeOrder_PayloadIsDoublyEncoded(t *testing.T) {
	line, err := EncodeOrder(TypeOrder, mkOrder(), false)
	require.NoError(t, err)

	// The "order" field must itself be a JSON string, not a nested object:
	// the key is followed by an opening quote, and the object's brace is
	// the first character of that string's text.
	s := string(line)
	idx := indexOf(s, `"order":"`)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, byte('{'), s[idx+len(`"order":"`)]) // nested object survives only as escaped text
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestEncodeDecodeTrade_RoundTrips(t *testing.T) {
	buy := mkOrder()
	sell := mkOrder()
	sell.OrderID = 2
	sell.Side = domain.SideSell
	trade := &domain.TradeRecord{
		TradeID:       7,
		BuyerOrderID:  1,
		SellerOrderID: 2,
		TradePrice:    100.5,
		TradeQuantity: 2,
		TradeTime:     domain.NewWireTime(time.Now()),
	}

	line, err := EncodeTrade(buy, sell, trade)
	require.NoError(t, err)

	env, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, TypeTrade, env.Type)
	assert.Equal(t, uint32(1), env.BuyOrder.OrderID)
	assert.Equal(t, uint32(2), env.SellOrder.OrderID)
	assert.Equal(t, uint64(7), env.TradeRecord.TradeID)
}

func TestEncodeDecodeCancel_RoundTrips(t *testing.T) {
	line, err := EncodeCancel(5, domain.SideSell)
	require.NoError(t, err)

	env, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, TypeCancel, env.Type)
	assert.Equal(t, uint32(5), env.CancelOrderID)
	assert.Equal(t, domain.SideSell, env.CancelSide)
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecode_RejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"BOGUS"}`))
	assert.Error(t, err)
}

func TestDecode_RejectsCancelMissingSide(t *testing.T) {
	_, err := Decode([]byte(`{"type":"CANCEL","orderId":1}`))
	assert.Error(t, err)
}

func TestDecode_RejectsOrderMissingPayload(t *testing.T) {
	_, err := Decode([]byte(`{"type":"ORDER"}`))
	assert.Error(t, err)
}
