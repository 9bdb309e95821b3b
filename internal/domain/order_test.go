package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() *Order {
	now := NewWireTime(time.Now())
	return &Order{
		OrderID:    1,
		UserID:     1,
		Price:      100,
		Quantity:   1,
		Side:       SideBuy,
		Type:       OrderTypeLimit,
		Status:     StatusInitial,
		CreateTime: now,
		UpdateTime: now,
	}
}

func TestOrder_Validate_AcceptsWellFormedOrder(t *testing.T) {
	assert.NoError(t, validOrder().Validate())
}

func TestOrder_Validate_RejectsNonPositiveQuantity(t *testing.T) {
	o := validOrder()
	o.Quantity = 0
	assert.Error(t, o.Validate())
}

func TestOrder_Validate_RejectsFilledQuantityAboveQuantity(t *testing.T) {
	o := validOrder()
	o.FilledQuantity = 2
	assert.Error(t, o.Validate())
}

func TestOrder_Validate_RejectsNonPositivePrice(t *testing.T) {
	o := validOrder()
	o.Price = 0
	assert.Error(t, o.Validate())
}

func TestOrder_Validate_RejectsUnknownSide(t *testing.T) {
	o := validOrder()
	o.Side = "SIDEWAYS"
	assert.Error(t, o.Validate())
}

func TestOrder_Remaining_SubtractsFilledFromQuantity(t *testing.T) {
	o := validOrder()
	o.Quantity = 3
	o.FilledQuantity = 1
	assert.Equal(t, 2.0, o.Remaining())
}

func TestOrder_IsFullyFilled_TrueWithinDustEpsilon(t *testing.T) {
	o := validOrder()
	o.Quantity = 1
	o.FilledQuantity = 0.9999999
	assert.True(t, o.IsFullyFilled())
}

func TestWireTime_MarshalsToFixedLayout(t *testing.T) {
	wt := NewWireTime(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	out, err := json.Marshal(wt)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-04T05:06:07Z"`, string(out))
}

func TestWireTime_UnmarshalRoundTrips(t *testing.T) {
	var wt WireTime
	err := json.Unmarshal([]byte(`"2026-03-04T05:06:07Z"`), &wt)
	require.NoError(t, err)
	assert.Equal(t, 2026, wt.Year())
	assert.Equal(t, time.Month(3), wt.Month())
}

func TestWireTime_UnmarshalRejectsMalformedLiteral(t *testing.T) {
	var wt WireTime
	err := json.Unmarshal([]byte(`"not-a-time"`), &wt)
	assert.Error(t, err)
}
