package domain

import (
	"fmt"
	"math"
	"time"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideUnknown Side = "UNKNOWN"
)

// OrderType distinguishes limit from market orders. Only LIMIT is ever
// matched by the engine (see design note on MARKET in SPEC_FULL.md §9);
// MARKET is accepted on the wire and passed through as a limit order at
// its carried price.
type OrderType string

const (
	OrderTypeLimit   OrderType = "LIMIT"
	OrderTypeMarket  OrderType = "MARKET"
	OrderTypeUnknown OrderType = "UNKNOWN"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusInitial                  Status = "INITIAL"
	StatusMatching                 Status = "MATCHING"
	StatusPartiallyFilled          Status = "PARTIALLY_FILLED"
	StatusFullyFilled              Status = "FULLY_FILLED"
	StatusCanceled                 Status = "CANCELED"
	StatusPartiallyFilledCanceled  Status = "PARTIALLY_FILLED_CANCELED"
)

// wireTimeLayout matches the spec's ISO-8601 wire format exactly
// (YYYY-MM-DDTHH:MM:SSZ, second resolution); Order.CreateTime/UpdateTime
// themselves carry millisecond resolution in memory.
const wireTimeLayout = "2006-01-02T15:04:05Z"

// WireTime is a time.Time that marshals/unmarshals using the spec's
// fixed ISO-8601 layout instead of RFC3339Nano.
type WireTime struct {
	time.Time
}

func NewWireTime(t time.Time) WireTime { return WireTime{t.UTC()} }

func (t WireTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(wireTimeLayout) + `"`), nil
}

func (t *WireTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("domain: invalid wire time literal %q", s)
	}
	parsed, err := time.Parse(wireTimeLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("domain: invalid wire time %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// Order is a resting or transient limit/market order.
type Order struct {
	OrderID        uint32    `json:"orderId"`
	UserID         uint64    `json:"userId"`
	Price          float64   `json:"price"`
	Quantity       float64   `json:"quantity"`
	FilledQuantity float64   `json:"filledQuantity"`
	FeeRate        float64   `json:"feeRate"`
	Side           Side      `json:"orderSide"`
	Type           OrderType `json:"orderType"`
	Status         Status    `json:"status"`
	CreateTime     WireTime  `json:"createTime"`
	UpdateTime     WireTime  `json:"updateTime"`
}

// Remaining returns the order's unfilled quantity.
func (o *Order) Remaining() float64 {
	return RoundQty(o.Quantity - o.FilledQuantity)
}

// IsFullyFilled reports whether the order has no meaningful quantity left
// to rest, folding in the dust epsilon.
func (o *Order) IsFullyFilled() bool {
	return IsDust(o.Remaining())
}

// Validate rejects malformed orders per SPEC_FULL.md §4.1 (non-positive
// quantity, non-finite price, unknown side or type; status is not checked).
func (o *Order) Validate() error {
	if o.Quantity <= 0 {
		return fmt.Errorf("domain: non-positive quantity %v", o.Quantity)
	}
	if o.FilledQuantity < 0 || o.FilledQuantity > o.Quantity {
		return fmt.Errorf("domain: filledQuantity %v out of range for quantity %v", o.FilledQuantity, o.Quantity)
	}
	if o.FeeRate < 0 {
		return fmt.Errorf("domain: negative feeRate %v", o.FeeRate)
	}
	if !isFinite(o.Price) || o.Price <= 0 {
		return fmt.Errorf("domain: non-finite or non-positive price %v", o.Price)
	}
	switch o.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("domain: unknown order side %q", o.Side)
	}
	switch o.Type {
	case OrderTypeLimit, OrderTypeMarket:
	default:
		return fmt.Errorf("domain: unknown order type %q", o.Type)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
