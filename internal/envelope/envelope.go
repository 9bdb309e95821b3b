// Package envelope implements the wire format shared by the three ZeroMQ
// channels: a single-line, UTF-8 JSON object carrying a "type" field plus
// one payload. Per SPEC_FULL.md §6 the payload fields are themselves
// JSON-encoded strings rather than nested objects — a compatibility wart
// inherited from the upstream producer that this package preserves on both
// the encode and decode paths.
package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/openlob/matchcore/internal/domain"
)

// Type identifies the envelope's payload shape.
type Type string

const (
	TypeOrder          Type = "ORDER"
	TypeUnmatchedOrder Type = "UNMATCHED_ORDER"
	TypeTrade          Type = "TRADE"
	TypeCancel         Type = "CANCEL"
)

// wire is the raw, doubly-encoded envelope shape used on the socket.
type wire struct {
	Type        Type   `json:"type"`
	Order       string `json:"order,omitempty"`
	BuyOrder    string `json:"buyOrder,omitempty"`
	SellOrder   string `json:"sellOrder,omitempty"`
	TradeRecord string `json:"tradeRecord,omitempty"`
	OrderID     uint32 `json:"orderId,omitempty"`
	Side        string `json:"side,omitempty"`
	IsReplay    bool   `json:"isReplay,omitempty"`
}

// Envelope is the parsed, typed form used inside the process.
type Envelope struct {
	Type          Type
	Order         *domain.Order
	BuyOrder      *domain.Order
	SellOrder     *domain.Order
	TradeRecord   *domain.TradeRecord
	CancelOrderID uint32
	CancelSide    domain.Side
	// IsReplay flags an ORDER envelope produced by the order producer's
	// startup replay, so the persistence consumer does not re-insert it.
	IsReplay bool
}

// Decode parses a single-line JSON envelope, including the nested
// doubly-encoded Order/TradeRecord strings.
func Decode(line []byte) (*Envelope, error) {
	var w wire
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("envelope: parse failure: %w", err)
	}

	env := &Envelope{Type: w.Type, IsReplay: w.IsReplay}

	switch w.Type {
	case TypeOrder, TypeUnmatchedOrder:
		if w.Order == "" {
			return nil, fmt.Errorf("envelope: %s missing order field", w.Type)
		}
		order, err := decodeOrder(w.Order)
		if err != nil {
			return nil, err
		}
		env.Order = order

	case TypeTrade:
		if w.BuyOrder == "" || w.SellOrder == "" || w.TradeRecord == "" {
			return nil, fmt.Errorf("envelope: TRADE missing buyOrder/sellOrder/tradeRecord")
		}
		buy, err := decodeOrder(w.BuyOrder)
		if err != nil {
			return nil, err
		}
		sell, err := decodeOrder(w.SellOrder)
		if err != nil {
			return nil, err
		}
		var tr domain.TradeRecord
		if err := json.Unmarshal([]byte(w.TradeRecord), &tr); err != nil {
			return nil, fmt.Errorf("envelope: invalid tradeRecord payload: %w", err)
		}
		env.BuyOrder, env.SellOrder, env.TradeRecord = buy, sell, &tr

	case TypeCancel:
		if w.OrderID == 0 {
			return nil, fmt.Errorf("envelope: CANCEL missing orderId")
		}
		side := domain.Side(w.Side)
		if side != domain.SideBuy && side != domain.SideSell {
			return nil, fmt.Errorf("envelope: CANCEL has unknown side %q", w.Side)
		}
		env.CancelOrderID = w.OrderID
		env.CancelSide = side

	default:
		return nil, fmt.Errorf("envelope: unknown type %q", w.Type)
	}

	return env, nil
}

func decodeOrder(encoded string) (*domain.Order, error) {
	var o domain.Order
	if err := json.Unmarshal([]byte(encoded), &o); err != nil {
		return nil, fmt.Errorf("envelope: invalid order payload: %w", err)
	}
	return &o, nil
}

// EncodeOrder produces an ORDER or UNMATCHED_ORDER envelope line.
func EncodeOrder(t Type, order *domain.Order, isReplay bool) ([]byte, error) {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal order: %w", err)
	}
	return json.Marshal(wire{Type: t, Order: string(orderJSON), IsReplay: isReplay})
}

// EncodeTrade produces a TRADE envelope line.
func EncodeTrade(buy, sell *domain.Order, trade *domain.TradeRecord) ([]byte, error) {
	buyJSON, err := json.Marshal(buy)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal buyOrder: %w", err)
	}
	sellJSON, err := json.Marshal(sell)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal sellOrder: %w", err)
	}
	tradeJSON, err := json.Marshal(trade)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal tradeRecord: %w", err)
	}
	return json.Marshal(wire{
		Type:        TypeTrade,
		BuyOrder:    string(buyJSON),
		SellOrder:   string(sellJSON),
		TradeRecord: string(tradeJSON),
	})
}

// EncodeCancel produces a CANCEL envelope line.
func EncodeCancel(orderID uint32, side domain.Side) ([]byte, error) {
	return json.Marshal(wire{Type: TypeCancel, OrderID: orderID, Side: string(side)})
}
