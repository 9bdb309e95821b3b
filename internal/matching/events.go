package matching

import "github.com/openlob/matchcore/internal/domain"

// OutEvent is one downstream event the engine emits while processing a
// single inbound envelope. Events for one aggressor are returned in the
// order they occurred, per SPEC_FULL.md §5's ordering guarantee.
type OutEvent struct {
	Trade     *TradeEvent
	Unmatched *domain.Order
}

// TradeEvent pairs the immutable TradeRecord with the buy/sell order
// snapshots at the moment of the fill, matching the wire TRADE envelope's
// three payloads.
type TradeEvent struct {
	Buy   *domain.Order
	Sell  *domain.Order
	Trade *domain.TradeRecord
}
