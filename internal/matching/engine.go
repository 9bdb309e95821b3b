package matching

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/openlob/matchcore/internal/domain"
)

// snapshotInterval is the minimum time between two published snapshots
// (SPEC_FULL.md §4.1 adopts the 1 Hz, rate-limited resolution of the
// source's two matching-engine variants).
const snapshotInterval = 1 * time.Second

// ErrInvariantViolation is returned when the book is found in a state the
// algorithm should never produce. The caller (cmd/matchcore) treats this
// as fatal per SPEC_FULL.md §7: log and exit so a supervisor can restart
// with a fresh replay rather than risk emitting incorrect trades.
type ErrInvariantViolation struct {
	Detail string
}

func (e *ErrInvariantViolation) Error() string {
	return fmt.Sprintf("matching: invariant violation: %s", e.Detail)
}

// Engine is the single-threaded matching core. Every exported mutating
// method must only ever be called from the one goroutine running the
// engine's receive loop (internal/runtime wires that loop); this is what
// lets the book go lock-free, per SPEC_FULL.md §5.
type Engine struct {
	book          *OrderBook
	logger        *zap.Logger
	metrics       *Metrics
	nextTradeID   uint64
	lastPublishAt time.Time
}

// NewEngine constructs an engine with an empty book.
func NewEngine(logger *zap.Logger, metrics *Metrics) *Engine {
	return &Engine{
		book:          NewOrderBook(),
		logger:        logger,
		metrics:       metrics,
		lastPublishAt: time.Time{},
	}
}

// ProcessOrder runs one inbound limit (or pass-through market) order
// through the matching algorithm described in SPEC_FULL.md §4.1 steps
// 1-6, mutating the book and returning the events to emit downstream, in
// emission order.
func (e *Engine) ProcessOrder(order *domain.Order) ([]OutEvent, error) {
	if order.Type == domain.OrderTypeMarket {
		e.logger.Info("market order treated as limit at carried price",
			zap.Uint32("orderId", order.OrderID), zap.Float64("price", order.Price))
	}

	takerSide := order.Side
	now := time.Now().UTC()
	order.Status = domain.StatusMatching
	order.UpdateTime = domain.NewWireTime(now)

	var events []OutEvent
	anyFill := false

	for domain.RoundQty(order.Remaining()) > 0 {
		level, ok := e.book.BestOpposite(takerSide)
		if !ok || !marketable(takerSide, order.Price, level.price) {
			break
		}

		for domain.RoundQty(order.Remaining()) > 0 && level.orders.Len() > 0 {
			front := level.orders.Front()
			maker := front.Value.(*domain.Order)

			qty := domain.RoundQty(math.Min(order.Remaining(), maker.Remaining()))
			if qty <= 0 {
				return nil, &ErrInvariantViolation{Detail: "zero-quantity match selected"}
			}

			if err := e.applyFill(order, maker, qty); err != nil {
				return nil, err
			}
			anyFill = true

			trade := e.buildTrade(takerSide, order, maker, qty, now)
			var buy, sell *domain.Order
			if takerSide == domain.SideBuy {
				buy, sell = order, maker
			} else {
				buy, sell = maker, order
			}
			events = append(events, OutEvent{Trade: &TradeEvent{Buy: buy, Sell: sell, Trade: trade}})
			e.metrics.TradesEmitted.Inc()

			if maker.IsFullyFilled() {
				maker.Status = domain.StatusFullyFilled
				level.orders.Remove(front)
				delete(e.book.index, maker.OrderID)
			} else {
				maker.Status = domain.StatusPartiallyFilled
			}
		}

		e.book.DropLevelIfEmpty(oppositeSide(takerSide), level)
	}

	if domain.RoundQty(order.Remaining()) > 0 {
		if anyFill {
			order.Status = domain.StatusPartiallyFilled
		} else {
			order.Status = domain.StatusMatching
		}
		e.book.Insert(takerSide, order)
		if !anyFill {
			events = append(events, OutEvent{Unmatched: order})
			e.metrics.Unmatched.Inc()
		}
	} else {
		order.Status = domain.StatusFullyFilled
	}

	e.metrics.OrdersProcessed.Inc()
	e.updateDepthGauges()
	return events, nil
}

// ProcessCancel removes orderID from the book, if resting, and returns
// the status-change event to emit (reusing the UNMATCHED_ORDER envelope
// shape, per SPEC_FULL.md §6's addition of a CANCEL item type). The order
// is looked up by id alone; side is not checked against the resting
// order's side.
func (e *Engine) ProcessCancel(orderID uint32, side domain.Side) (*OutEvent, bool) {
	order, ok := e.book.Remove(orderID)
	if !ok {
		return nil, false
	}
	now := domain.NewWireTime(time.Now().UTC())
	if order.FilledQuantity > 0 {
		order.Status = domain.StatusPartiallyFilledCanceled
	} else {
		order.Status = domain.StatusCanceled
	}
	order.UpdateTime = now
	e.metrics.Cancels.Inc()
	e.updateDepthGauges()
	return &OutEvent{Unmatched: order}, true
}

func (e *Engine) applyFill(taker, maker *domain.Order, qty float64) error {
	if domain.RoundQty(taker.FilledQuantity+qty) > domain.RoundQty(taker.Quantity)+1e-9 {
		return &ErrInvariantViolation{Detail: fmt.Sprintf("fill exceeds taker %d remaining", taker.OrderID)}
	}
	if domain.RoundQty(maker.FilledQuantity+qty) > domain.RoundQty(maker.Quantity)+1e-9 {
		return &ErrInvariantViolation{Detail: fmt.Sprintf("fill exceeds maker %d remaining", maker.OrderID)}
	}
	now := domain.NewWireTime(time.Now().UTC())
	taker.FilledQuantity = domain.RoundQty(taker.FilledQuantity + qty)
	maker.FilledQuantity = domain.RoundQty(maker.FilledQuantity + qty)
	taker.UpdateTime = now
	maker.UpdateTime = now
	return nil
}

func (e *Engine) buildTrade(takerSide domain.Side, taker, maker *domain.Order, qty float64, now time.Time) *domain.TradeRecord {
	tradeID := atomic.AddUint64(&e.nextTradeID, 1)
	tradePrice := maker.Price // P5: trade price is always the maker's resting price

	var buyOrder, sellOrder *domain.Order
	if takerSide == domain.SideBuy {
		buyOrder, sellOrder = taker, maker
	} else {
		buyOrder, sellOrder = maker, taker
	}

	return &domain.TradeRecord{
		TradeID:       tradeID,
		BuyerUserID:   buyOrder.UserID,
		SellerUserID:  sellOrder.UserID,
		BuyerOrderID:  buyOrder.OrderID,
		SellerOrderID: sellOrder.OrderID,
		OrderType:     string(takerSide),
		TradePrice:    tradePrice,
		TradeQuantity: qty,
		BuyerFee:      domain.Fee(buyOrder.FeeRate, qty, tradePrice),
		SellerFee:     domain.Fee(sellOrder.FeeRate, qty, tradePrice),
		TradeTime:     domain.NewWireTime(now),
	}
}

func (e *Engine) updateDepthGauges() {
	e.metrics.BidDepth.Set(float64(e.book.bids.Len()))
	e.metrics.AskDepth.Set(float64(e.book.asks.Len()))
}

// marketable reports whether level's price crosses a taker of takerSide
// quoting at takerPrice.
func marketable(takerSide domain.Side, takerPrice, levelPrice float64) bool {
	if takerSide == domain.SideBuy {
		return levelPrice <= takerPrice
	}
	return levelPrice >= takerPrice
}

func oppositeSide(side domain.Side) domain.Side {
	if side == domain.SideBuy {
		return domain.SideSell
	}
	return domain.SideBuy
}

// CheckInvariant verifies P1 (non-crossed book): the best bid must be
// strictly below the best ask. Called after every processed message;
// a violation is fatal (SPEC_FULL.md §7).
func (e *Engine) CheckInvariant() error {
	bestBid, hasBid, bestAsk, hasAsk := e.book.BestPrices()
	if hasBid && hasAsk && bestBid >= bestAsk {
		return &ErrInvariantViolation{Detail: fmt.Sprintf("book crossed: bestBid=%v bestAsk=%v", bestBid, bestAsk)}
	}
	return nil
}

// ShouldPublish reports whether at least snapshotInterval has elapsed
// since the last published snapshot (SPEC_FULL.md §4.1 publish cadence,
// P7).
func (e *Engine) ShouldPublish(now time.Time) bool {
	return now.Sub(e.lastPublishAt) >= snapshotInterval
}

// MarkPublished records that a snapshot was just published at now.
func (e *Engine) MarkPublished(now time.Time) {
	e.lastPublishAt = now
}

// RecordSnapshotLatency observes how long a snapshot publish attempt took.
func (e *Engine) RecordSnapshotLatency(d time.Duration) {
	e.metrics.SnapshotLatency.Observe(d.Seconds())
}

// RecordMalformed counts an inbound envelope dropped for failing to
// parse or validate, before it ever reaches the matching algorithm.
func (e *Engine) RecordMalformed() {
	e.metrics.MalformedDropped.Inc()
}

// Snapshot renders the current book via FormatSnapshot.
func (e *Engine) Snapshot() []byte {
	return FormatSnapshot(e.book.IterSnapshot())
}
