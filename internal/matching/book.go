// Package matching implements the resident order book and the price-time
// priority matching algorithm described in SPEC_FULL.md §4.1-4.2. The book
// is realized as an ordered map keyed by price (github.com/tidwall/btree,
// the structure saiputravu-Exchange's internal/engine/orderbook.go uses
// for the identical purpose) whose values are FIFO price levels backed by
// container/list, plus a map index giving O(1) order lookup and O(log n)
// level removal.
package matching

import (
	"container/list"

	"github.com/tidwall/btree"

	"github.com/openlob/matchcore/internal/domain"
)

// priceLevel is the FIFO queue of resting orders sharing one side and
// price, in arrival order: Insert appends at the tail, so the queue
// follows createTime only as far as orders arrive in createTime order.
// Neither createTime nor orderId is compared on insertion.
type priceLevel struct {
	price  float64
	orders *list.List // of *domain.Order
}

func newPriceLevel(price float64) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

// bookEntry indexes a resting order by its list element and level, so
// Remove can splice it out in O(1) without scanning the level.
type bookEntry struct {
	order *domain.Order
	elem  *list.Element
	level *priceLevel
	side  domain.Side
}

// OrderBook holds the two sides of the resident book for a single
// instrument.
type OrderBook struct {
	bids  *btree.BTreeG[*priceLevel] // best (highest) price sorts first
	asks  *btree.BTreeG[*priceLevel] // best (lowest) price sorts first
	index map[uint32]*bookEntry
}

// NewOrderBook constructs an empty book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: btree.NewBTreeG(func(a, b *priceLevel) bool { return a.price > b.price }),
		asks: btree.NewBTreeG(func(a, b *priceLevel) bool { return a.price < b.price }),
		index: make(map[uint32]*bookEntry),
	}
}

func (b *OrderBook) levels(side domain.Side) *btree.BTreeG[*priceLevel] {
	if side == domain.SideBuy {
		return b.bids
	}
	return b.asks
}

// oppositeLevels returns the book side a taker of the given side matches
// against: asks for a buy taker, bids for a sell taker.
func (b *OrderBook) oppositeLevels(takerSide domain.Side) *btree.BTreeG[*priceLevel] {
	if takerSide == domain.SideBuy {
		return b.asks
	}
	return b.bids
}

// BestOpposite returns the best marketable level on the opposite side of
// takerSide, if any.
func (b *OrderBook) BestOpposite(takerSide domain.Side) (*priceLevel, bool) {
	return b.oppositeLevels(takerSide).Min()
}

// Insert places order at the tail of its side's price level, creating the
// level if it does not yet exist.
func (b *OrderBook) Insert(side domain.Side, order *domain.Order) {
	levels := b.levels(side)
	level, ok := levels.Get(&priceLevel{price: order.Price})
	if !ok {
		level = newPriceLevel(order.Price)
		levels.Set(level)
	}
	elem := level.orders.PushBack(order)
	b.index[order.OrderID] = &bookEntry{order: order, elem: elem, level: level, side: side}
}

// Remove deletes orderID from the book, splicing it out of its level and
// dropping the level itself if it becomes empty. Reports whether the
// order was found.
func (b *OrderBook) Remove(orderID uint32) (*domain.Order, bool) {
	entry, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	entry.level.orders.Remove(entry.elem)
	delete(b.index, orderID)
	if entry.level.orders.Len() == 0 {
		b.levels(entry.side).Delete(&priceLevel{price: entry.level.price})
	}
	return entry.order, true
}

// DropLevelIfEmpty removes level from side's tree if it has no remaining
// orders.
func (b *OrderBook) DropLevelIfEmpty(side domain.Side, level *priceLevel) {
	if level.orders.Len() == 0 {
		b.levels(side).Delete(&priceLevel{price: level.price})
	}
}

// BestPrices returns the best bid and best ask, each with an ok flag, for
// invariant checks (P1: non-crossed book).
func (b *OrderBook) BestPrices() (bestBid float64, hasBid bool, bestAsk float64, hasAsk bool) {
	if lvl, ok := b.bids.Min(); ok {
		bestBid, hasBid = lvl.price, true
	}
	if lvl, ok := b.asks.Min(); ok {
		bestAsk, hasAsk = lvl.price, true
	}
	return
}

// RestingLevel is a single row of a snapshot render.
type RestingLevel struct {
	Side     domain.Side
	Price    float64
	Quantity float64
}

// IterSnapshot produces every resting order across both sides, bids first
// in ascending-price order then asks in ascending-price order, per
// SPEC_FULL.md §4.3. Quantity is the total remaining quantity resting at
// that price level's order (one row per order, not per level).
func (b *OrderBook) IterSnapshot() []RestingLevel {
	var rows []RestingLevel
	var bidRows []RestingLevel
	b.bids.Scan(func(level *priceLevel) bool {
		for e := level.orders.Front(); e != nil; e = e.Next() {
			o := e.Value.(*domain.Order)
			bidRows = append(bidRows, RestingLevel{Side: domain.SideBuy, Price: o.Price, Quantity: o.Remaining()})
		}
		return true
	})
	// bids.Scan iterates in the tree's natural order (descending price);
	// the snapshot wants ascending, so walk the collected rows in reverse.
	for i := len(bidRows) - 1; i >= 0; i-- {
		rows = append(rows, bidRows[i])
	}
	b.asks.Scan(func(level *priceLevel) bool {
		for e := level.orders.Front(); e != nil; e = e.Next() {
			o := e.Value.(*domain.Order)
			rows = append(rows, RestingLevel{Side: domain.SideSell, Price: o.Price, Quantity: o.Remaining()})
		}
		return true
	})
	return rows
}
