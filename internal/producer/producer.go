// Package producer implements the order producer role: on startup it
// replays any order left in a non-terminal state from the relational
// store (so a restarted engine recovers its book), then generates a
// synthetic stream of new orders, per SPEC_FULL.md §4.5.
package producer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/openlob/matchcore/internal/domain"
	"github.com/openlob/matchcore/internal/envelope"
	"github.com/openlob/matchcore/internal/persistence"
)

// Sender abstracts the PUSH socket dialed to the engine's orders-in
// channel, so Producer can be tested without a live transport.
type Sender interface {
	Send(ctx context.Context, line []byte) error
}

// GenerationConfig bounds the synthetic order stream's price, quantity
// and fee parameters.
type GenerationConfig struct {
	MinPrice float64
	MaxPrice float64
	MinQty   float64
	MaxQty   float64
	FeeRate  float64
	Interval time.Duration
}

// DefaultGenerationConfig is the single-instrument, tight-spread
// synthetic flow the order role runs with: prices 95-105, quantities
// 0.1-5, one order every 200ms.
var DefaultGenerationConfig = GenerationConfig{
	MinPrice: 95,
	MaxPrice: 105,
	MinQty:   0.1,
	MaxQty:   5,
	FeeRate:  0.001,
	Interval: 200 * time.Millisecond,
}

// Producer replays resting orders then emits a synthetic order stream.
type Producer struct {
	pool   *persistence.ConnectionPool
	logger *zap.Logger
	nextID uint32
	gen    GenerationConfig
	rng    *rand.Rand
}

func New(pool *persistence.ConnectionPool, logger *zap.Logger, gen GenerationConfig, seed int64) *Producer {
	return &Producer{pool: pool, logger: logger, gen: gen, rng: rand.New(rand.NewSource(seed))}
}

// Bootstrap loads every order still resting or partially resting in the
// store and returns it in createTime order. It also seeds the producer's
// order id counter above the highest id ever stored, so newly generated
// orders never collide with a replayed one.
func (p *Producer) Bootstrap(ctx context.Context) ([]*domain.Order, error) {
	orders, err := persistence.ReplayOrders(ctx, p.pool)
	if err != nil {
		return nil, err
	}
	maxID, err := persistence.MaxOrderID(ctx, p.pool)
	if err != nil {
		return nil, fmt.Errorf("producer: %w", err)
	}
	p.nextID = maxID
	return orders, nil
}

// ReplayInto sends every bootstrap order to send, in order, flagged as a
// replay so the persistence consumer does not re-insert it.
func (p *Producer) ReplayInto(ctx context.Context, send Sender, orders []*domain.Order) error {
	for _, o := range orders {
		line, err := envelope.EncodeOrder(envelope.TypeOrder, o, true)
		if err != nil {
			return fmt.Errorf("producer: encode replay order %d: %w", o.OrderID, err)
		}
		if err := send.Send(ctx, line); err != nil {
			return fmt.Errorf("producer: send replay order %d: %w", o.OrderID, err)
		}
	}
	p.logger.Info("replayed resting orders", zap.Int("count", len(orders)))
	return nil
}

// Run generates synthetic orders on gen.Interval until ctx is canceled.
func (p *Producer) Run(ctx context.Context, send Sender) error {
	ticker := time.NewTicker(p.gen.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			order := p.nextOrder()
			line, err := envelope.EncodeOrder(envelope.TypeOrder, order, false)
			if err != nil {
				p.logger.Error("failed to encode generated order", zap.Error(err))
				continue
			}
			if err := persistence.UpsertOrder(ctx, p.pool, order); err != nil {
				p.logger.Error("failed to persist generated order before publish", zap.Error(err))
				continue
			}
			if err := send.Send(ctx, line); err != nil {
				p.logger.Warn("failed to send generated order", zap.Error(err))
			}
		}
	}
}

// nextOrder draws the next synthetic order's side, price and quantity
// uniformly from the configured ranges.
func (p *Producer) nextOrder() *domain.Order {
	p.nextID++
	now := time.Now().UTC()
	side := domain.SideBuy
	if p.rng.Intn(2) == 1 {
		side = domain.SideSell
	}
	price := domain.RoundPrice(p.gen.MinPrice + p.rng.Float64()*(p.gen.MaxPrice-p.gen.MinPrice))
	qty := domain.RoundQty(p.gen.MinQty + p.rng.Float64()*(p.gen.MaxQty-p.gen.MinQty))

	return &domain.Order{
		OrderID:    p.nextID,
		UserID:     uint64(1000 + p.rng.Intn(50)),
		Price:      price,
		Quantity:   qty,
		Side:       side,
		Type:       domain.OrderTypeLimit,
		Status:     domain.StatusInitial,
		FeeRate:    p.gen.FeeRate,
		CreateTime: domain.NewWireTime(now),
		UpdateTime: domain.NewWireTime(now),
	}
}
