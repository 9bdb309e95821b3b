package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/panjf2000/ants/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/openlob/matchcore/internal/envelope"
)

// dedupeTTL bounds how long a tradeId is remembered for idempotency
// filtering, per SPEC_FULL.md §4.4. A trade older than this has long
// since been committed or retried to exhaustion.
const dedupeTTL = 10 * time.Minute

// Consumer applies TRADE and UNMATCHED_ORDER envelopes pulled from the
// engine's events-out channel to the relational store. Grounded on the
// teacher's internal/db/connection_pool_fixed.go for the pool shape, and
// on internal/orders/order_service.go for the go-cache dedupe pattern;
// adapted here to drive pool access through a bounded ants worker instead
// of a raw goroutine-per-message fan-out, since persistence order must
// track the socket's delivery order for a given order id.
type Consumer struct {
	pool       *ConnectionPool
	logger     *zap.Logger
	seenTrades *cache.Cache
	breaker    *gobreaker.CircuitBreaker
	workers    *ants.Pool
}

// Receiver abstracts the PULL socket so the consumer can be tested
// without a live ZeroMQ transport.
type Receiver interface {
	Recv(ctx context.Context) ([]byte, error)
}

func NewConsumer(pool *ConnectionPool, logger *zap.Logger) (*Consumer, error) {
	workers, err := ants.NewPool(4)
	if err != nil {
		return nil, fmt.Errorf("persistence: worker pool: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "persistence-db",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Consumer{
		pool:       pool,
		logger:     logger,
		seenTrades: cache.New(dedupeTTL, dedupeTTL/2),
		breaker:    cb,
		workers:    workers,
	}, nil
}

func (c *Consumer) Close() {
	c.workers.Release()
}

// Run pulls envelopes from recv until ctx is canceled, applying each one
// through the bounded worker pool but waiting for completion before
// requesting the next message, so that two envelopes touching the same
// order id are never applied out of order.
func (c *Consumer) Run(ctx context.Context, recv Receiver) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := recv.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("events-in recv failed, retrying after backoff", zap.Error(err))
			time.Sleep(backoffInterval)
			continue
		}

		env, err := envelope.Decode(raw)
		if err != nil {
			c.logger.Warn("dropping malformed envelope", zap.Error(err))
			continue
		}

		done := make(chan error, 1)
		submitErr := c.workers.Submit(func() {
			done <- c.apply(ctx, env)
		})
		if submitErr != nil {
			c.logger.Error("worker pool submit failed, applying inline", zap.Error(submitErr))
			done <- c.apply(ctx, env)
		}

		if applyErr := <-done; applyErr != nil {
			c.logger.Error("failed to persist envelope after retry", zap.Error(applyErr), zap.String("type", string(env.Type)))
		}
	}
}

func (c *Consumer) apply(ctx context.Context, env *envelope.Envelope) error {
	switch env.Type {
	case envelope.TypeTrade:
		return c.applyTrade(ctx, env)
	case envelope.TypeUnmatchedOrder:
		return c.applyUnmatched(ctx, env)
	case envelope.TypeOrder:
		if env.IsReplay {
			return nil // producer bootstrap replays are not re-persisted
		}
		return c.applyUnmatched(ctx, env)
	default:
		return nil
	}
}

func (c *Consumer) applyTrade(ctx context.Context, env *envelope.Envelope) error {
	key := fmt.Sprintf("trade:%d", env.TradeRecord.TradeID)
	if _, found := c.seenTrades.Get(key); found {
		return nil
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.withRetry(func() error {
			return c.pool.WithTx(ctx, func(tx *sqlx.Tx) error {
				if _, err := tx.ExecContext(ctx, upsertOrderSQL, orderArgs(env.BuyOrder)...); err != nil {
					return fmt.Errorf("persistence: upsert buy order: %w", err)
				}
				if _, err := tx.ExecContext(ctx, upsertOrderSQL, orderArgs(env.SellOrder)...); err != nil {
					return fmt.Errorf("persistence: upsert sell order: %w", err)
				}
				if _, err := tx.ExecContext(ctx, insertTradeSQL, tradeArgs(env.TradeRecord)...); err != nil {
					return fmt.Errorf("persistence: insert trade: %w", err)
				}
				return nil
			})
		})
	})
	if err != nil {
		return err
	}
	c.seenTrades.Set(key, struct{}{}, dedupeTTL)
	return nil
}

func (c *Consumer) applyUnmatched(ctx context.Context, env *envelope.Envelope) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.withRetry(func() error {
			return c.pool.Exec(ctx, upsertOrderSQL, orderArgs(env.Order)...)
		})
	})
	return err
}

// withRetry attempts fn once, and once more after a short pause if the
// first attempt failed with a transient error, per SPEC_FULL.md §7.
func (c *Consumer) withRetry(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if !IsTransient(err) {
		return err
	}
	time.Sleep(200 * time.Millisecond)
	return fn()
}
