package persistence

import (
	"context"
	"fmt"

	"github.com/openlob/matchcore/internal/domain"
)

// ReplayOrders returns every order still resting or partially resting in
// the store, in createTime order, for the order producer's startup
// bootstrap (SPEC_FULL.md §4.5).
func ReplayOrders(ctx context.Context, pool *ConnectionPool) ([]*domain.Order, error) {
	var rows []orderRow
	if err := pool.Select(ctx, &rows, selectReplayOrdersSQL); err != nil {
		return nil, fmt.Errorf("persistence: replay query: %w", err)
	}
	orders := make([]*domain.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toDomain())
	}
	return orders, nil
}

// MaxOrderID returns the highest order id ever stored, or 0 if the store
// is empty, so a caller can seed a fresh id counter above it.
func MaxOrderID(ctx context.Context, pool *ConnectionPool) (uint32, error) {
	db, err := pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer pool.Release()

	var id uint32
	if err := db.GetContext(ctx, &id, selectMaxOrderIDSQL); err != nil {
		return 0, fmt.Errorf("persistence: max order id: %w", err)
	}
	return id, nil
}

// UpsertOrder writes o to the orders table outside of a transaction, used
// by the order producer to record a freshly generated order before
// publishing it.
func UpsertOrder(ctx context.Context, pool *ConnectionPool, o *domain.Order) error {
	return pool.Exec(ctx, upsertOrderSQL, orderArgs(o)...)
}
