package persistence

import "context"

// schemaDDL creates the two tables the consumer and producer share, per
// SPEC_FULL.md §6. tradeId is the idempotency key for trade_records: the
// consumer may see the same TRADE envelope more than once under
// at-least-once delivery, and the unique constraint makes a duplicate
// insert a no-op rather than a double-counted fill.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS orders (
	order_id         BIGINT PRIMARY KEY,
	user_id          BIGINT NOT NULL,
	price            DOUBLE PRECISION NOT NULL,
	quantity         DOUBLE PRECISION NOT NULL,
	filled_quantity  DOUBLE PRECISION NOT NULL DEFAULT 0,
	fee_rate         DOUBLE PRECISION NOT NULL DEFAULT 0,
	order_side       TEXT NOT NULL,
	order_type       TEXT NOT NULL,
	status           TEXT NOT NULL,
	create_time      TIMESTAMPTZ NOT NULL,
	update_time      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_records (
	trade_id        BIGINT PRIMARY KEY,
	buyer_user_id   BIGINT NOT NULL,
	seller_user_id  BIGINT NOT NULL,
	buyer_order_id  BIGINT NOT NULL,
	seller_order_id BIGINT NOT NULL,
	order_type      TEXT NOT NULL,
	trade_price     DOUBLE PRECISION NOT NULL,
	trade_quantity  DOUBLE PRECISION NOT NULL,
	buyer_fee       DOUBLE PRECISION NOT NULL,
	seller_fee      DOUBLE PRECISION NOT NULL,
	trade_time      TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables if they do not already exist. Called
// once at startup by both the persistence consumer and the order
// producer's replay query.
func EnsureSchema(ctx context.Context, pool *ConnectionPool) error {
	return pool.Exec(ctx, schemaDDL)
}

const upsertOrderSQL = `
INSERT INTO orders (order_id, user_id, price, quantity, filled_quantity, fee_rate, order_side, order_type, status, create_time, update_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (order_id) DO UPDATE SET
	filled_quantity = EXCLUDED.filled_quantity,
	status          = EXCLUDED.status,
	update_time     = EXCLUDED.update_time
`

const insertTradeSQL = `
INSERT INTO trade_records (trade_id, buyer_user_id, seller_user_id, buyer_order_id, seller_order_id, order_type, trade_price, trade_quantity, buyer_fee, seller_fee, trade_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (trade_id) DO NOTHING
`

const selectReplayOrdersSQL = `
SELECT order_id, user_id, price, quantity, filled_quantity, fee_rate, order_side, order_type, status, create_time, update_time
FROM orders
WHERE status IN ('INITIAL', 'MATCHING', 'PARTIALLY_FILLED')
ORDER BY create_time ASC
`

const selectMaxOrderIDSQL = `SELECT COALESCE(MAX(order_id), 0) FROM orders`
