package persistence

import (
	"time"

	"github.com/openlob/matchcore/internal/domain"
)

// orderRow is the sqlx scan target for the orders table; column names
// follow the teacher's snake_case convention for struct tags even though
// the wire JSON (domain.Order) is camelCase.
type orderRow struct {
	OrderID        uint32    `db:"order_id"`
	UserID         uint64    `db:"user_id"`
	Price          float64   `db:"price"`
	Quantity       float64   `db:"quantity"`
	FilledQuantity float64   `db:"filled_quantity"`
	FeeRate        float64   `db:"fee_rate"`
	OrderSide      string    `db:"order_side"`
	OrderType      string    `db:"order_type"`
	Status         string    `db:"status"`
	CreateTime     time.Time `db:"create_time"`
	UpdateTime     time.Time `db:"update_time"`
}

func (r orderRow) toDomain() *domain.Order {
	return &domain.Order{
		OrderID:        r.OrderID,
		UserID:         r.UserID,
		Price:          r.Price,
		Quantity:       r.Quantity,
		FilledQuantity: r.FilledQuantity,
		FeeRate:        r.FeeRate,
		Side:           domain.Side(r.OrderSide),
		Type:           domain.OrderType(r.OrderType),
		Status:         domain.Status(r.Status),
		CreateTime:     domain.NewWireTime(r.CreateTime),
		UpdateTime:     domain.NewWireTime(r.UpdateTime),
	}
}

func orderArgs(o *domain.Order) []interface{} {
	return []interface{}{
		o.OrderID, o.UserID, o.Price, o.Quantity, o.FilledQuantity, o.FeeRate,
		string(o.Side), string(o.Type), string(o.Status),
		o.CreateTime.Time, o.UpdateTime.Time,
	}
}

func tradeArgs(t *domain.TradeRecord) []interface{} {
	return []interface{}{
		t.TradeID, t.BuyerUserID, t.SellerUserID, t.BuyerOrderID, t.SellerOrderID,
		t.OrderType, t.TradePrice, t.TradeQuantity, t.BuyerFee, t.SellerFee, t.TradeTime.Time,
	}
}
