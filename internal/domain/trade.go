package domain

// TradeRecord is an immutable record of a single fill between a taker and
// a resting maker order.
type TradeRecord struct {
	TradeID       uint64   `json:"tradeId"`
	BuyerUserID   uint64   `json:"buyerUserId"`
	SellerUserID  uint64   `json:"sellerUserId"`
	BuyerOrderID  uint32   `json:"buyerOrderId"`
	SellerOrderID uint32   `json:"sellerOrderId"`
	OrderType     string   `json:"orderType"` // taker side, "BUY" or "SELL"
	TradePrice    float64  `json:"tradePrice"`
	TradeQuantity float64  `json:"tradeQuantity"`
	BuyerFee      float64  `json:"buyerFee"`
	SellerFee     float64  `json:"sellerFee"`
	TradeTime     WireTime `json:"tradeTime"`
}
