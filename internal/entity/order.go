package entity

import "time"

const (
	OrderSideBuy  = "BUY"
	OrderSideSell = "SELL"

	OrderTypeMarket    = "MARKET"
	OrderTypeLimit     = "LIMIT"
	OrderTypeStop      = "STOP"
	OrderTypeStopLimit = "STOP_LIMIT"

	OrderStatusNew           = "NEW"
	OrderStatusSent          = "SENT"
	OrderStatusPartialFilled = "PARTIAL_FILLED"
	OrderStatusFilled        = "FILLED"
	OrderStatusCancelled     = "CANCELLED"
	OrderStatusRejected      = "REJECTED"
	OrderStatusExpired       = "EXPIRED"
)

// Order is one broker order attempt tied to a position.
type Order struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	PositionID    int64      `gorm:"not null;index" json:"position_id"`
	SignalID      int64      `gorm:"not null" json:"signal_id"`
	Ticker        string     `gorm:"not null" json:"ticker"`
	Side          string     `gorm:"not null;check:side IN ('BUY','SELL')" json:"side"`
	Qty           float64    `gorm:"not null" json:"qty"`
	OrderType     string     `gorm:"not null;check:order_type IN ('MARKET','LIMIT','STOP','STOP_LIMIT')" json:"order_type"`
	Price         float64    `json:"price"`
	Status        string     `gorm:"not null;check:status IN ('NEW','SENT','PARTIAL_FILLED','FILLED','CANCELLED','REJECTED','EXPIRED')" json:"status"`
	BrokerOrderID string     `json:"broker_order_id"`
	AttemptNo     int        `gorm:"not null;default:1" json:"attempt_no"`
	SentAt        *time.Time `json:"sent_at"`
	FilledAt      *time.Time `json:"filled_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}
