package entity

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DecisionBuy    = "BUY"
	DecisionHold   = "HOLD"
	DecisionIgnore = "IGNORE"
	DecisionBlock  = "BLOCK"

	PricedInLow    = "LOW"
	PricedInMedium = "MEDIUM"
	PricedInHigh   = "HIGH"
)

// Signal is a scored trading signal derived from one news/ticker binding.
type Signal struct {
	ID            int64          `gorm:"primaryKey" json:"id"`
	NewsID        int64          `gorm:"not null;index" json:"news_id"`
	EventTickerID int64          `gorm:"not null" json:"event_ticker_id"`
	Ticker        string         `gorm:"not null" json:"ticker"`
	RawScore      float64        `gorm:"not null" json:"raw_score"`
	TotalScore    float64        `gorm:"not null;check:total_score BETWEEN 0 AND 100" json:"total_score"`
	Components    datatypes.JSON `gorm:"type:jsonb" json:"components"`
	PricedInFlag  string         `gorm:"not null;check:priced_in_flag IN ('LOW','MEDIUM','HIGH')" json:"priced_in_flag"`
	Decision      string         `gorm:"not null;check:decision IN ('BUY','HOLD','IGNORE','BLOCK')" json:"decision"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Signal) TableName() string {
	return "signal_scores"
}
