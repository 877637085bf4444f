package entity

import "time"

// RiskState is the per-trade-date risk snapshot the gate consults before
// any entry. trading_enabled uses 0/1 so external tooling can flip it with
// a plain UPDATE.
type RiskState struct {
	TradeDate          string     `gorm:"primaryKey;size:10" json:"trade_date"`
	DailyRealizedPnl   float64    `gorm:"not null;default:0" json:"daily_realized_pnl"`
	DailyUnrealizedPnl float64    `gorm:"not null;default:0" json:"daily_unrealized_pnl"`
	DailyLossLimitHit  int        `gorm:"not null;default:0" json:"daily_loss_limit_hit"`
	ConsecutiveLosses  int        `gorm:"not null;default:0" json:"consecutive_losses"`
	CooldownUntil      *time.Time `json:"cooldown_until"`
	TradingEnabled     int        `gorm:"not null;default:1" json:"trading_enabled"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RiskState) TableName() string {
	return "risk_state"
}
