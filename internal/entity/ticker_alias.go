package entity

import (
	"time"

	"github.com/lib/pq"
)

// TickerAlias is one row of the mapping dictionary: every alias string
// that resolves to a ticker. A row with an empty ticker marks its aliases
// as ambiguous; a hit on one must produce no mapping.
type TickerAlias struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	Ticker      string         `gorm:"not null" json:"ticker"`
	CompanyName string         `json:"company_name"`
	Aliases     pq.StringArray `gorm:"type:text[]" json:"aliases"`
	Confidence  float64        `gorm:"not null" json:"confidence"`
	Method      string         `gorm:"not null" json:"method"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (TickerAlias) TableName() string {
	return "ticker_aliases"
}
