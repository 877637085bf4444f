package entity

import "time"

// EventTicker binds a news event to the tradable ticker the mapper
// resolved, with the confidence and method that produced the binding.
type EventTicker struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	NewsID         int64     `gorm:"not null;index" json:"news_id"`
	Ticker         string    `gorm:"not null" json:"ticker"`
	CompanyName    string    `json:"company_name"`
	MapConfidence  float64   `gorm:"not null" json:"map_confidence"`
	MappingMethod  string    `gorm:"not null" json:"mapping_method"`
	ContextSnippet string    `json:"context_snippet"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (EventTicker) TableName() string {
	return "event_tickers"
}
