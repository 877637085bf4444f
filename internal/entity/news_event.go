package entity

import "time"

// NewsEvent is one ingested news item. url and raw_hash are unique so the
// same story can never enter the pipeline twice.
type NewsEvent struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Source      string     `gorm:"not null" json:"source"`
	Tier        int        `gorm:"not null;check:tier IN (1,2,3)" json:"tier"`
	PublishedAt *time.Time `json:"published_at"`
	Title       string     `gorm:"not null" json:"title"`
	Body        string     `json:"body"`
	URL         string     `gorm:"not null;uniqueIndex" json:"url"`
	RawHash     string     `gorm:"not null;uniqueIndex" json:"raw_hash"`
	IngestedAt  time.Time  `gorm:"autoCreateTime" json:"ingested_at"`
}

func (NewsEvent) TableName() string {
	return "news_events"
}
