package entity

import "time"

const (
	PositionStatusPendingEntry = "PENDING_ENTRY"
	PositionStatusOpen         = "OPEN"
	PositionStatusPartialExit  = "PARTIAL_EXIT"
	PositionStatusClosed       = "CLOSED"
	PositionStatusCancelled    = "CANCELLED"
)

// Position is one holding created from a signal. Status only ever moves
// through guarded conditional updates, so a row can never skip a state.
type Position struct {
	PositionID     int64      `gorm:"column:position_id;primaryKey" json:"position_id"`
	Ticker         string     `gorm:"not null" json:"ticker"`
	SignalID       int64      `gorm:"not null;index" json:"signal_id"`
	Status         string     `gorm:"not null;check:status IN ('PENDING_ENTRY','OPEN','PARTIAL_EXIT','CLOSED','CANCELLED')" json:"status"`
	Qty            float64    `gorm:"not null" json:"qty"`
	AvgEntryPrice  float64    `json:"avg_entry_price"`
	OpenedValue    float64    `json:"opened_value"`
	Leverage       float64    `gorm:"not null;default:1.0" json:"leverage"`
	OpenedAt       *time.Time `json:"opened_at"`
	ClosedAt       *time.Time `json:"closed_at"`
	ExitReasonCode string     `json:"exit_reason_code"`
}

func (Position) TableName() string {
	return "positions"
}
