package entity

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	EventTypeEntry       = "ENTRY"
	EventTypeAdd         = "ADD"
	EventTypePartialExit = "PARTIAL_EXIT"
	EventTypeFullExit    = "FULL_EXIT"
	EventTypeBlock       = "BLOCK"

	EventActionExecuted = "EXECUTED"
	EventActionSkipped  = "SKIPPED"
	EventActionBlocked  = "BLOCKED"
)

// PositionEvent is the audit trail of position lifecycle attempts. The
// unique idempotency_key suppresses duplicate rows for the same attempt.
// position_id carries no foreign key: a BLOCK event may reference a
// position whose row was rolled back.
type PositionEvent struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	PositionID     int64          `gorm:"not null;index" json:"position_id"`
	EventTime      time.Time      `gorm:"autoCreateTime" json:"event_time"`
	EventType      string         `gorm:"not null;check:event_type IN ('ENTRY','ADD','PARTIAL_EXIT','FULL_EXIT','BLOCK')" json:"event_type"`
	Action         string         `gorm:"not null;check:action IN ('EXECUTED','SKIPPED','BLOCKED')" json:"action"`
	ReasonCode     string         `json:"reason_code"`
	DetailJSON     datatypes.JSON `gorm:"column:detail_json;type:jsonb" json:"detail_json"`
	IdempotencyKey string         `gorm:"not null;uniqueIndex" json:"idempotency_key"`
}

func (PositionEvent) TableName() string {
	return "position_events"
}

// EntryIdempotencyKey identifies one entry attempt for a position/order pair.
func EntryIdempotencyKey(positionID, orderID int64) string {
	return fmt.Sprintf("entry:%d:%d", positionID, orderID)
}

// BlockIdempotencyKey identifies one blocked entry attempt.
func BlockIdempotencyKey(positionID, orderID int64) string {
	return fmt.Sprintf("block:%d:%d", positionID, orderID)
}

// ExitIdempotencyKey identifies one exit attempt for a position/order pair.
func ExitIdempotencyKey(positionID, exitOrderID int64) string {
	return fmt.Sprintf("exit:%d:%d", positionID, exitOrderID)
}
