package repository

import (
	"context"
	"errors"
	"fmt"

	"stock-news-trader/internal/entity"
	"stock-news-trader/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePosition inserts a new position. Status is forced to
// PENDING_ENTRY; entry is the only way a position comes into existence.
func (s *store) CreatePosition(ctx context.Context, position *entity.Position) error {
	position.Status = entity.PositionStatusPendingEntry
	if position.Leverage == 0 {
		position.Leverage = 1.0
	}
	if err := s.db.WithContext(ctx).Create(position).Error; err != nil {
		return fmt.Errorf("CreatePosition: %w", err)
	}
	return nil
}

// GetPosition returns a position by id, or (nil, nil) when absent.
func (s *store) GetPosition(ctx context.Context, id int64) (*entity.Position, error) {
	var position entity.Position
	err := s.db.WithContext(ctx).First(&position, "position_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetPosition: %w", err)
	}
	return &position, nil
}

// FindPositionBySignalID returns the position created for a signal, or
// (nil, nil) when the signal has never been executed.
func (s *store) FindPositionBySignalID(ctx context.Context, signalID int64) (*entity.Position, error) {
	var position entity.Position
	err := s.db.WithContext(ctx).First(&position, "signal_id = ?", signalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindPositionBySignalID: %w", err)
	}
	return &position, nil
}

// SetPositionOpen moves a position PENDING_ENTRY -> OPEN. The transition
// is a single conditional update; zero rows affected means the position
// was not PENDING_ENTRY and the caller gets ErrIllegalTransition.
func (s *store) SetPositionOpen(ctx context.Context, positionID int64, avgEntryPrice, openedValue float64) error {
	tx := s.db.WithContext(ctx).Model(&entity.Position{}).
		Where("position_id = ? AND status = ?", positionID, entity.PositionStatusPendingEntry).
		Updates(map[string]interface{}{
			"status":          entity.PositionStatusOpen,
			"avg_entry_price": avgEntryPrice,
			"opened_value":    openedValue,
			"opened_at":       utils.TimeNowKST(),
		})
	if tx.Error != nil {
		return fmt.Errorf("SetPositionOpen: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("position %d PENDING_ENTRY->OPEN: %w", positionID, ErrIllegalTransition)
	}
	return nil
}

// SetPositionClosed moves a position OPEN -> CLOSED under the same
// guarded-update contract as SetPositionOpen.
func (s *store) SetPositionClosed(ctx context.Context, positionID int64, reasonCode string) error {
	tx := s.db.WithContext(ctx).Model(&entity.Position{}).
		Where("position_id = ? AND status = ?", positionID, entity.PositionStatusOpen).
		Updates(map[string]interface{}{
			"status":           entity.PositionStatusClosed,
			"closed_at":        utils.TimeNowKST(),
			"exit_reason_code": reasonCode,
		})
	if tx.Error != nil {
		return fmt.Errorf("SetPositionClosed: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("position %d OPEN->CLOSED: %w", positionID, ErrIllegalTransition)
	}
	return nil
}

// ListOpenPositions returns every OPEN position, oldest first.
func (s *store) ListOpenPositions(ctx context.Context) ([]entity.Position, error) {
	var positions []entity.Position
	err := s.db.WithContext(ctx).
		Where("status = ?", entity.PositionStatusOpen).
		Order("opened_at ASC").
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("ListOpenPositions: %w", err)
	}
	return positions, nil
}

// ListPositions returns recent positions, optionally filtered by status.
func (s *store) ListPositions(ctx context.Context, status string, limit int) ([]entity.Position, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("position_id DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var positions []entity.Position
	if err := q.Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("ListPositions: %w", err)
	}
	return positions, nil
}

// InsertOrder saves an order attempt and fills in its id.
func (s *store) InsertOrder(ctx context.Context, order *entity.Order) error {
	if order.AttemptNo == 0 {
		order.AttemptNo = 1
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("InsertOrder: %w", err)
	}
	return nil
}

// MarkOrderFilled records the venue fill on an order.
func (s *store) MarkOrderFilled(ctx context.Context, orderID int64, price float64, brokerOrderID string) error {
	tx := s.db.WithContext(ctx).Model(&entity.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":          entity.OrderStatusFilled,
			"price":           price,
			"broker_order_id": brokerOrderID,
			"filled_at":       utils.TimeNowKST(),
		})
	if tx.Error != nil {
		return fmt.Errorf("MarkOrderFilled: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("MarkOrderFilled: order %d not found", orderID)
	}
	return nil
}

// InsertPositionEvent appends an audit event. A duplicate idempotency key
// creates no row and returns false; the attempt was already recorded.
func (s *store) InsertPositionEvent(ctx context.Context, event *entity.PositionEvent) (bool, error) {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, fmt.Errorf("InsertPositionEvent: %w", tx.Error)
	}
	return tx.RowsAffected > 0, nil
}
