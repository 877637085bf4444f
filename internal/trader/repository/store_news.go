package repository

import (
	"context"
	"errors"
	"fmt"

	"stock-news-trader/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsertNewsIfNew inserts a news event unless its url or raw_hash already
// exists. Returns false with the row untouched on a duplicate; the caller
// treats that as a benign skip, not an error.
func (s *store) InsertNewsIfNew(ctx context.Context, news *entity.NewsEvent) (bool, error) {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(news)
	if tx.Error != nil {
		return false, fmt.Errorf("InsertNewsIfNew: %w", tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// InsertEventTicker saves a news/ticker binding and fills in its id.
func (s *store) InsertEventTicker(ctx context.Context, binding *entity.EventTicker) error {
	if err := s.db.WithContext(ctx).Create(binding).Error; err != nil {
		return fmt.Errorf("InsertEventTicker: %w", err)
	}
	return nil
}

// GetEventTicker returns a binding by id, or (nil, nil) when absent.
func (s *store) GetEventTicker(ctx context.Context, id int64) (*entity.EventTicker, error) {
	var binding entity.EventTicker
	err := s.db.WithContext(ctx).First(&binding, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetEventTicker: %w", err)
	}
	return &binding, nil
}

// InsertSignal saves a scored signal and fills in its id.
func (s *store) InsertSignal(ctx context.Context, signal *entity.Signal) error {
	if err := s.db.WithContext(ctx).Create(signal).Error; err != nil {
		return fmt.Errorf("InsertSignal: %w", err)
	}
	return nil
}

// GetSignal returns a signal by id, or (nil, nil) when absent.
func (s *store) GetSignal(ctx context.Context, id int64) (*entity.Signal, error) {
	var signal entity.Signal
	err := s.db.WithContext(ctx).First(&signal, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetSignal: %w", err)
	}
	return &signal, nil
}

// ListSignals returns the most recent signals.
func (s *store) ListSignals(ctx context.Context, limit int) ([]entity.Signal, error) {
	if limit <= 0 {
		limit = 50
	}
	var signals []entity.Signal
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&signals).Error
	if err != nil {
		return nil, fmt.Errorf("ListSignals: %w", err)
	}
	return signals, nil
}
