package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stock-news-trader/internal/entity"

	"gorm.io/gorm"
)

// ErrIllegalTransition is returned when a guarded position update matched
// no row: the position was not in the state the transition requires.
var ErrIllegalTransition = errors.New("illegal position state transition")

// StoreOps is every operation the pipeline performs against storage. The
// same set is available on the root Store (per-statement commit) and on a
// StoreTx (deferred until Commit).
type StoreOps interface {
	// Risk state and parameter registry
	EnsureRiskState(ctx context.Context, tradeDate string) error
	GetRiskState(ctx context.Context, tradeDate string) (*entity.RiskState, error)
	GetParameter(ctx context.Context, name string) (*entity.Parameter, error)
	GetScoreWeights(ctx context.Context) (map[string]float64, error)

	// News, bindings and signals
	InsertNewsIfNew(ctx context.Context, news *entity.NewsEvent) (bool, error)
	InsertEventTicker(ctx context.Context, binding *entity.EventTicker) error
	GetEventTicker(ctx context.Context, id int64) (*entity.EventTicker, error)
	InsertSignal(ctx context.Context, signal *entity.Signal) error
	GetSignal(ctx context.Context, id int64) (*entity.Signal, error)
	ListSignals(ctx context.Context, limit int) ([]entity.Signal, error)

	// Positions, orders and audit events
	CreatePosition(ctx context.Context, position *entity.Position) error
	GetPosition(ctx context.Context, id int64) (*entity.Position, error)
	FindPositionBySignalID(ctx context.Context, signalID int64) (*entity.Position, error)
	SetPositionOpen(ctx context.Context, positionID int64, avgEntryPrice, openedValue float64) error
	SetPositionClosed(ctx context.Context, positionID int64, reasonCode string) error
	ListOpenPositions(ctx context.Context) ([]entity.Position, error)
	ListPositions(ctx context.Context, status string, limit int) ([]entity.Position, error)
	InsertOrder(ctx context.Context, order *entity.Order) error
	MarkOrderFilled(ctx context.Context, orderID int64, price float64, brokerOrderID string) error
	InsertPositionEvent(ctx context.Context, event *entity.PositionEvent) (bool, error)
}

// Store is the event store. Begin opens a unit of work; callers thread the
// returned handle through every operation that belongs to it.
type Store interface {
	StoreOps
	Begin(ctx context.Context) (StoreTx, error)
}

// StoreTx is one open transaction. Rollback after Commit is a no-op, so it
// is safe to defer.
type StoreTx interface {
	StoreOps
	Commit() error
	Rollback() error
}

// NewStore creates a gorm-backed Store.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

type store struct {
	db *gorm.DB
}

func (s *store) Begin(ctx context.Context) (StoreTx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &storeTx{store{db: tx}}, nil
}

type storeTx struct {
	store
}

func (t *storeTx) Commit() error {
	if err := t.db.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (t *storeTx) Rollback() error {
	if err := t.db.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
