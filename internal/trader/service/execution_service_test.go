package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/internal/trader/repository"
	"stock-news-trader/internal/trader/risk"
	"stock-news-trader/pkg/common"
	"stock-news-trader/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type brokerStep struct {
	result *dto.OrderResult
	err    error
}

func fillStep(price float64) brokerStep {
	return brokerStep{result: &dto.OrderResult{
		Status:   entity.OrderStatusFilled,
		AvgPrice: price,
	}}
}

func rejectStep(reason string) brokerStep {
	return brokerStep{result: &dto.OrderResult{
		Status:     entity.OrderStatusRejected,
		ReasonCode: reason,
	}}
}

// scriptedBroker replays a fixed sequence of venue verdicts and records
// every request it saw.
type scriptedBroker struct {
	steps []brokerStep
	calls []dto.OrderRequest
}

func (b *scriptedBroker) Name() string { return "scripted" }

func (b *scriptedBroker) SendOrder(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error) {
	idx := len(b.calls)
	b.calls = append(b.calls, req)
	if idx >= len(b.steps) {
		idx = len(b.steps) - 1
	}
	step := b.steps[idx]
	if step.err != nil {
		return nil, step.err
	}
	result := *step.result
	result.FilledQty = req.Qty
	result.BrokerOrderID = "SB-" + strconv.Itoa(idx+1)
	return &result, nil
}

func (b *scriptedBroker) HealthCheck(ctx context.Context) (*dto.HealthReport, error) {
	return &dto.HealthReport{Broker: b.Name(), Status: dto.HealthOK}, nil
}

type executionFixture struct {
	db         *gorm.DB
	store      repository.Store
	broker     *scriptedBroker
	killSwitch *risk.KillSwitch
	svc        ExecutionService
}

func newExecutionFixture(t *testing.T, steps ...brokerStep) *executionFixture {
	t.Helper()
	db, store := newServiceTestDB(t)
	killSwitch := risk.NewKillSwitch()
	scripted := &scriptedBroker{steps: steps}
	svc := NewExecutionService(testConfig(), testLogger(t), nil, store,
		risk.NewGate(killSwitch), scripted, nil)
	return &executionFixture{db: db, store: store, broker: scripted, killSwitch: killSwitch, svc: svc}
}

func (f *executionFixture) counts(t *testing.T) (positions, orders, events int64) {
	t.Helper()
	require.NoError(t, f.db.Model(&entity.Position{}).Count(&positions).Error)
	require.NoError(t, f.db.Model(&entity.Order{}).Count(&orders).Error)
	require.NoError(t, f.db.Model(&entity.PositionEvent{}).Count(&events).Error)
	return
}

func executionRequest() dto.StreamDataSignalExecution {
	return dto.StreamDataSignalExecution{SignalID: 11, Ticker: "005930", Qty: 2}
}

func TestExecuteOpensThenSettles(t *testing.T) {
	f := newExecutionFixture(t, fillStep(70000), fillStep(70500))

	require.NoError(t, f.svc.Execute(context.Background(), executionRequest()))

	var position entity.Position
	require.NoError(t, f.db.First(&position, "signal_id = ?", 11).Error)
	assert.Equal(t, entity.PositionStatusClosed, position.Status)
	assert.Equal(t, common.ReasonTimeExit, position.ExitReasonCode)
	assert.Equal(t, 70000.0, position.AvgEntryPrice)
	assert.Equal(t, 140000.0, position.OpenedValue)
	assert.NotNil(t, position.OpenedAt)
	assert.NotNil(t, position.ClosedAt)

	var orders []entity.Order
	require.NoError(t, f.db.Order("id ASC").Find(&orders).Error)
	require.Len(t, orders, 2)
	assert.Equal(t, entity.OrderSideBuy, orders[0].Side)
	assert.Equal(t, entity.OrderStatusFilled, orders[0].Status)
	assert.Equal(t, 70000.0, orders[0].Price)
	assert.Equal(t, entity.OrderSideSell, orders[1].Side)
	assert.Equal(t, entity.OrderStatusFilled, orders[1].Status)
	assert.Equal(t, 70500.0, orders[1].Price)

	var events []entity.PositionEvent
	require.NoError(t, f.db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, entity.EventTypeEntry, events[0].EventType)
	assert.Equal(t, entity.EntryIdempotencyKey(position.PositionID, orders[0].ID), events[0].IdempotencyKey)
	assert.Equal(t, entity.EventTypeFullExit, events[1].EventType)
	assert.Equal(t, entity.ExitIdempotencyKey(position.PositionID, orders[1].ID), events[1].IdempotencyKey)

	require.Len(t, f.broker.calls, 2)
	assert.Equal(t, entity.OrderSideBuy, f.broker.calls[0].Side)
	assert.Equal(t, entity.OrderSideSell, f.broker.calls[1].Side)
	assert.Equal(t, 70000.0, f.broker.calls[1].ExpectedPrice, "exit quotes the entry price")
}

func TestExecuteSignalKillSwitchBlocksBeforeAnyRow(t *testing.T) {
	f := newExecutionFixture(t, fillStep(70000))
	f.killSwitch.Engage()

	entered, err := f.svc.ExecuteSignal(context.Background(), executionRequest())
	require.NoError(t, err, "a gate block is an outcome, not an error")
	assert.False(t, entered)

	positions, orders, events := f.counts(t)
	assert.Zero(t, positions)
	assert.Zero(t, orders)
	assert.Zero(t, events)
	assert.Empty(t, f.broker.calls, "blocked entries never reach the venue")
}

func TestExecuteSignalDisabledDayBlocks(t *testing.T) {
	f := newExecutionFixture(t, fillStep(70000))

	tradeDate := utils.TradeDate(utils.TimeNowKST())
	require.NoError(t, f.db.Create(&entity.RiskState{TradeDate: tradeDate, TradingEnabled: 1}).Error)
	require.NoError(t, f.db.Model(&entity.RiskState{}).
		Where("trade_date = ?", tradeDate).
		Update("trading_enabled", 0).Error)

	entered, err := f.svc.ExecuteSignal(context.Background(), executionRequest())
	require.NoError(t, err)
	assert.False(t, entered)

	positions, orders, events := f.counts(t)
	assert.Zero(t, positions)
	assert.Zero(t, orders)
	assert.Zero(t, events)
	assert.Empty(t, f.broker.calls)
}

func TestExecuteSignalVenueRejectRollsBackButKeepsAudit(t *testing.T) {
	f := newExecutionFixture(t, rejectStep("INSUFFICIENT_CASH"))

	entered, err := f.svc.ExecuteSignal(context.Background(), executionRequest())
	require.NoError(t, err, "a venue reject is an outcome, not an error")
	assert.False(t, entered)

	positions, orders, events := f.counts(t)
	assert.Zero(t, positions, "the position row does not survive the reject")
	assert.Zero(t, orders, "the order row does not survive the reject")
	require.Equal(t, int64(1), events, "the block audit survives in its own write")

	var event entity.PositionEvent
	require.NoError(t, f.db.First(&event).Error)
	assert.Equal(t, entity.EventTypeBlock, event.EventType)
	assert.Equal(t, entity.EventActionBlocked, event.Action)
	assert.Equal(t, "ENTRY_NOT_FILLED:REJECTED", event.ReasonCode)
	assert.True(t, strings.HasPrefix(event.IdempotencyKey, "block:"))

	require.Len(t, f.broker.calls, 1)
}

func TestExecuteSignalBrokerErrorRollsBackAndPropagates(t *testing.T) {
	f := newExecutionFixture(t, brokerStep{err: errors.New("venue unreachable")})

	entered, err := f.svc.ExecuteSignal(context.Background(), executionRequest())
	assert.ErrorContains(t, err, "venue unreachable")
	assert.False(t, entered)

	// Nothing persisted, so the redelivered message can retry cleanly.
	positions, orders, events := f.counts(t)
	assert.Zero(t, positions)
	assert.Zero(t, orders)
	assert.Zero(t, events)
}

func TestExecuteSignalSkipsRedeliveredSignal(t *testing.T) {
	f := newExecutionFixture(t, fillStep(70000), fillStep(70000))

	require.NoError(t, f.svc.Execute(context.Background(), executionRequest()))
	require.Len(t, f.broker.calls, 2)

	// The stream may hand the same signal out again after a crash between
	// commit and ack; the guard must keep it off the venue.
	entered, err := f.svc.ExecuteSignal(context.Background(), executionRequest())
	require.NoError(t, err)
	assert.False(t, entered)
	assert.Len(t, f.broker.calls, 2)

	require.NoError(t, f.svc.Execute(context.Background(), executionRequest()))
	assert.Len(t, f.broker.calls, 2)

	_, orders, _ := f.counts(t)
	assert.Equal(t, int64(2), orders)
}

func TestSettlementNonFillLeavesPositionOpenForReconcile(t *testing.T) {
	f := newExecutionFixture(t, fillStep(70000), rejectStep("MARKET_CLOSED"), fillStep(69800))

	require.NoError(t, f.svc.Execute(context.Background(), executionRequest()),
		"a failed settlement is retried later, not surfaced as an entry error")

	var position entity.Position
	require.NoError(t, f.db.First(&position, "signal_id = ?", 11).Error)
	assert.Equal(t, entity.PositionStatusOpen, position.Status)

	_, orders, events := f.counts(t)
	assert.Equal(t, int64(1), orders, "the rejected SELL order rolls back")
	assert.Equal(t, int64(1), events, "only the ENTRY event exists so far")

	// Too fresh for the reconciliation sweep.
	f.svc.ReconcileOpenPositions(context.Background())
	require.NoError(t, f.db.First(&position, "signal_id = ?", 11).Error)
	assert.Equal(t, entity.PositionStatusOpen, position.Status)
	require.Len(t, f.broker.calls, 2)

	// Age the position past the holding period and sweep again.
	require.NoError(t, f.db.Model(&entity.Position{}).
		Where("position_id = ?", position.PositionID).
		Update("opened_at", time.Now().Add(-48*time.Hour)).Error)

	f.svc.ReconcileOpenPositions(context.Background())

	require.NoError(t, f.db.First(&position, "signal_id = ?", 11).Error)
	assert.Equal(t, entity.PositionStatusClosed, position.Status)
	assert.Equal(t, common.ReasonTimeExit, position.ExitReasonCode)

	_, orders, events = f.counts(t)
	assert.Equal(t, int64(2), orders)
	assert.Equal(t, int64(2), events)
	assert.Len(t, f.broker.calls, 3)
}

func TestSettlePositionRequiresOpenState(t *testing.T) {
	f := newExecutionFixture(t, fillStep(70000))

	position := &entity.Position{Ticker: "005930", SignalID: 21, Qty: 1}
	require.NoError(t, f.store.CreatePosition(context.Background(), position))

	err := f.svc.SettlePosition(context.Background(), position, common.ReasonTimeExit)
	assert.ErrorIs(t, err, repository.ErrIllegalTransition)

	// The SELL order inserted before the guard tripped must roll back.
	_, orders, events := f.counts(t)
	assert.Zero(t, orders)
	assert.Zero(t, events)
}
