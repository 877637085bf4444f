package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/broker"
	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/internal/trader/metrics"
	"stock-news-trader/internal/trader/repository"
	"stock-news-trader/internal/trader/risk"
	"stock-news-trader/pkg/common"
	"stock-news-trader/pkg/logger"
	"stock-news-trader/pkg/telegram"
	"stock-news-trader/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ExecutionService drives the entry and settlement transactions for
// committed signals, consuming them from the execution stream.
type ExecutionService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Execute(ctx context.Context, req dto.StreamDataSignalExecution) error
	ExecuteSignal(ctx context.Context, req dto.StreamDataSignalExecution) (bool, error)
	SettlePosition(ctx context.Context, position *entity.Position, reasonCode string) error
	ReconcileOpenPositions(ctx context.Context)
}

// NewExecutionService creates a new ExecutionService.
func NewExecutionService(
	cfg *config.Config,
	log *logger.Logger,
	redisClient *redis.Client,
	store repository.Store,
	gate *risk.Gate,
	orderBroker broker.Broker,
	telegramBot telegram.Notifier,
) ExecutionService {
	return &executionService{
		cfg:         cfg,
		log:         log,
		redisClient: redisClient,
		store:       store,
		gate:        gate,
		broker:      orderBroker,
		telegramBot: telegramBot,
	}
}

type executionService struct {
	cfg         *config.Config
	log         *logger.Logger
	redisClient *redis.Client
	store       repository.Store
	gate        *risk.Gate
	broker      broker.Broker
	telegramBot telegram.Notifier
}

// ProcessTask dequeues and executes a single signal from the execution
// stream.
func (s *executionService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamSignalExecution, ">"}, // ">" means only new messages
		Count:    1,
		Block:    2 * time.Second, // Block for 2 seconds to allow graceful shutdown
	}).Result()
	if err != nil {
		// Ignore context cancellation and timeout errors, as they are expected during shutdown or idle periods.
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		s.log.Debug("No messages found", logger.StringField("stream", common.RedisStreamSignalExecution))
		return
	}

	message := streams[0].Messages[0]

	// The task data is expected to be a JSON string in the 'payload' field.
	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return
	}

	var streamData dto.StreamDataSignalExecution
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	loggerFields := []zap.Field{
		logger.Int64Field("signal_id", streamData.SignalID),
		logger.StringField("ticker", streamData.Ticker),
		logger.StringField("message_id", message.ID),
	}

	s.log.Debug("Processing signal execution task", loggerFields...)

	if err := s.Execute(ctx, streamData); err != nil {
		// Leave the message pending so the retry handler reclaims it.
		s.log.Error("Failed to execute signal task", append(loggerFields, logger.ErrorField(err))...)
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamSignalExecution, message.ID); err != nil {
		s.log.Error("Failed to acknowledge and delete signal execution task", append(loggerFields, logger.ErrorField(err))...)
		return
	}

	s.log.Debug("Signal execution task processed successfully", loggerFields...)
}

// Execute runs entry and, when the entry committed, the follow-up
// settlement for one dequeued signal.
func (s *executionService) Execute(ctx context.Context, req dto.StreamDataSignalExecution) error {
	entered, err := s.ExecuteSignal(ctx, req)
	if err != nil {
		return err
	}
	if !entered {
		return nil
	}

	position, err := s.store.FindPositionBySignalID(ctx, req.SignalID)
	if err != nil {
		return err
	}
	if position == nil {
		return fmt.Errorf("position for signal %d not found after entry", req.SignalID)
	}
	return s.SettlePosition(ctx, position, common.ReasonTimeExit)
}

// ProcessRetries reclaims signal messages that went unacknowledged past
// the idle window and retries them, discarding poison messages after the
// configured retry budget.
func (s *executionService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamSignalExecution,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Trader.RedisStreamExecutionMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()

	if err != nil {
		s.log.Error("Failed to claim signal execution task on retry", logger.ErrorField(err))
		return
	}

	if len(msgs) == 0 {
		s.log.Debug("Retry No pending messages found", logger.StringField("stream", common.RedisStreamSignalExecution))
		return
	}

	s.log.Info("Found pending messages", logger.StringField("stream", common.RedisStreamSignalExecution))

	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamSignalExecution,
		Group:  common.RedisStreamGroup,
		Start:  msgs[0].ID,
		End:    msgs[0].ID,
		Count:  1,
	}).Result()

	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}

	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim",
			logger.StringField("stream", common.RedisStreamSignalExecution),
			logger.StringField("message_id", msgs[0].ID))
		return
	}

	msg := msgs[0]
	taskData, ok := msg.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", msg.ID))
		return
	}

	var streamData dto.StreamDataSignalExecution
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}

	if err := s.Execute(ctx, streamData); err != nil {
		s.log.Error("Failed to execute signal task on retry",
			logger.ErrorField(err),
			logger.Field("message_id", msg.ID),
			logger.Int64Field("signal_id", streamData.SignalID),
			logger.StringField("ticker", streamData.Ticker))

		if pendingInfo[0].RetryCount+1 >= int64(s.cfg.Trader.RedisStreamExecutionMaxRetry) {
			s.log.Error("pending msg retry count exceeded",
				logger.StringField("stream", common.RedisStreamSignalExecution),
				logger.StringField("message_id", msg.ID),
				logger.Int64Field("signal_id", streamData.SignalID),
				logger.IntField("retry_count", int(pendingInfo[0].RetryCount+1)),
				logger.IntField("max_retry", s.cfg.Trader.RedisStreamExecutionMaxRetry),
			)
			errType := fmt.Sprintf("Retry count exceeded for event %s", common.RedisStreamSignalExecution)
			data := fmt.Sprintf("signal %d | %s", streamData.SignalID, streamData.Ticker)
			s.notify(telegram.FormatErrorAlertMessage(utils.TimeNowKST(), errType, err.Error(), data))
			if err := s.AckNDel(ctx, common.RedisStreamSignalExecution, msg.ID); err != nil {
				s.log.Error("Failed to acknowledge and delete signal execution task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
				return
			}
			return
		}
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamSignalExecution, msg.ID); err != nil {
		s.log.Error("Failed to acknowledge and delete signal execution task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}
	s.log.Info("Retry signal execution task processed successfully",
		logger.Int64Field("signal_id", streamData.SignalID),
		logger.StringField("ticker", streamData.Ticker))
}

// AckNDel acknowledges a processed message and removes it from the stream.
func (s *executionService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge signal execution task",
			logger.StringField("stream_name", streamName),
			logger.StringField("message_id", messageID),
			logger.ErrorField(err))
		return err
	}
	if err := s.redisClient.XDel(ctx, streamName, messageID).Err(); err != nil {
		s.log.Error("Failed to delete signal execution task",
			logger.StringField("stream_name", streamName),
			logger.StringField("message_id", messageID),
			logger.ErrorField(err))
		return err
	}
	return nil
}

// ExecuteSignal opens a position for a signal inside one transaction: risk
// gate, position PENDING_ENTRY, BUY order SENT, broker call, guarded
// transition to OPEN, ENTRY audit event, commit. Returns true only when
// the position committed OPEN. Gate blocks and venue rejects return
// (false, nil) and leave no position or order rows; infrastructure errors
// roll back and propagate so the message can be retried.
func (s *executionService) ExecuteSignal(ctx context.Context, req dto.StreamDataSignalExecution) (bool, error) {
	loggerFields := []zap.Field{
		logger.Int64Field("signal_id", req.SignalID),
		logger.StringField("ticker", req.Ticker),
	}

	// Redelivery guard: the stream may hand the same signal out twice, but
	// only the first delivery may reach the venue.
	existing, err := s.store.FindPositionBySignalID(ctx, req.SignalID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		s.log.Info("Signal already executed, skipping",
			append(loggerFields,
				logger.StringField("outcome", common.OutcomeAlreadyExecuted),
				logger.Int64Field("position_id", existing.PositionID),
			)...)
		return false, nil
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	tradeDate := utils.TradeDate(utils.TimeNowKST())
	if err := tx.EnsureRiskState(ctx, tradeDate); err != nil {
		return false, err
	}
	state, err := tx.GetRiskState(ctx, tradeDate)
	if err != nil {
		return false, err
	}
	if state == nil {
		metrics.TradesBlocked.WithLabelValues(common.OutcomeRiskStateMissing).Inc()
		s.log.Error("Risk state missing for trade date",
			append(loggerFields, logger.StringField("trade_date", tradeDate))...)
		s.notify(telegram.FormatEntryBlockedMessage(req.SignalID, req.Ticker, common.OutcomeRiskStateMissing))
		return false, nil
	}

	if decision := s.gate.CanTrade(state); !decision.Allowed {
		metrics.TradesBlocked.WithLabelValues(decision.Reason).Inc()
		s.log.Warn("Entry blocked by risk gate",
			append(loggerFields, logger.StringField("reason", decision.Reason))...)
		s.notify(telegram.FormatEntryBlockedMessage(req.SignalID, req.Ticker, decision.Reason))
		return false, nil
	}

	position := &entity.Position{
		Ticker:   req.Ticker,
		SignalID: req.SignalID,
		Qty:      req.Qty,
	}
	if err := tx.CreatePosition(ctx, position); err != nil {
		return false, err
	}

	order := &entity.Order{
		PositionID: position.PositionID,
		SignalID:   req.SignalID,
		Ticker:     req.Ticker,
		Side:       entity.OrderSideBuy,
		Qty:        req.Qty,
		OrderType:  entity.OrderTypeMarket,
		Status:     entity.OrderStatusSent,
		AttemptNo:  1,
		SentAt:     utils.ToPointer(utils.TimeNowKST()),
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return false, err
	}

	result, err := s.sendOrder(ctx, dto.OrderRequest{
		Ticker:     req.Ticker,
		Side:       entity.OrderSideBuy,
		Qty:        req.Qty,
		OrderType:  entity.OrderTypeMarket,
		SignalID:   req.SignalID,
		PositionID: position.PositionID,
		OrderID:    order.ID,
	})
	if err != nil {
		return false, err
	}

	if !result.Filled() {
		// Roll back the position and order rows first, then record the
		// block audit in its own committed write so it survives.
		if err := tx.Rollback(); err != nil {
			return false, err
		}
		reason := "ENTRY_NOT_FILLED:" + result.Status
		s.recordEntryBlock(ctx, position.PositionID, order.ID, req, result, reason)
		s.log.Warn("Entry order not filled, rolled back",
			append(loggerFields,
				logger.StringField("reason", reason),
				logger.StringField("broker_reason", result.ReasonCode),
			)...)
		s.notify(telegram.FormatEntryFailedMessage(req.SignalID, position.PositionID, req.Ticker, reason))
		return false, nil
	}

	if err := tx.MarkOrderFilled(ctx, order.ID, result.AvgPrice, result.BrokerOrderID); err != nil {
		return false, err
	}
	if err := tx.SetPositionOpen(ctx, position.PositionID, result.AvgPrice, result.AvgPrice*req.Qty); err != nil {
		return false, err
	}

	detailJSON, err := json.Marshal(map[string]interface{}{
		"signal_id":       req.SignalID,
		"broker_order_id": result.BrokerOrderID,
		"avg_price":       result.AvgPrice,
		"latency_ms":      result.LatencyMs,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal entry event detail: %w", err)
	}
	inserted, err := tx.InsertPositionEvent(ctx, &entity.PositionEvent{
		PositionID:     position.PositionID,
		EventType:      entity.EventTypeEntry,
		Action:         entity.EventActionExecuted,
		ReasonCode:     result.ReasonCode,
		DetailJSON:     detailJSON,
		IdempotencyKey: entity.EntryIdempotencyKey(position.PositionID, order.ID),
	})
	if err != nil {
		return false, err
	}
	if !inserted {
		s.log.Warn("Duplicate entry audit suppressed by idempotency key", loggerFields...)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	metrics.OrdersFilled.WithLabelValues(entity.OrderSideBuy).Inc()
	s.log.Info("Position opened",
		append(loggerFields,
			logger.Int64Field("position_id", position.PositionID),
			logger.Float64Field("avg_price", result.AvgPrice),
			logger.StringField("broker_order_id", result.BrokerOrderID),
		)...)
	s.notify(telegram.FormatOrderFilledMessage(position, order, result))

	return true, nil
}

// SettlePosition closes an OPEN position in its own transaction: SELL
// order, settlement fill, guarded transition to CLOSED, FULL_EXIT audit
// event. A venue non-fill rolls back and leaves the position OPEN for the
// next reconciliation sweep.
func (s *executionService) SettlePosition(ctx context.Context, position *entity.Position, reasonCode string) error {
	loggerFields := []zap.Field{
		logger.Int64Field("position_id", position.PositionID),
		logger.StringField("ticker", position.Ticker),
		logger.StringField("reason", reasonCode),
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	order := &entity.Order{
		PositionID: position.PositionID,
		SignalID:   position.SignalID,
		Ticker:     position.Ticker,
		Side:       entity.OrderSideSell,
		Qty:        position.Qty,
		OrderType:  entity.OrderTypeMarket,
		Status:     entity.OrderStatusSent,
		AttemptNo:  1,
		SentAt:     utils.ToPointer(utils.TimeNowKST()),
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return err
	}

	result, err := s.sendOrder(ctx, dto.OrderRequest{
		Ticker:        position.Ticker,
		Side:          entity.OrderSideSell,
		Qty:           position.Qty,
		OrderType:     entity.OrderTypeMarket,
		ExpectedPrice: position.AvgEntryPrice,
		SignalID:      position.SignalID,
		PositionID:    position.PositionID,
		OrderID:       order.ID,
	})
	if err != nil {
		return err
	}

	if !result.Filled() {
		s.log.Warn("Exit order not filled, position stays open",
			append(loggerFields, logger.StringField("broker_reason", result.ReasonCode))...)
		s.notify(telegram.FormatExitNotFilledMessage(position, result.ReasonCode))
		return nil
	}

	if err := tx.MarkOrderFilled(ctx, order.ID, result.AvgPrice, result.BrokerOrderID); err != nil {
		return err
	}
	if err := tx.SetPositionClosed(ctx, position.PositionID, reasonCode); err != nil {
		return err
	}

	detailJSON, err := json.Marshal(map[string]interface{}{
		"signal_id":       position.SignalID,
		"broker_order_id": result.BrokerOrderID,
		"exit_price":      result.AvgPrice,
		"latency_ms":      result.LatencyMs,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal exit event detail: %w", err)
	}
	inserted, err := tx.InsertPositionEvent(ctx, &entity.PositionEvent{
		PositionID:     position.PositionID,
		EventType:      entity.EventTypeFullExit,
		Action:         entity.EventActionExecuted,
		ReasonCode:     reasonCode,
		DetailJSON:     detailJSON,
		IdempotencyKey: entity.ExitIdempotencyKey(position.PositionID, order.ID),
	})
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Warn("Duplicate exit audit suppressed by idempotency key", loggerFields...)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	metrics.OrdersFilled.WithLabelValues(entity.OrderSideSell).Inc()
	metrics.PositionsClosed.WithLabelValues(reasonCode).Inc()
	s.log.Info("Position closed",
		append(loggerFields, logger.Float64Field("exit_price", result.AvgPrice))...)
	s.notify(telegram.FormatPositionClosedMessage(position, result.AvgPrice, reasonCode))

	return nil
}

// ReconcileOpenPositions settles OPEN positions older than the configured
// max holding period. Runs on the reconciliation cron and catches
// positions whose settlement previously failed.
func (s *executionService) ReconcileOpenPositions(ctx context.Context) {
	positions, err := s.store.ListOpenPositions(ctx)
	if err != nil {
		s.log.Error("Failed to list open positions", logger.ErrorField(err))
		return
	}

	cutoff := utils.TimeNowKST().Add(-s.cfg.Trader.MaxHoldingPeriod)
	var settled int
	for _, position := range positions {
		if !utils.ShouldContinue(ctx, s.log) {
			return
		}
		if position.OpenedAt == nil || position.OpenedAt.After(cutoff) {
			continue
		}
		if err := s.SettlePosition(ctx, &position, common.ReasonTimeExit); err != nil {
			s.log.Error("Failed to settle stale position",
				logger.ErrorField(err), logger.Int64Field("position_id", position.PositionID))
			continue
		}
		settled++
	}

	s.log.Info("Reconciliation sweep completed",
		logger.IntField("open", len(positions)),
		logger.IntField("settled", settled),
	)
}

// sendOrder calls the broker with the configured send timeout and records
// the round trip latency.
func (s *executionService) sendOrder(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error) {
	sendCtx := ctx
	if s.cfg.Broker.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.cfg.Broker.SendTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.broker.SendOrder(sendCtx, req)
	metrics.BrokerSendSeconds.WithLabelValues(s.broker.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("broker %s send failed: %w", s.broker.Name(), err)
	}
	return result, nil
}

// recordEntryBlock writes the BLOCK audit event for a rolled-back entry in
// a separate committed write. The ids reference rows that no longer exist;
// the audit row is the only trace of the attempt.
func (s *executionService) recordEntryBlock(ctx context.Context, positionID, orderID int64, req dto.StreamDataSignalExecution, result *dto.OrderResult, reason string) {
	metrics.TradesBlocked.WithLabelValues("ENTRY_NOT_FILLED").Inc()

	detailJSON, err := json.Marshal(map[string]interface{}{
		"signal_id":               req.SignalID,
		"ticker":                  req.Ticker,
		"rolled_back_position_id": positionID,
		"rolled_back_order_id":    orderID,
		"broker_status":           result.Status,
		"broker_reason":           result.ReasonCode,
	})
	if err != nil {
		s.log.Error("Failed to marshal block event detail", logger.ErrorField(err))
		return
	}

	if _, err := s.store.InsertPositionEvent(ctx, &entity.PositionEvent{
		PositionID:     positionID,
		EventType:      entity.EventTypeBlock,
		Action:         entity.EventActionBlocked,
		ReasonCode:     reason,
		DetailJSON:     detailJSON,
		IdempotencyKey: entity.BlockIdempotencyKey(positionID, orderID),
	}); err != nil {
		s.log.Error("Failed to record entry block audit",
			logger.ErrorField(err),
			logger.Int64Field("position_id", positionID),
			logger.Int64Field("order_id", orderID),
		)
	}
}

func (s *executionService) notify(text string) {
	if s.telegramBot == nil {
		return
	}
	if err := s.telegramBot.SendMessage(text); err != nil {
		s.log.Error("Failed to send notification", logger.ErrorField(err))
	}
}
