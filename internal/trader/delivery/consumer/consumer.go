package consumer

import (
	"context"
	"sync"
	"time"

	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/service"
	"stock-news-trader/pkg/common"
	"stock-news-trader/pkg/logger"
	"stock-news-trader/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// RedisConsumer manages the consumption of signals from the execution
// stream plus the periodic ingest and reconciliation sweeps.
type RedisConsumer struct {
	cfg              *config.Config
	redisClient      *redis.Client
	signalService    service.SignalService
	executionService service.ExecutionService
	logger           *logger.Logger
	cronParser       cron.Parser
	stopChan         chan struct{}
	wg               sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	signalService service.SignalService,
	executionService service.ExecutionService,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:              cfg,
		redisClient:      redisClient,
		signalService:    signalService,
		executionService: executionService,
		logger:           log,
		cronParser:       cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		stopChan:         make(chan struct{}),
	}
}

// Start begins the consumer's processing loops.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.RegisterStreamHandler(ctx, c.executionService.ProcessTask, common.RedisStreamSignalExecution, c.cfg.Trader.RedisStreamExecutionTimeout)

	//handle retry
	c.RegisterTickerHandler(ctx, c.executionService.ProcessRetries, c.cfg.Trader.RedisStreamExecutionRetryInterval, c.cfg.Trader.RedisStreamExecutionMaxIdleDuration, common.RedisStreamSignalExecution+"-retry")

	// periodic sweeps
	c.RegisterCronHandler(ctx, c.signalService.IngestSweep, c.cfg.Scheduler.IngestCron, "ingest")
	c.RegisterCronHandler(ctx, c.executionService.ReconcileOpenPositions, c.cfg.Scheduler.ReconcileCron, "reconcile")
}

func (c *RedisConsumer) RegisterStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.Field("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

func (c *RedisConsumer) RegisterTickerHandler(ctx context.Context, fn func(ctx context.Context), interval time.Duration, timeout time.Duration, name string) {
	c.logger.Info("Registering ticker handler",
		logger.Field("name", name),
		logger.Field("interval", interval),
		logger.Field("timeout", timeout))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			case <-ctx.Done():
				c.logger.Info("Ticker handler stopping due to context cancellation", logger.Field("name", name))
				return
			case <-c.stopChan:
				c.logger.Info("Ticker handler stopping", logger.Field("name", name))
				return
			}
		}
	})
}

// RegisterCronHandler runs fn on a standard five-field cron expression,
// computing each next run from the previous one.
func (c *RedisConsumer) RegisterCronHandler(ctx context.Context, fn func(ctx context.Context), expr string, name string) {
	schedule, err := c.cronParser.Parse(expr)
	if err != nil {
		c.logger.Error("Failed to parse cron expression",
			logger.ErrorField(err),
			logger.Field("name", name),
			logger.Field("expr", expr))
		return
	}

	c.logger.Info("Registering cron handler", logger.Field("name", name), logger.Field("expr", expr))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		timer := time.NewTimer(time.Until(schedule.Next(time.Now())))
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				fn(ctx)
				timer.Reset(time.Until(schedule.Next(time.Now())))
			case <-ctx.Done():
				c.logger.Info("Cron handler stopping due to context cancellation", logger.Field("name", name))
				return
			case <-c.stopChan:
				c.logger.Info("Cron handler stopping", logger.Field("name", name))
				return
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
