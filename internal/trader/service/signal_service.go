package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/internal/trader/integrity"
	"stock-news-trader/internal/trader/mapping"
	"stock-news-trader/internal/trader/metrics"
	"stock-news-trader/internal/trader/repository"
	"stock-news-trader/internal/trader/scoring"
	"stock-news-trader/pkg/common"
	"stock-news-trader/pkg/logger"
	"stock-news-trader/pkg/telegram"
	"stock-news-trader/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SignalService runs the signal-creation pipeline: one news item in, at
// most one committed signal out.
type SignalService interface {
	CreateSignal(ctx context.Context, item dto.NewsItem) (*dto.SignalBundle, error)
	IngestSweep(ctx context.Context)
}

// NewSignalService creates a new SignalService.
func NewSignalService(
	cfg *config.Config,
	log *logger.Logger,
	redisClient *redis.Client,
	store repository.Store,
	feedRepo repository.NewsFeedRepository,
	mapper *mapping.Mapper,
	analyzerRepo repository.NewsAnalyzerRepository,
	telegramBot telegram.Notifier,
) SignalService {
	return &signalService{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		store:        store,
		feedRepo:     feedRepo,
		mapper:       mapper,
		analyzerRepo: analyzerRepo,
		telegramBot:  telegramBot,
	}
}

type signalService struct {
	cfg          *config.Config
	log          *logger.Logger
	redisClient  *redis.Client
	store        repository.Store
	feedRepo     repository.NewsFeedRepository
	mapper       *mapping.Mapper
	analyzerRepo repository.NewsAnalyzerRepository
	telegramBot  telegram.Notifier
}

// RawNewsHash fingerprints a news item by source, url and title. Two items
// with the same hash are the same story regardless of body edits.
func RawNewsHash(item dto.NewsItem) string {
	sum := sha256.Sum256([]byte(item.Source + "|" + item.URL + "|" + item.Title))
	return hex.EncodeToString(sum[:])
}

// CreateSignal runs dedupe, mapping, integrity, scoring and the signal
// insert inside a single transaction. Benign skips (duplicate news, no
// ticker mapped) return (nil, nil) and leave no rows behind; integrity
// violations roll everything back and propagate.
func (s *signalService) CreateSignal(ctx context.Context, item dto.NewsItem) (*dto.SignalBundle, error) {
	loggerFields := []zap.Field{
		logger.StringField("source", item.Source),
		logger.StringField("url", item.URL),
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	news := &entity.NewsEvent{
		Source:      item.Source,
		Tier:        item.Tier,
		PublishedAt: item.PublishedAt,
		Title:       item.Title,
		Body:        item.Body,
		URL:         item.URL,
		RawHash:     RawNewsHash(item),
	}
	inserted, err := tx.InsertNewsIfNew(ctx, news)
	if err != nil {
		return nil, err
	}
	if !inserted {
		metrics.NewsDuplicates.Inc()
		s.log.Info("Duplicate news skipped", loggerFields...)
		s.notify(telegram.FormatPipelineSkippedMessage(common.OutcomeDupNewsSkipped, item))
		return nil, nil
	}

	mapped, err := s.mapper.Map(ctx, item.Title, item.Body)
	if err != nil {
		return nil, err
	}
	if mapped == nil {
		s.log.Info("No ticker mapped for news", loggerFields...)
		s.notify(telegram.FormatPipelineSkippedMessage(common.OutcomeNoMapping, item))
		return nil, nil
	}

	binding := &entity.EventTicker{
		NewsID:         news.ID,
		Ticker:         mapped.Ticker,
		CompanyName:    mapped.CompanyName,
		MapConfidence:  mapped.Confidence,
		MappingMethod:  mapped.Method,
		ContextSnippet: mapped.ContextSnippet,
	}
	if err := tx.InsertEventTicker(ctx, binding); err != nil {
		return nil, err
	}

	// Re-read the binding inside the same transaction so the integrity
	// check runs against what storage will actually commit.
	stored, err := tx.GetEventTicker(ctx, binding.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("event ticker %d not readable after insert", binding.ID)
	}

	if err := integrity.ValidateBinding(news.ID, stored, s.cfg.Trader.MinMapConfidence); err != nil {
		s.log.Warn("Integrity check failed, rolling back signal transaction",
			append(loggerFields, logger.StringField("ticker", stored.Ticker), logger.ErrorField(err))...)
		return nil, err
	}

	analysis, err := s.analyzerRepo.AnalyzeEvent(ctx, item)
	if err != nil {
		return nil, err
	}

	weights, err := tx.GetScoreWeights(ctx)
	if err != nil {
		return nil, err
	}
	thresholds := scoring.DefaultThresholds()
	if param, err := tx.GetParameter(ctx, entity.ParamDecisionThresholds); err != nil {
		return nil, err
	} else if param != nil {
		thresholds = scoring.ThresholdsFromJSON(param.ValueJSON)
	}

	components := analysis.Components()
	result := scoring.Compute(components, analysis.RiskPenalty, weights, s.cfg.Trader.RiskPenaltyCap)
	decision := scoring.Decide(result.Total, thresholds)

	components["risk_penalty"] = analysis.RiskPenalty
	componentsJSON, err := json.Marshal(components)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score components: %w", err)
	}

	signal := &entity.Signal{
		NewsID:        news.ID,
		EventTickerID: stored.ID,
		Ticker:        stored.Ticker,
		RawScore:      result.Raw,
		TotalScore:    result.Total,
		Components:    componentsJSON,
		PricedInFlag:  analysis.PricedInFlag,
		Decision:      decision,
	}
	if err := tx.InsertSignal(ctx, signal); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.SignalsCreated.Inc()

	bundle := &dto.SignalBundle{
		NewsID:        news.ID,
		EventTickerID: stored.ID,
		SignalID:      signal.ID,
		Ticker:        stored.Ticker,
		Decision:      decision,
		TotalScore:    result.Total,
	}

	s.log.Info("Signal created",
		append(loggerFields,
			logger.StringField("ticker", bundle.Ticker),
			logger.StringField("decision", bundle.Decision),
			logger.Float64Field("total_score", bundle.TotalScore),
			logger.Int64Field("signal_id", bundle.SignalID),
		)...)
	s.notify(telegram.FormatSignalCreatedMessage(item, bundle))

	return bundle, nil
}

// IngestSweep fetches the configured feed, runs signal creation per item
// and publishes BUY bundles to the execution stream. Runs on the ingest
// cron.
func (s *signalService) IngestSweep(ctx context.Context) {
	fetchCtx := ctx
	if s.cfg.Ingest.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.Ingest.FetchTimeout)
		defer cancel()
	}

	items, err := s.feedRepo.Fetch(fetchCtx)
	if err != nil {
		s.log.Error("Failed to fetch news feed", logger.ErrorField(err), logger.StringField("provider", s.feedRepo.Name()))
		return
	}
	if s.cfg.Ingest.MaxItemsSweep > 0 && len(items) > s.cfg.Ingest.MaxItemsSweep {
		items = items[:s.cfg.Ingest.MaxItemsSweep]
	}

	var created, published int
	for _, item := range items {
		if !utils.ShouldContinue(ctx, s.log) {
			return
		}

		bundle, err := s.CreateSignal(ctx, item)
		if err != nil {
			s.log.Error("Failed to create signal from news item", logger.ErrorField(err), logger.StringField("url", item.URL))
			continue
		}
		if bundle == nil {
			continue
		}
		created++

		if bundle.Decision != entity.DecisionBuy {
			s.log.Debug("Signal not actionable, skipping publish",
				logger.Int64Field("signal_id", bundle.SignalID),
				logger.StringField("decision", bundle.Decision))
			continue
		}

		if err := s.publishExecution(ctx, bundle); err != nil {
			s.log.Error("Failed to enqueue signal execution", logger.ErrorField(err), logger.Int64Field("signal_id", bundle.SignalID))
			continue
		}
		published++
	}

	s.log.Info("Ingest sweep completed",
		logger.StringField("provider", s.feedRepo.Name()),
		logger.IntField("fetched", len(items)),
		logger.IntField("signals_created", created),
		logger.IntField("published", published),
	)
}

// publishExecution enqueues a committed BUY signal for the execution
// consumer. Publish happens only after the signal transaction committed.
func (s *signalService) publishExecution(ctx context.Context, bundle *dto.SignalBundle) error {
	payload, err := json.Marshal(dto.StreamDataSignalExecution{
		SignalID: bundle.SignalID,
		Ticker:   bundle.Ticker,
		Qty:      s.cfg.Trader.OrderQty,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal execution payload: %w", err)
	}

	return s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamSignalExecution,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: s.cfg.Redis.StreamMaxLen,
	}).Err()
}

func (s *signalService) notify(text string) {
	if s.telegramBot == nil {
		return
	}
	if err := s.telegramBot.SendMessage(text); err != nil {
		s.log.Error("Failed to send notification", logger.ErrorField(err))
	}
}
