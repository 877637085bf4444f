package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/internal/trader/integrity"
	"stock-news-trader/internal/trader/mapping"
	"stock-news-trader/internal/trader/repository"
	"stock-news-trader/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newServiceTestDB(t *testing.T) (*gorm.DB, repository.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "trader.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.NewsEvent{},
		&entity.EventTicker{},
		&entity.Signal{},
		&entity.Position{},
		&entity.Order{},
		&entity.PositionEvent{},
		&entity.RiskState{},
		&entity.Parameter{},
	))
	return db, repository.NewStore(db)
}

func testConfig() *config.Config {
	return &config.Config{
		Trader: config.Trader{
			MinMapConfidence: 0.92,
			RiskPenaltyCap:   30,
			OrderQty:         1,
			MaxHoldingPeriod: 24 * time.Hour,
		},
		Broker: config.Broker{SendTimeout: 2 * time.Second},
		Ingest: config.Ingest{FetchTimeout: time.Second, MaxItemsSweep: 25},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

type stubAliasRepo struct {
	rows []entity.TickerAlias
}

func (s *stubAliasRepo) ListAll(ctx context.Context) ([]entity.TickerAlias, error) {
	return s.rows, nil
}

func testMapper() *mapping.Mapper {
	return mapping.NewMapper(&stubAliasRepo{rows: []entity.TickerAlias{
		{Ticker: "005930", CompanyName: "Samsung Electronics", Aliases: []string{"Samsung Electronics", "삼성전자"}, Confidence: 0.98},
		{Ticker: "000660", CompanyName: "SK Hynix", Aliases: []string{"SK Hynix"}, Confidence: 0.98},
		{Ticker: "005380", CompanyName: "Hyundai Motor", Aliases: []string{"Hyundai Motor"}, Confidence: 0.5},
	}})
}

type stubFeedRepo struct {
	items []dto.NewsItem
}

func (s *stubFeedRepo) Fetch(ctx context.Context) ([]dto.NewsItem, error) { return s.items, nil }
func (s *stubFeedRepo) Name() string                                      { return "stub" }

func newSignalService(t *testing.T, cfg *config.Config, store repository.Store, feed repository.NewsFeedRepository) SignalService {
	t.Helper()
	return NewSignalService(cfg, testLogger(t), nil, store, feed,
		testMapper(), repository.NewHeuristicAnalyzerRepository(), nil)
}

// buyItem scores 75 under the heuristic analyzer and default weights:
// tier 1 plus the "investment" keyword clears the BUY floor.
func buyItem() dto.NewsItem {
	return dto.NewsItem{
		Source: "mk",
		Tier:   1,
		Title:  "Samsung Electronics announces new fab investment",
		Body:   "The company will break ground on the plant next quarter.",
		URL:    "https://news.example.com/articles/sec-fab",
	}
}

func TestCreateSignalCommitsBuySignal(t *testing.T) {
	db, store := newServiceTestDB(t)
	svc := newSignalService(t, testConfig(), store, nil)
	item := buyItem()

	bundle, err := svc.CreateSignal(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, entity.DecisionBuy, bundle.Decision)
	assert.InDelta(t, 75, bundle.TotalScore, 0.01)
	assert.Equal(t, "005930", bundle.Ticker)
	assert.Positive(t, bundle.SignalID)

	var news entity.NewsEvent
	require.NoError(t, db.First(&news, "id = ?", bundle.NewsID).Error)
	assert.Equal(t, RawNewsHash(item), news.RawHash)
	assert.Equal(t, 1, news.Tier)

	var binding entity.EventTicker
	require.NoError(t, db.First(&binding, "id = ?", bundle.EventTickerID).Error)
	assert.Equal(t, bundle.NewsID, binding.NewsID)
	assert.Equal(t, mapping.MethodAliasDict, binding.MappingMethod)
	assert.Equal(t, 0.98, binding.MapConfidence)

	var signal entity.Signal
	require.NoError(t, db.First(&signal, "id = ?", bundle.SignalID).Error)
	assert.Equal(t, entity.DecisionBuy, signal.Decision)
	assert.Equal(t, entity.PricedInLow, signal.PricedInFlag)
	assert.InDelta(t, 75, signal.RawScore, 0.01)

	var components map[string]float64
	require.NoError(t, json.Unmarshal(signal.Components, &components))
	assert.Contains(t, components, "impact")
	assert.Contains(t, components, "risk_penalty")
}

func TestCreateSignalDuplicateNewsIsBenign(t *testing.T) {
	db, store := newServiceTestDB(t)
	svc := newSignalService(t, testConfig(), store, nil)

	first, err := svc.CreateSignal(context.Background(), buyItem())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.CreateSignal(context.Background(), buyItem())
	require.NoError(t, err, "a duplicate is a skip, not an error")
	assert.Nil(t, second)

	var newsCount, signalCount int64
	require.NoError(t, db.Model(&entity.NewsEvent{}).Count(&newsCount).Error)
	require.NoError(t, db.Model(&entity.Signal{}).Count(&signalCount).Error)
	assert.Equal(t, int64(1), newsCount)
	assert.Equal(t, int64(1), signalCount)
}

func TestCreateSignalNoMappingRollsBack(t *testing.T) {
	db, store := newServiceTestDB(t)
	svc := newSignalService(t, testConfig(), store, nil)

	bundle, err := svc.CreateSignal(context.Background(), dto.NewsItem{
		Source: "mk",
		Tier:   1,
		Title:  "Federal bond yields edge higher",
		URL:    "https://news.example.com/articles/yields",
	})
	require.NoError(t, err)
	assert.Nil(t, bundle)

	var newsCount int64
	require.NoError(t, db.Model(&entity.NewsEvent{}).Count(&newsCount).Error)
	assert.Equal(t, int64(0), newsCount, "an unmapped item leaves no rows behind")
}

func TestCreateSignalLowConfidenceRollsBackEverything(t *testing.T) {
	db, store := newServiceTestDB(t)
	svc := newSignalService(t, testConfig(), store, nil)

	bundle, err := svc.CreateSignal(context.Background(), dto.NewsItem{
		Source: "mk",
		Tier:   1,
		Title:  "Hyundai Motor expands overseas plant",
		URL:    "https://news.example.com/articles/hmc",
	})
	assert.ErrorIs(t, err, integrity.ErrLowConfidence)
	assert.Nil(t, bundle)

	var newsCount, bindingCount, signalCount int64
	require.NoError(t, db.Model(&entity.NewsEvent{}).Count(&newsCount).Error)
	require.NoError(t, db.Model(&entity.EventTicker{}).Count(&bindingCount).Error)
	require.NoError(t, db.Model(&entity.Signal{}).Count(&signalCount).Error)
	assert.Equal(t, int64(0), newsCount)
	assert.Equal(t, int64(0), bindingCount)
	assert.Equal(t, int64(0), signalCount)
}

func TestCreateSignalHonorsThresholdOverride(t *testing.T) {
	db, store := newServiceTestDB(t)
	svc := newSignalService(t, testConfig(), store, nil)

	require.NoError(t, db.Create(&entity.Parameter{
		Name:      entity.ParamDecisionThresholds,
		ValueJSON: []byte(`{"buy": 95}`),
	}).Error)

	bundle, err := svc.CreateSignal(context.Background(), buyItem())
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, entity.DecisionHold, bundle.Decision, "75 misses the raised BUY floor")
}

func TestCreateSignalHonorsWeightOverrideAndClampsScore(t *testing.T) {
	db, store := newServiceTestDB(t)
	svc := newSignalService(t, testConfig(), store, nil)

	require.NoError(t, db.Create(&entity.Parameter{
		Name:      entity.ParamScoreWeights,
		ValueJSON: []byte(`{"impact": 1.0}`),
	}).Error)

	bundle, err := svc.CreateSignal(context.Background(), buyItem())
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, float64(100), bundle.TotalScore)

	var signal entity.Signal
	require.NoError(t, db.First(&signal, "id = ?", bundle.SignalID).Error)
	assert.InDelta(t, 131, signal.RawScore, 0.01, "raw score keeps the unclamped sum")
	assert.Equal(t, float64(100), signal.TotalScore)
}

func TestRawNewsHash(t *testing.T) {
	item := buyItem()
	hash := RawNewsHash(item)
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, RawNewsHash(item))

	retitled := item
	retitled.Title = "different headline"
	assert.NotEqual(t, hash, RawNewsHash(retitled))

	// Body edits do not change identity.
	reworded := item
	reworded.Body = "different body"
	assert.Equal(t, hash, RawNewsHash(reworded))
}

func TestIngestSweepPersistsSignals(t *testing.T) {
	db, store := newServiceTestDB(t)
	feed := &stubFeedRepo{items: []dto.NewsItem{
		{
			Source: "mk",
			Tier:   3,
			Title:  "SK Hynix quarterly shipments hold steady",
			URL:    "https://news.example.com/articles/hynix-q",
		},
		{
			Source: "mk",
			Tier:   1,
			Title:  "Federal bond yields edge higher",
			URL:    "https://news.example.com/articles/yields",
		},
	}}
	svc := newSignalService(t, testConfig(), store, feed)

	svc.IngestSweep(context.Background())

	var signals []entity.Signal
	require.NoError(t, db.Find(&signals).Error)
	require.Len(t, signals, 1, "only the mappable item produces a signal")
	assert.Equal(t, "000660", signals[0].Ticker)
	assert.Equal(t, entity.DecisionHold, signals[0].Decision)
}

func TestIngestSweepCapsBatchSize(t *testing.T) {
	db, store := newServiceTestDB(t)
	feed := &stubFeedRepo{items: []dto.NewsItem{
		{Source: "mk", Tier: 3, Title: "SK Hynix quarterly shipments hold steady", URL: "https://news.example.com/articles/a"},
		{Source: "mk", Tier: 3, Title: "SK Hynix supplier note", URL: "https://news.example.com/articles/b"},
	}}

	cfg := testConfig()
	cfg.Ingest.MaxItemsSweep = 1
	svc := newSignalService(t, cfg, store, feed)

	svc.IngestSweep(context.Background())

	var count int64
	require.NoError(t, db.Model(&entity.NewsEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
