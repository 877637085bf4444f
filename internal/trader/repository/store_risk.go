package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stock-news-trader/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// scoreWeightKeys are the component keys the score_weights parameter may
// carry; anything else in the row is ignored.
var scoreWeightKeys = []string{"impact", "source_reliability", "novelty", "market_reaction", "liquidity"}

// EnsureRiskState inserts the risk row for a trade date with defaults
// (trading enabled) unless it already exists.
func (s *store) EnsureRiskState(ctx context.Context, tradeDate string) error {
	state := &entity.RiskState{
		TradeDate:      tradeDate,
		TradingEnabled: 1,
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_date"}},
		DoNothing: true,
	}).Create(state)
	if tx.Error != nil {
		return fmt.Errorf("EnsureRiskState: %w", tx.Error)
	}
	return nil
}

// GetRiskState returns the risk row for a trade date, or (nil, nil) when
// absent.
func (s *store) GetRiskState(ctx context.Context, tradeDate string) (*entity.RiskState, error) {
	var state entity.RiskState
	err := s.db.WithContext(ctx).First(&state, "trade_date = ?", tradeDate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetRiskState: %w", err)
	}
	return &state, nil
}

// GetParameter returns a registry row by name, or (nil, nil) when absent.
func (s *store) GetParameter(ctx context.Context, name string) (*entity.Parameter, error) {
	var param entity.Parameter
	err := s.db.WithContext(ctx).First(&param, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetParameter: %w", err)
	}
	return &param, nil
}

// GetScoreWeights decodes the score_weights parameter restricted to the
// known component keys. A missing or malformed row yields nil and the
// scorer falls back to its built-in defaults.
func (s *store) GetScoreWeights(ctx context.Context) (map[string]float64, error) {
	param, err := s.GetParameter(ctx, entity.ParamScoreWeights)
	if err != nil {
		return nil, err
	}
	if param == nil || len(param.ValueJSON) == 0 {
		return nil, nil
	}

	var raw map[string]float64
	if err := json.Unmarshal(param.ValueJSON, &raw); err != nil {
		return nil, nil
	}

	weights := make(map[string]float64, len(scoreWeightKeys))
	for _, key := range scoreWeightKeys {
		if v, ok := raw[key]; ok {
			weights[key] = v
		}
	}
	if len(weights) == 0 {
		return nil, nil
	}
	return weights, nil
}
