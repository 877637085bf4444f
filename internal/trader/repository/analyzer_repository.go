package repository

import (
	"context"
	"strings"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/dto"
)

// NewsAnalyzerRepository turns a raw news item into score components.
type NewsAnalyzerRepository interface {
	AnalyzeEvent(ctx context.Context, item dto.NewsItem) (*dto.EventAnalysis, error)
}

var (
	impactKeywords  = []string{"investment", "expansion", "approval", "contract", "acquisition", "record", "breakthrough"}
	penaltyKeywords = []string{"lawsuit", "probe", "investigation", "recall", "fine", "fraud"}
	recapKeywords   = []string{"posts", "reports", "quarterly", "earnings"}
)

// NewHeuristicAnalyzerRepository creates the deterministic analyzer used
// when no AI provider is configured. It scores from source tier and title
// keywords only, so the same item always produces the same components.
func NewHeuristicAnalyzerRepository() NewsAnalyzerRepository {
	return &heuristicAnalyzerRepository{}
}

type heuristicAnalyzerRepository struct{}

func (r *heuristicAnalyzerRepository) AnalyzeEvent(ctx context.Context, item dto.NewsItem) (*dto.EventAnalysis, error) {
	title := strings.ToLower(item.Title)

	var reliability, impact float64
	switch item.Tier {
	case 1:
		reliability, impact = 90, 70
	case 2:
		reliability, impact = 72, 60
	default:
		reliability, impact = 55, 45
	}

	for _, kw := range impactKeywords {
		if strings.Contains(title, kw) {
			impact += 10
		}
	}
	if impact > 95 {
		impact = 95
	}

	var penalty float64
	for _, kw := range penaltyKeywords {
		if strings.Contains(title, kw) {
			penalty += 15
		}
	}
	if penalty > 40 {
		penalty = 40
	}

	pricedIn := entity.PricedInLow
	for _, kw := range recapKeywords {
		if strings.Contains(title, kw) {
			pricedIn = entity.PricedInMedium
			break
		}
	}

	return &dto.EventAnalysis{
		Impact:            impact,
		SourceReliability: reliability,
		Novelty:           90,
		MarketReaction:    50,
		Liquidity:         50,
		RiskPenalty:       penalty,
		PricedInFlag:      pricedIn,
		Reasoning:         "tier and title keyword heuristics",
	}, nil
}
