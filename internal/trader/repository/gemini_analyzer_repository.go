package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const analyzeEventPromptTemplate = `You are a markets analyst. Given one news item, produce a strict JSON object scoring it for a news-driven trading signal.

Respond with JSON only, no prose, using exactly these keys:
{
  "impact": <0-100>,
  "source_reliability": <0-100>,
  "novelty": <0-100>,
  "market_reaction": <0-100>,
  "liquidity": <0-100>,
  "risk_penalty": <0-40>,
  "priced_in_flag": "LOW" | "MEDIUM" | "HIGH",
  "reasoning": "<one sentence>"
}

Source: %s (tier %d)
Published: %s
Title: %s
Body: %s`

// geminiAnalyzerRepository is a NewsAnalyzerRepository backed by the
// Google Gemini API.
type geminiAnalyzerRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAnalyzerRepository creates a Gemini-backed analyzer with
// request pacing from the configured per-minute budget.
func NewGeminiAnalyzerRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (NewsAnalyzerRepository, error) {
	perMinute := cfg.Gemini.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	secondsPerRequest := time.Minute / time.Duration(perMinute)

	return &geminiAnalyzerRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		genAiClient:    genAiClient,
	}, nil
}

// AnalyzeEvent asks Gemini for the score components of one news item.
func (r *geminiAnalyzerRepository) AnalyzeEvent(ctx context.Context, item dto.NewsItem) (*dto.EventAnalysis, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	published := ""
	if item.PublishedAt != nil {
		published = item.PublishedAt.Format(time.RFC3339)
	}
	prompt := fmt.Sprintf(analyzeEventPromptTemplate, item.Source, item.Tier, published, item.Title, item.Body)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		r.logger.Error("Gemini request failed", logger.ErrorField(err), logger.StringField("title", item.Title))
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}

	return r.parseAnalysisResponse(resp)
}

func (r *geminiAnalyzerRepository) parseAnalysisResponse(resp *genai.GenerateContentResponse) (*dto.EventAnalysis, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}

	jsonString := resp.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	var result dto.EventAnalysis
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result from Gemini response: %w", err)
	}

	switch result.PricedInFlag {
	case entity.PricedInLow, entity.PricedInMedium, entity.PricedInHigh:
	default:
		result.PricedInFlag = entity.PricedInLow
	}

	return &result, nil
}
