package dto

import "time"

// NewsItem is one raw news event handed to the signal pipeline by a feed
// connector, before deduplication.
type NewsItem struct {
	Source      string     `json:"source"`
	Tier        int        `json:"tier"`
	PublishedAt *time.Time `json:"published_at"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	URL         string     `json:"url"`
}

// MappingResult is the ticker the mapper resolved for a news item.
type MappingResult struct {
	Ticker         string  `json:"ticker"`
	CompanyName    string  `json:"company_name"`
	Confidence     float64 `json:"confidence"`
	Method         string  `json:"method"`
	ContextSnippet string  `json:"context_snippet"`
}

// EventAnalysis carries the score components an analyzer produced for one
// news item. Components are on a 0..100 scale.
type EventAnalysis struct {
	Impact            float64 `json:"impact"`
	SourceReliability float64 `json:"source_reliability"`
	Novelty           float64 `json:"novelty"`
	MarketReaction    float64 `json:"market_reaction"`
	Liquidity         float64 `json:"liquidity"`
	RiskPenalty       float64 `json:"risk_penalty"`
	PricedInFlag      string  `json:"priced_in_flag"`
	Reasoning         string  `json:"reasoning"`
}

// Components returns the weighted-score inputs keyed the way the score
// weights parameter names them.
func (a *EventAnalysis) Components() map[string]float64 {
	return map[string]float64{
		"impact":             a.Impact,
		"source_reliability": a.SourceReliability,
		"novelty":            a.Novelty,
		"market_reaction":    a.MarketReaction,
		"liquidity":          a.Liquidity,
	}
}
