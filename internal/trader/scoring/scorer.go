// Package scoring folds analyzer components into the 0..100 signal score
// and derives the trading decision from registry thresholds.
package scoring

import (
	"encoding/json"

	"stock-news-trader/internal/entity"
)

// DefaultWeights are the component weights used when the registry carries
// no score_weights row (or a malformed one). Keys match the analyzer's
// component names.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"impact":             0.30,
		"source_reliability": 0.20,
		"novelty":            0.20,
		"market_reaction":    0.15,
		"liquidity":          0.15,
	}
}

// Result carries the raw (post-penalty, unclamped) and total (clamped)
// scores. Both are persisted on the signal row.
type Result struct {
	Raw   float64
	Total float64
}

// Compute sums weight x component over the default weight keys, merging
// registry overrides per key, subtracts the capped risk penalty, and
// clamps the total into [0, 100].
func Compute(components map[string]float64, riskPenalty float64, weights map[string]float64, penaltyCap float64) Result {
	merged := DefaultWeights()
	for key, value := range weights {
		if _, known := merged[key]; known {
			merged[key] = value
		}
	}

	var raw float64
	for key, weight := range merged {
		raw += weight * components[key]
	}

	if penaltyCap > 0 && riskPenalty > penaltyCap {
		riskPenalty = penaltyCap
	}
	raw -= riskPenalty

	total := raw
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return Result{Raw: raw, Total: total}
}

// Thresholds are the score floors for each decision.
type Thresholds struct {
	Buy  float64 `json:"buy"`
	Hold float64 `json:"hold"`
}

// DefaultThresholds returns the built-in decision floors.
func DefaultThresholds() Thresholds {
	return Thresholds{Buy: 70, Hold: 40}
}

// ThresholdsFromJSON decodes the decision_thresholds registry value,
// falling back to defaults for anything missing or malformed.
func ThresholdsFromJSON(raw []byte) Thresholds {
	thresholds := DefaultThresholds()
	if len(raw) == 0 {
		return thresholds
	}
	var decoded struct {
		Buy  *float64 `json:"buy"`
		Hold *float64 `json:"hold"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return thresholds
	}
	if decoded.Buy != nil {
		thresholds.Buy = *decoded.Buy
	}
	if decoded.Hold != nil {
		thresholds.Hold = *decoded.Hold
	}
	return thresholds
}

// Decide maps a total score to BUY, HOLD or IGNORE.
func Decide(total float64, thresholds Thresholds) string {
	switch {
	case total >= thresholds.Buy:
		return entity.DecisionBuy
	case total >= thresholds.Hold:
		return entity.DecisionHold
	default:
		return entity.DecisionIgnore
	}
}
