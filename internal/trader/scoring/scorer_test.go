package scoring

import (
	"testing"

	"stock-news-trader/internal/entity"

	"github.com/stretchr/testify/assert"
)

func allComponents(v float64) map[string]float64 {
	return map[string]float64{
		"impact":             v,
		"source_reliability": v,
		"novelty":            v,
		"market_reaction":    v,
		"liquidity":          v,
	}
}

func TestComputeDefaultWeights(t *testing.T) {
	// Weights sum to 1.0, so uniform components score at that value.
	result := Compute(allComponents(80), 0, nil, 0)
	assert.InDelta(t, 80, result.Raw, 0.001)
	assert.InDelta(t, 80, result.Total, 0.001)
}

func TestComputeWeightOverrides(t *testing.T) {
	components := map[string]float64{
		"impact":             100,
		"source_reliability": 0,
		"novelty":            0,
		"market_reaction":    0,
		"liquidity":          0,
	}

	result := Compute(components, 0, map[string]float64{"impact": 0.5}, 0)
	assert.InDelta(t, 50, result.Total, 0.001)

	// Unknown override keys contribute nothing.
	result = Compute(components, 0, map[string]float64{"impact": 0.5, "sentiment": 9.0}, 0)
	assert.InDelta(t, 50, result.Total, 0.001)
}

func TestComputePenaltyCap(t *testing.T) {
	result := Compute(allComponents(80), 50, nil, 30)
	assert.InDelta(t, 50, result.Total, 0.001, "penalty above the cap applies at the cap")

	result = Compute(allComponents(80), 10, nil, 30)
	assert.InDelta(t, 70, result.Total, 0.001, "penalty below the cap applies unchanged")

	result = Compute(allComponents(80), 50, nil, 0)
	assert.InDelta(t, 30, result.Total, 0.001, "zero cap disables capping")
}

func TestComputeClampsTotal(t *testing.T) {
	result := Compute(allComponents(10), 40, nil, 100)
	assert.InDelta(t, -30, result.Raw, 0.001, "raw keeps the unclamped value")
	assert.Equal(t, float64(0), result.Total)

	result = Compute(allComponents(200), 0, nil, 0)
	assert.InDelta(t, 200, result.Raw, 0.001)
	assert.Equal(t, float64(100), result.Total)
}

func TestThresholdsFromJSON(t *testing.T) {
	testCases := []struct {
		desc     string
		raw      string
		expected Thresholds
	}{
		{"empty falls back to defaults", "", Thresholds{Buy: 70, Hold: 40}},
		{"malformed falls back to defaults", "{not json", Thresholds{Buy: 70, Hold: 40}},
		{"full override", `{"buy": 80, "hold": 50}`, Thresholds{Buy: 80, Hold: 50}},
		{"partial override keeps the other default", `{"buy": 90}`, Thresholds{Buy: 90, Hold: 40}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, ThresholdsFromJSON([]byte(tc.raw)))
		})
	}
}

func TestDecide(t *testing.T) {
	thresholds := DefaultThresholds()

	assert.Equal(t, entity.DecisionBuy, Decide(70, thresholds), "buy floor is inclusive")
	assert.Equal(t, entity.DecisionBuy, Decide(100, thresholds))
	assert.Equal(t, entity.DecisionHold, Decide(69.9, thresholds))
	assert.Equal(t, entity.DecisionHold, Decide(40, thresholds), "hold floor is inclusive")
	assert.Equal(t, entity.DecisionIgnore, Decide(39.9, thresholds))
	assert.Equal(t, entity.DecisionIgnore, Decide(0, thresholds))
}
