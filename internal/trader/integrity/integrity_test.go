package integrity

import (
	"testing"

	"stock-news-trader/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestValidateBindingOK(t *testing.T) {
	binding := &entity.EventTicker{ID: 7, NewsID: 42, Ticker: "005930", MapConfidence: 0.98}
	assert.NoError(t, ValidateBinding(42, binding, 0.92))
}

func TestValidateBindingNewsMismatch(t *testing.T) {
	binding := &entity.EventTicker{ID: 7, NewsID: 41, Ticker: "005930", MapConfidence: 0.98}
	err := ValidateBinding(42, binding, 0.92)
	assert.ErrorIs(t, err, ErrNewsMismatch)
}

func TestValidateBindingLowConfidence(t *testing.T) {
	binding := &entity.EventTicker{ID: 7, NewsID: 42, Ticker: "005930", MapConfidence: 0.5}
	err := ValidateBinding(42, binding, 0.92)
	assert.ErrorIs(t, err, ErrLowConfidence)
}

func TestValidateBindingConfidenceFloorIsInclusive(t *testing.T) {
	binding := &entity.EventTicker{ID: 7, NewsID: 42, Ticker: "005930", MapConfidence: 0.92}
	assert.NoError(t, ValidateBinding(42, binding, 0.92))
}
