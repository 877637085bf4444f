package risk

import (
	"testing"

	"stock-news-trader/internal/entity"
	"stock-news-trader/pkg/common"

	"github.com/stretchr/testify/assert"
)

func enabledState() *entity.RiskState {
	return &entity.RiskState{TradeDate: "2026-08-21", TradingEnabled: 1}
}

func TestCanTradeAllowed(t *testing.T) {
	gate := NewGate(NewKillSwitch())

	decision := gate.CanTrade(enabledState())
	assert.True(t, decision.Allowed)
	assert.Equal(t, "OK", decision.Reason)
}

func TestCanTradeKillSwitchOutranksEverything(t *testing.T) {
	killSwitch := NewKillSwitch()
	killSwitch.Engage()
	gate := NewGate(killSwitch)

	// Even a fully enabled day is blocked while the switch is engaged.
	decision := gate.CanTrade(enabledState())
	assert.False(t, decision.Allowed)
	assert.Equal(t, common.ReasonKillSwitchOn, decision.Reason)

	// A disabled day still reports the kill switch, not the day flag.
	disabled := enabledState()
	disabled.TradingEnabled = 0
	decision = gate.CanTrade(disabled)
	assert.Equal(t, common.ReasonKillSwitchOn, decision.Reason)

	killSwitch.Release()
	decision = gate.CanTrade(enabledState())
	assert.True(t, decision.Allowed)
}

func TestCanTradeDisabledDay(t *testing.T) {
	gate := NewGate(NewKillSwitch())

	state := enabledState()
	state.TradingEnabled = 0
	decision := gate.CanTrade(state)
	assert.False(t, decision.Allowed)
	assert.Equal(t, common.ReasonRiskDisabled, decision.Reason)
}

func TestCanTradeNilState(t *testing.T) {
	gate := NewGate(NewKillSwitch())

	decision := gate.CanTrade(nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, common.ReasonRiskDisabled, decision.Reason)
}
