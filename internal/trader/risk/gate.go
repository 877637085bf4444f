package risk

import (
	"sync/atomic"

	"stock-news-trader/internal/entity"
	"stock-news-trader/pkg/common"
)

// KillSwitch is the process-wide trading stop. It is constructed once in
// main and handed by pointer to everything that consults or toggles it,
// so an operator flip is visible to the next gate check immediately.
type KillSwitch struct {
	engaged atomic.Bool
}

// NewKillSwitch creates a released kill switch.
func NewKillSwitch() *KillSwitch {
	return &KillSwitch{}
}

// Engage stops all trading.
func (k *KillSwitch) Engage() {
	k.engaged.Store(true)
}

// Release allows trading again.
func (k *KillSwitch) Release() {
	k.engaged.Store(false)
}

// Engaged reports whether trading is stopped.
func (k *KillSwitch) Engaged() bool {
	return k.engaged.Load()
}

// Decision is the gate's verdict on one entry attempt.
type Decision struct {
	Allowed bool
	Reason  string
}

// Gate decides whether an entry may proceed. The kill switch outranks
// everything else.
type Gate struct {
	killSwitch *KillSwitch
}

// NewGate creates a Gate consulting the given kill switch handle.
func NewGate(killSwitch *KillSwitch) *Gate {
	return &Gate{killSwitch: killSwitch}
}

// CanTrade evaluates the blocks in precedence order: kill switch first,
// then the day's trading_enabled flag.
func (g *Gate) CanTrade(state *entity.RiskState) Decision {
	if g.killSwitch.Engaged() {
		return Decision{Reason: common.ReasonKillSwitchOn}
	}
	if state == nil || state.TradingEnabled != 1 {
		return Decision{Reason: common.ReasonRiskDisabled}
	}
	return Decision{Allowed: true, Reason: "OK"}
}
