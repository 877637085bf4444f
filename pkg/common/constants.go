package common

const (
	RedisStreamSignalExecution = "signal.execution"

	RedisStreamGroup    = "trader-group"
	RedisStreamConsumer = "trader-consumer"
)

// Pipeline outcome codes. These are the reason strings written to logs,
// audit events and notifications, shared across services so reporting
// tooling can match on them.
const (
	OutcomeDupNewsSkipped      = "DUP_NEWS_SKIPPED"
	OutcomeNoMapping           = "NO_MAPPING"
	OutcomeEventTickerNotFound = "EVENT_TICKER_NOT_FOUND"
	OutcomeRiskStateMissing    = "RISK_STATE_MISSING"
	OutcomeAlreadyExecuted     = "ALREADY_EXECUTED"

	ReasonKillSwitchOn = "KILL_SWITCH_ON"
	ReasonRiskDisabled = "RISK_DISABLED"
	ReasonTimeExit     = "TIME_EXIT"
)
