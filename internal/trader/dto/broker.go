package dto

// OrderRequest is what the execution pipeline hands a broker. The ids are
// carried for venue-side audit tags only; the broker never touches storage.
type OrderRequest struct {
	Ticker        string  `json:"ticker"`
	Side          string  `json:"side"`
	Qty           float64 `json:"qty"`
	OrderType     string  `json:"order_type"`
	ExpectedPrice float64 `json:"expected_price"`
	SignalID      int64   `json:"signal_id"`
	PositionID    int64   `json:"position_id"`
	OrderID       int64   `json:"order_id"`
}

// OrderResult is the venue's answer to one order attempt.
type OrderResult struct {
	Status        string  `json:"status"`
	AvgPrice      float64 `json:"avg_price"`
	FilledQty     float64 `json:"filled_qty"`
	BrokerOrderID string  `json:"broker_order_id"`
	ReasonCode    string  `json:"reason_code"`
	LatencyMs     int64   `json:"latency_ms"`
}

// Filled reports whether the venue confirmed a full fill.
func (r *OrderResult) Filled() bool {
	return r != nil && r.Status == "FILLED"
}

// Health statuses reported by a broker.
const (
	HealthOK       = "OK"
	HealthWarn     = "WARN"
	HealthCritical = "CRITICAL"
)

// HealthReport is a broker's self-diagnosis.
type HealthReport struct {
	Broker string            `json:"broker"`
	Status string            `json:"status"`
	Reason string            `json:"reason,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}
