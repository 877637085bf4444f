package dto

// SignalBundle is the result of one successful signal-creation pass: the
// row ids the transaction committed, plus what execution needs to act.
type SignalBundle struct {
	NewsID        int64   `json:"news_id"`
	EventTickerID int64   `json:"event_ticker_id"`
	SignalID      int64   `json:"signal_id"`
	Ticker        string  `json:"ticker"`
	Decision      string  `json:"decision"`
	TotalScore    float64 `json:"total_score"`
}

// StreamDataSignalExecution is the payload published to the execution
// stream once a signal's transaction has committed.
type StreamDataSignalExecution struct {
	SignalID int64   `json:"signal_id"`
	Ticker   string  `json:"ticker"`
	Qty      float64 `json:"qty"`
}
