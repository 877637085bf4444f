package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/dto"
)

func TestFormatSignalCreatedMessage(t *testing.T) {
	item := dto.NewsItem{
		Source: "mk",
		Tier:   1,
		Title:  "Samsung Electronics announces new fab investment",
		URL:    "https://news.example.com/sec-fab",
	}
	bundle := &dto.SignalBundle{
		NewsID:        3,
		EventTickerID: 4,
		SignalID:      5,
		Ticker:        "005930",
		Decision:      "BUY",
		TotalScore:    75,
	}

	msg := FormatSignalCreatedMessage(item, bundle)

	assert.Contains(t, msg, "005930")
	assert.Contains(t, msg, "BUY")
	assert.Contains(t, msg, "75.0")
	assert.Contains(t, msg, item.Title)
	assert.Contains(t, msg, "mk (tier 1)")
	assert.Contains(t, msg, "signal=5 news=3 binding=4")
}

func TestFormatEntryBlockedMessage(t *testing.T) {
	msg := FormatEntryBlockedMessage(42, "005930", "KILL_SWITCH_ON")

	assert.Contains(t, msg, "005930")
	assert.Contains(t, msg, "Signal: 42")
	assert.Contains(t, msg, "KILL_SWITCH_ON")
}

func TestFormatOrderFilledMessage(t *testing.T) {
	position := &entity.Position{PositionID: 7, Ticker: "005930"}
	order := &entity.Order{Side: "BUY", OrderType: "MARKET", Qty: 2}
	result := &dto.OrderResult{
		Status:        "FILLED",
		AvgPrice:      70000,
		BrokerOrderID: "PAPER-1",
		LatencyMs:     120,
	}

	msg := FormatOrderFilledMessage(position, order, result)

	assert.Contains(t, msg, "005930")
	assert.Contains(t, msg, "BUY MARKET")
	assert.Contains(t, msg, "2 @ 70000.00")
	assert.Contains(t, msg, "Position: 7 (OPEN)")
	assert.Contains(t, msg, "PAPER-1")
	assert.Contains(t, msg, "120ms")
}

func TestFormatPositionClosedMessage(t *testing.T) {
	position := &entity.Position{
		PositionID:    7,
		Ticker:        "005930",
		Qty:           2,
		AvgEntryPrice: 70000,
	}

	msg := FormatPositionClosedMessage(position, 70500, "TIME_EXIT")

	assert.Contains(t, msg, "005930")
	assert.Contains(t, msg, "70000.00 → Exit: 70500.00")
	assert.Contains(t, msg, "TIME_EXIT")
}

func TestFormatErrorAlertMessage(t *testing.T) {
	at := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

	msg := FormatErrorAlertMessage(at, "EXECUTION_STREAM", "max retries exhausted", `{"signal_id":5}`)

	assert.Contains(t, msg, "EXECUTION_STREAM")
	assert.Contains(t, msg, "max retries exhausted")
	assert.Contains(t, msg, `{"signal_id":5}`)
}
