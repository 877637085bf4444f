package telegram

import (
	"fmt"
	"strings"
	"time"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/pkg/utils"
)

// FormatSignalCreatedMessage formats the notification sent when a news
// event survived the whole signal transaction.
func FormatSignalCreatedMessage(item dto.NewsItem, bundle *dto.SignalBundle) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🆕 *Signal Created* - *%s*\n", bundle.Ticker))
	sb.WriteString(fmt.Sprintf("🎯 Decision: *%s*\n", bundle.Decision))
	sb.WriteString(fmt.Sprintf("🧮 Total Score: %.1f\n\n", bundle.TotalScore))
	sb.WriteString(fmt.Sprintf("📰 %s\n", item.Title))
	sb.WriteString(fmt.Sprintf("🏷 Source: %s (tier %d)\n", item.Source, item.Tier))
	sb.WriteString(fmt.Sprintf("🔗 %s\n", item.URL))
	sb.WriteString(fmt.Sprintf("\n🧾 signal=%d news=%d binding=%d", bundle.SignalID, bundle.NewsID, bundle.EventTickerID))

	return sb.String()
}

// FormatPipelineSkippedMessage formats benign skips such as duplicate news
// or a news item no alias matched.
func FormatPipelineSkippedMessage(outcome string, item dto.NewsItem) string {
	return fmt.Sprintf(`⏭ *Pipeline Skip* - %s
📰 %s
🏷 Source: %s
🔗 %s
`, outcome, item.Title, item.Source, item.URL)
}

// FormatEntryBlockedMessage formats a risk-gate block. No order reached the
// venue for these.
func FormatEntryBlockedMessage(signalID int64, ticker, reason string) string {
	return fmt.Sprintf(`⛔ *Entry Blocked* - *%s*
🧾 Signal: %d
🚧 Reason: %s
`, ticker, signalID, reason)
}

// FormatOrderFilledMessage formats a confirmed entry fill.
func FormatOrderFilledMessage(position *entity.Position, order *entity.Order, result *dto.OrderResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("✅ *Order Filled* - *%s*\n", position.Ticker))
	sb.WriteString(fmt.Sprintf("📈 Side: %s %s\n", order.Side, order.OrderType))
	sb.WriteString(fmt.Sprintf("🔢 Qty: %.0f @ %.2f\n", order.Qty, result.AvgPrice))
	sb.WriteString(fmt.Sprintf("💼 Position: %d (OPEN)\n", position.PositionID))
	sb.WriteString(fmt.Sprintf("🏦 Broker Order: %s\n", result.BrokerOrderID))
	sb.WriteString(fmt.Sprintf("⏱ Latency: %dms", result.LatencyMs))

	return sb.String()
}

// FormatEntryFailedMessage formats a venue non-fill. The position and order
// rows were rolled back; only the BLOCK audit event remains.
func FormatEntryFailedMessage(signalID, positionID int64, ticker, reason string) string {
	return fmt.Sprintf(`🚫 *Entry Failed* - *%s*
🧾 Signal: %d
💼 Attempted Position: %d (rolled back)
🚧 Reason: %s
`, ticker, signalID, positionID, reason)
}

// FormatPositionClosedMessage formats a settlement fill.
func FormatPositionClosedMessage(position *entity.Position, exitPrice float64, reason string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🏁 *Position Closed* - *%s*\n", position.Ticker))
	sb.WriteString(fmt.Sprintf("💼 Position: %d\n", position.PositionID))
	sb.WriteString(fmt.Sprintf("🔢 Qty: %.0f\n", position.Qty))
	sb.WriteString(fmt.Sprintf("💵 Entry: %.2f → Exit: %.2f\n", position.AvgEntryPrice, exitPrice))
	sb.WriteString(fmt.Sprintf("🚪 Reason: %s", reason))

	return sb.String()
}

// FormatExitNotFilledMessage formats a settlement attempt the venue did not
// fill. The position stays OPEN for the next sweep.
func FormatExitNotFilledMessage(position *entity.Position, reason string) string {
	return fmt.Sprintf(`⚠️ *Exit Not Filled* - *%s*
💼 Position: %d stays OPEN
🚧 Reason: %s
`, position.Ticker, position.PositionID, reason)
}

// FormatErrorAlertMessage formats an operational alert, e.g. a stream
// message that exhausted its retries.
func FormatErrorAlertMessage(time time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(time), errType, errMsg, data)
}
