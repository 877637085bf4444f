package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SignalsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trader_signals_created_total",
		Help: "Signals persisted from mapped news events.",
	})

	NewsDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trader_news_duplicates_total",
		Help: "News items skipped because the url or raw hash was already stored.",
	})

	TradesBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_trades_blocked_total",
		Help: "Entry attempts blocked before an order reached the venue.",
	}, []string{"reason"})

	OrdersFilled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_orders_filled_total",
		Help: "Orders confirmed filled by the broker.",
	}, []string{"side"})

	PositionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_positions_closed_total",
		Help: "Positions settled to a terminal state.",
	}, []string{"reason"})

	BrokerSendSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trader_broker_send_seconds",
		Help:    "Round trip latency of broker order submission.",
		Buckets: prometheus.DefBuckets,
	}, []string{"broker"})
)

// Handler exposes the default registry for the admin API.
func Handler() http.Handler {
	return promhttp.Handler()
}
