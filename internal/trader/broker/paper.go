package broker

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/dto"

	"github.com/google/uuid"
)

const defaultReferencePrice = 100.0

// PaperBroker simulates a venue: configurable latency, fills at the
// caller's expected price. Used for local runs, drills and tests.
type PaperBroker struct {
	referencePrice float64
	latencyBase    time.Duration
	latencyJitter  time.Duration
	failRate       float64
}

// NewPaperBroker creates a simulated venue from config.
func NewPaperBroker(cfg config.Paper) *PaperBroker {
	latencyBase := cfg.LatencyBase
	if latencyBase == 0 {
		latencyBase = 100 * time.Millisecond
	}
	latencyJitter := cfg.LatencyJitter
	if latencyJitter == 0 {
		latencyJitter = 80 * time.Millisecond
	}
	referencePrice := cfg.ReferencePrice
	if referencePrice == 0 {
		referencePrice = defaultReferencePrice
	}
	return &PaperBroker{
		referencePrice: referencePrice,
		latencyBase:    latencyBase,
		latencyJitter:  latencyJitter,
		failRate:       cfg.FailRate,
	}
}

func (b *PaperBroker) Name() string { return "paper" }

// SendOrder fills after the simulated latency at the expected price hint,
// falling back to the configured reference price.
func (b *PaperBroker) SendOrder(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error) {
	latency := b.latencyBase
	if b.latencyJitter > 0 {
		latency += time.Duration(rand.Int63n(int64(b.latencyJitter)))
	}

	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("paper order interrupted: %w", ctx.Err())
	case <-timer.C:
	}

	if b.failRate > 0 && rand.Float64() < b.failRate {
		return &dto.OrderResult{
			Status:     entity.OrderStatusRejected,
			ReasonCode: "SIMULATED_REJECT",
			LatencyMs:  latency.Milliseconds(),
		}, nil
	}

	price := req.ExpectedPrice
	if price == 0 {
		price = b.referencePrice
	}

	return &dto.OrderResult{
		Status:        entity.OrderStatusFilled,
		AvgPrice:      price,
		FilledQty:     req.Qty,
		BrokerOrderID: "PAPER-" + uuid.NewString(),
		ReasonCode:    "SIMULATED_FILL",
		LatencyMs:     latency.Milliseconds(),
	}, nil
}

// HealthCheck always reports OK; there is no venue to be down.
func (b *PaperBroker) HealthCheck(ctx context.Context) (*dto.HealthReport, error) {
	return &dto.HealthReport{
		Broker: b.Name(),
		Status: dto.HealthOK,
		Checks: map[string]string{
			"latency_sim": "OK",
		},
	}, nil
}
