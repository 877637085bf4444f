// Package broker abstracts the order venue behind a small capability
// interface so the execution pipeline never knows which venue it is
// talking to. Implementations are selected once, at construction.
package broker

import (
	"context"

	"stock-news-trader/internal/trader/dto"
)

// Broker is the order venue capability the execution pipeline calls. A
// broker only talks to its venue; it never touches storage.
type Broker interface {
	// SendOrder submits one order and reports the venue's verdict. The
	// caller bounds the call with a context deadline because it runs
	// inside an open storage transaction.
	SendOrder(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error)

	// HealthCheck reports whether the venue is usable right now.
	HealthCheck(ctx context.Context) (*dto.HealthReport, error)

	Name() string
}
