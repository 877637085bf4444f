// Package integrity re-checks a news/ticker binding inside the signal
// transaction, after it has been written and read back. Both failures
// abort the transaction; nothing from it may survive.
package integrity

import (
	"errors"
	"fmt"

	"stock-news-trader/internal/entity"
)

var (
	// ErrNewsMismatch means the binding references a different news row
	// than the one the transaction created.
	ErrNewsMismatch = errors.New("binding news id mismatch")

	// ErrLowConfidence means the mapping confidence is below the floor.
	ErrLowConfidence = errors.New("mapping confidence below minimum")
)

// ValidateBinding verifies the re-read binding against the news row it
// must belong to and the minimum mapping confidence.
func ValidateBinding(newsID int64, binding *entity.EventTicker, minConfidence float64) error {
	if binding.NewsID != newsID {
		return fmt.Errorf("binding %d references news %d, expected %d: %w",
			binding.ID, binding.NewsID, newsID, ErrNewsMismatch)
	}
	if binding.MapConfidence < minConfidence {
		return fmt.Errorf("binding %d confidence %.2f below %.2f: %w",
			binding.ID, binding.MapConfidence, minConfidence, ErrLowConfidence)
	}
	return nil
}
