package utils

import (
	"log"
	"time"
)

// GetKstTimeLocation returns the Asia/Seoul location used for all
// exchange-facing timestamps.
func GetKstTimeLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

// TimeNowKST returns the current time in the exchange timezone.
func TimeNowKST() time.Time {
	return time.Now().In(GetKstTimeLocation())
}

// TradeDate formats a time as the ISO date string used as the risk_state
// primary key.
func TradeDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// PrettyDate formats a time for human-facing notifications.
func PrettyDate(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006 15:04:05 MST")
}
