package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTradeDate(t *testing.T) {
	kst := GetKstTimeLocation()
	assert.Equal(t, "2026-08-21", TradeDate(time.Date(2026, 8, 21, 15, 30, 0, 0, kst)))
}

func TestTradeDateRespectsLocation(t *testing.T) {
	// 23:30 UTC is already the next day in Seoul.
	utc := time.Date(2026, 8, 21, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-22", TradeDate(utc.In(GetKstTimeLocation())))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "삼성전자", TruncateRunes("삼성전자", 10))
	assert.Equal(t, "삼성", TruncateRunes("삼성전자", 2))
	assert.Equal(t, "", TruncateRunes("anything", 0))
}

func TestCleanToValidUTF8(t *testing.T) {
	assert.Equal(t, "ab", CleanToValidUTF8("a\x00b"))
	assert.Equal(t, "ok", CleanToValidUTF8("ok\xff"))
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"BUY", "SELL"}, "SELL"))
	assert.False(t, ContainsString([]string{"BUY", "SELL"}, "HOLD"))
	assert.False(t, ContainsString(nil, "BUY"))
}

func TestToPointer(t *testing.T) {
	v := ToPointer(42)
	assert.Equal(t, 42, *v)
}
