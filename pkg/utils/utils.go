package utils

import (
	"context"
	"log"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"stock-news-trader/pkg/logger"
)

// GoSafe runs fn in a goroutine and recovers panics so a misbehaving
// handler cannot take the process down.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether a worker loop should keep going, logging
// once when the context has been cancelled.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	if err := ctx.Err(); err != nil {
		log.Info("Context cancelled, stopping", logger.ErrorField(err))
		return false
	}
	return true
}

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// ContainsString reports whether s is present in list.
func ContainsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CleanToValidUTF8 strips invalid UTF-8 sequences and NUL bytes that
// upset both Postgres and the Telegram API.
func CleanToValidUTF8(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "\x00", "")
}

// TruncateRunes shortens s to at most n runes.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
