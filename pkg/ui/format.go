package ui

import (
	"fmt"
	"time"

	"github.com/go-go-golems/parley/pkg/session"
)

// formatSessionTime renders a session-list timestamp relative to now:
// "today HH:MM", "yesterday HH:MM", otherwise "MM-DD HH:MM".
func formatSessionTime(now, t time.Time) string {
	clock := t.Format("15:04")
	sameDay := func(a, b time.Time) bool {
		return a.Year() == b.Year() && a.YearDay() == b.YearDay()
	}
	if sameDay(now, t) {
		return "today " + clock
	}
	if sameDay(now.AddDate(0, 0, -1), t) {
		return "yesterday " + clock
	}
	return fmt.Sprintf("%02d-%02d %s", int(t.Month()), t.Day(), clock)
}

// sessionMeta is the second line of a session entry: last activity when the
// session has any, creation time otherwise.
func sessionMeta(now time.Time, s session.Session) string {
	if s.LastMessageAt != nil {
		return "last active " + formatSessionTime(now, *s.LastMessageAt)
	}
	return "created " + formatSessionTime(now, s.CreatedAt)
}

// truncate cuts a string to max runes for single-line display.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return string(runes[:1])
	}
	return string(runes[:max-1]) + "…"
}
