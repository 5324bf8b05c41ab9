// Package crontab resolves a crontab expression to its first firing
// time inside a bounded search window.
package crontab

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultRangeBackward is how far before now the search starts.
	DefaultRangeBackward = 0
	// DefaultRangeForward is how far past now the search extends.
	DefaultRangeForward = 24 * time.Hour
)

// ErrNotFound is returned when the expression never fires inside the window.
var ErrNotFound = errors.New("crontab: no matching time in range")

// Next returns the first time the standard five-field expression expr
// fires within [now-back, now+forward]. Matches are minute granular.
func Next(expr string, now time.Time, back, forward time.Duration) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("crontab: parse %q: %w", expr, err)
	}

	// Next is strictly-after, so step in just before the window so a
	// firing on its first minute is still seen.
	from := now.Add(-back).Truncate(time.Minute).Add(-time.Second)
	next := sched.Next(from)
	if next.IsZero() || next.After(now.Add(forward)) {
		return time.Time{}, ErrNotFound
	}
	return next, nil
}
