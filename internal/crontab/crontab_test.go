package crontab

import (
	"errors"
	"testing"
	"time"
)

func TestNextFindsUpcomingFiring(t *testing.T) {
	// 2017-08-19 12:00 local; "0 7 20 8 *" fires 2017-08-20 07:00.
	now := time.Date(2017, 8, 19, 12, 0, 0, 0, time.Local)
	next, err := Next("0 7 20 8 *", now, 0, 24*time.Hour)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := time.Date(2017, 8, 20, 7, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextIncludesCurrentMinute(t *testing.T) {
	now := time.Date(2017, 8, 20, 7, 0, 30, 0, time.Local)
	next, err := Next("0 7 20 8 *", now, 0, time.Hour)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := time.Date(2017, 8, 20, 7, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want the current minute %v", next, want)
	}
}

func TestNextSearchesBackward(t *testing.T) {
	now := time.Date(2017, 8, 20, 9, 0, 0, 0, time.Local)
	next, err := Next("0 7 20 8 *", now, 3*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := time.Date(2017, 8, 20, 7, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextOutOfRange(t *testing.T) {
	now := time.Date(2017, 8, 1, 0, 0, 0, 0, time.Local)
	if _, err := Next("0 7 20 8 *", now, 0, 24*time.Hour); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNextRejectsBadExpression(t *testing.T) {
	if _, err := Next("not a cron line", time.Now(), 0, time.Hour); err == nil {
		t.Fatal("bad expression accepted")
	}
	if _, err := Next("99 7 20 8 *", time.Now(), 0, time.Hour); err == nil {
		t.Fatal("out-of-range minute accepted")
	}
}
