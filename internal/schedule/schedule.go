package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultCaption is used for records created without a user caption
	// (lock stubs and unoccupied gap entries).
	DefaultCaption = "TimeManager."

	// MaxCaptionLen bounds the caption including its terminator byte,
	// matching the record layout in the shared segment.
	MaxCaptionLen = 256

	// MaxInputLen is the longest accepted schedule string on stdin.
	MaxInputLen = 512

	// MaxRecordLen is the longest record line in the shared segment,
	// excluding the trailing newline.
	MaxRecordLen = 510
)

// Schedule is one registry record, owned by exactly one process group.
type Schedule struct {
	Pgid       int    // owning process group, primary key
	Lock       bool   // true while the owner holds the registry write lock
	Terminator int    // pid of the end-of-window signaller, 0 before activation
	Start      int64  // window start, seconds since epoch
	Duration   int64  // window length in seconds
	Caption    string // short human description
}

// End returns the exclusive end of the window.
func (s *Schedule) End() int64 { return s.Start + s.Duration }

// ValidateCaption rejects captions that would corrupt the line format:
// embedded newlines, embedded colons, or over-long text.
func ValidateCaption(caption string) error {
	if strings.ContainsAny(caption, ":\n") {
		return errors.New("caption must not contain ':' or a newline")
	}
	if len(caption) >= MaxCaptionLen {
		return fmt.Errorf("caption longer than %d bytes", MaxCaptionLen-1)
	}
	return nil
}

// EncodeRecord renders s as one shared-segment line,
// "pgid:lock:terminator:start:duration:caption\n".
func EncodeRecord(s *Schedule) string {
	lock := 0
	if s.Lock {
		lock = 1
	}
	return fmt.Sprintf("%d:%d:%d:%d:%d:%s\n", s.Pgid, lock, s.Terminator, s.Start, s.Duration, s.Caption)
}

// ParseRecord parses one shared-segment line. The five leading fields
// must be colon separated integers; the remainder of the line is the
// caption. Malformed lines are rejected, never guessed at.
func ParseRecord(line string) (*Schedule, error) {
	parts := strings.SplitN(line, ":", 6)
	if len(parts) != 6 {
		return nil, fmt.Errorf("unknown record format: %q", line)
	}

	pgid, err := strconv.Atoi(parts[0])
	if err != nil || pgid <= 0 {
		return nil, fmt.Errorf("invalid pgid value: %q", parts[0])
	}

	lock, err := strconv.Atoi(parts[1])
	if err != nil || (lock != 0 && lock != 1) {
		return nil, fmt.Errorf("invalid lock value: %q", parts[1])
	}

	terminator, err := strconv.Atoi(parts[2])
	if err != nil || terminator < 0 {
		return nil, fmt.Errorf("invalid terminator value: %q", parts[2])
	}

	start, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || start < 0 {
		return nil, fmt.Errorf("invalid start value: %q", parts[3])
	}

	duration, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil || duration < 0 {
		return nil, fmt.Errorf("invalid duration value: %q", parts[4])
	}

	return &Schedule{
		Pgid:       pgid,
		Lock:       lock == 1,
		Terminator: terminator,
		Start:      start,
		Duration:   duration,
		Caption:    parts[5],
	}, nil
}

// ParseInput parses the user-facing schedule string "start:duration:caption"
// as read from stdin by add, unoccupied and crontab. The returned Schedule
// carries only the time fields and the caption.
func ParseInput(line string) (*Schedule, error) {
	line = strings.TrimSuffix(line, "\n")
	if len(line) > MaxInputLen {
		return nil, fmt.Errorf("schedule string longer than %d bytes", MaxInputLen)
	}

	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("unknown schedule format: %q", line)
	}

	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 {
		return nil, fmt.Errorf("invalid start value: %q", parts[0])
	}

	duration, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || duration < 0 {
		return nil, fmt.Errorf("invalid duration value: %q", parts[1])
	}

	if err := ValidateCaption(parts[2]); err != nil {
		return nil, err
	}

	return &Schedule{Start: start, Duration: duration, Caption: parts[2]}, nil
}

// FormatInput renders s in the stdin schedule form, "start:duration:caption\n".
func FormatInput(s *Schedule) string {
	return fmt.Sprintf("%d:%d:%s\n", s.Start, s.Duration, s.Caption)
}
