package main

// GlobalFlags holds the persistent flags shared by every sub-command.
type GlobalFlags struct {
	ConfigPath string
	Database   int
	Verbose    bool
}

// ActivateFlags holds flags for activate and set.
type ActivateFlags struct {
	Signo int
}

// ScheduleFlags holds flags for schedule.
type ScheduleFlags struct {
	All bool
	Raw bool
}

// UnoccupiedFlags holds flags for unoccupied.
type UnoccupiedFlags struct {
	Begin int64 // negative means "now"
	Range int64
}

// CrontabFlags holds flags for crontab.
type CrontabFlags struct {
	RangeBackward int64
	RangeForward  int64
}

// LockFlags holds flags for lock.
type LockFlags struct {
	Timeout int64
}

// AutoextendFlags holds flags for autoextend and its hidden loop.
type AutoextendFlags struct {
	Interval      int64
	Range         int64
	MetricsListen string
	LogFile       string
}

// TerminatorFlags holds flags for the hidden terminator command.
type TerminatorFlags struct {
	End   int64
	Signo int
}

// HistoryFlags holds flags for history.
type HistoryFlags struct {
	Limit int
}
