package metrics

import "testing"

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	// A second Register must not panic on duplicate collectors.
	Register()
}

func TestCountersIncrement(t *testing.T) {
	Register()
	IncExtensions()
	IncActivations()
	IncLockFailures()
}
