package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{failure(errors.New("x")), 1},
		{misuse(errors.New("x")), 2},
		{notFound(errors.New("x")), 3},
		{timedOut(errors.New("x")), 3},
		{errors.New("unknown flag: --nope"), 2},
		{fmt.Errorf("wrapped: %w", failure(errors.New("x"))), 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Errorf("exitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestExitErrorUnwraps(t *testing.T) {
	cause := errors.New("cause")
	if !errors.Is(failure(cause), cause) {
		t.Fatal("exitError does not unwrap to its cause")
	}
}

func TestBuildRootHasAllSubcommands(t *testing.T) {
	root := buildRoot()

	want := []string{
		"add", "activate", "set", "schedule", "unoccupied", "crontab",
		"lock", "unlock", "reset", "terminate", "autoextend", "history",
		"autoextend-loop", "terminator",
	}
	have := map[string]bool{}
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestHiddenCommandsStayHidden(t *testing.T) {
	root := buildRoot()
	for _, c := range root.Commands() {
		hidden := c.Name() == "terminator" || c.Name() == "autoextend-loop"
		if c.Hidden != hidden {
			t.Errorf("command %q hidden = %v", c.Name(), c.Hidden)
		}
	}
}

func TestReadFirstLine(t *testing.T) {
	c := &command{stdin: strings.NewReader("0:600:news\nextra data")}
	line, err := c.readFirstLine()
	if err != nil {
		t.Fatalf("readFirstLine: %v", err)
	}
	if line != "0:600:news\n" {
		t.Fatalf("line = %q", line)
	}
	// The remainder stays buffered for passthrough.
	buf := make([]byte, 32)
	n, _ := c.in().Read(buf)
	if string(buf[:n]) != "extra data" {
		t.Fatalf("remainder = %q", buf[:n])
	}
}

func TestReadFirstLineWithoutNewline(t *testing.T) {
	c := &command{stdin: strings.NewReader("0:600:news")}
	line, err := c.readFirstLine()
	if err != nil {
		t.Fatalf("readFirstLine: %v", err)
	}
	if line != "0:600:news" {
		t.Fatalf("line = %q", line)
	}
}

func TestReadFirstLineEmptyInputIsMisuse(t *testing.T) {
	c := &command{stdin: strings.NewReader("")}
	_, err := c.readFirstLine()
	if err == nil {
		t.Fatal("empty stdin accepted")
	}
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != codeMisuse {
		t.Fatalf("err = %v, want misuse", err)
	}
}
