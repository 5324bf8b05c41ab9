package logger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

func TestVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)
	log.Debug("visible", "k", "v")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug line missing: %q", buf.String())
	}
}

func TestQuietSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line leaked: %q", buf.String())
	}
	log.Error("surfaced")
	if !strings.Contains(buf.String(), "surfaced") {
		t.Fatalf("error line missing: %q", buf.String())
	}
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tm.log")
	w := FileWriter(path)

	l, ok := w.(*lj.Logger)
	if !ok {
		t.Fatalf("writer is %T, not lumberjack", w)
	}
	if l.Filename != path || l.MaxSize != DefaultMaxSizeMB {
		t.Fatalf("unexpected writer config: %+v", l)
	}

	if _, err := w.Write([]byte("line\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
