package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ll0s0ll/TimeManager/internal/schedule"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return &Store{
		Name:  "/shm_test",
		Dir:   t.TempDir(),
		Probe: func(int) bool { return true },
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := newTestStore(t)

	want := []*schedule.Schedule{
		{Pgid: 100, Start: 1000, Duration: 600, Caption: "first"},
		{Pgid: 200, Lock: true, Terminator: 321, Start: 2000, Duration: 60, Caption: "second"},
	}
	if err := st.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d schedules, want %d", len(got), len(want))
	}
	for i := range want {
		if *got[i] != *want[i] {
			t.Errorf("schedule %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadCreatesSegment(t *testing.T) {
	st := newTestStore(t)

	scheds, err := st.Load()
	if err != nil {
		t.Fatalf("Load on absent segment: %v", err)
	}
	if len(scheds) != 0 {
		t.Fatalf("fresh segment not empty: %+v", scheds)
	}

	fi, err := os.Stat(filepath.Join(st.Dir, "shm_test"))
	if err != nil {
		t.Fatalf("segment not created: %v", err)
	}
	if fi.Size() != SegmentSize {
		t.Fatalf("segment size %d, want %d", fi.Size(), SegmentSize)
	}
}

func TestLoadDropsDeadOwners(t *testing.T) {
	st := newTestStore(t)
	if err := st.Save([]*schedule.Schedule{
		{Pgid: 100, Start: 1000, Duration: 10, Caption: "alive"},
		{Pgid: 200, Start: 2000, Duration: 10, Caption: "dead"},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st.Probe = func(pgid int) bool { return pgid == 100 }

	scheds, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(scheds) != 1 || scheds[0].Pgid != 100 {
		t.Fatalf("dead owner survived: %+v", scheds)
	}

	// The erasure becomes persistent on the next save.
	if err := st.Save(scheds); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st.Probe = func(int) bool { return true }
	scheds, err = st.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(scheds) != 1 {
		t.Fatalf("erasure not persistent: %+v", scheds)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	st := newTestStore(t)
	if err := st.Save(nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw := "100:0:0:1000:600:good\nthis is not a record\n200:0:0:2000:60:also"
	if err := os.WriteFile(filepath.Join(st.Dir, "shm_test"), []byte(raw), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	scheds, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(scheds) != 2 {
		t.Fatalf("loaded %d schedules, want the 2 well-formed ones: %+v", len(scheds), scheds)
	}
	if scheds[0].Caption != "good" || scheds[1].Caption != "also" {
		t.Fatalf("wrong survivors: %+v", scheds)
	}
}

func TestSaveRejectsOversizedContent(t *testing.T) {
	st := newTestStore(t)

	big := strings.Repeat("x", schedule.MaxCaptionLen-1)
	var scheds []*schedule.Schedule
	for i := 1; i <= 300; i++ {
		scheds = append(scheds, &schedule.Schedule{Pgid: i, Start: 1, Duration: 1, Caption: big})
	}
	if err := st.Save(scheds); err == nil {
		t.Fatal("Save accepted content larger than the segment")
	}
}

func TestUnlink(t *testing.T) {
	st := newTestStore(t)
	if err := st.Save(nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Unlink(); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if _, err := os.Stat(filepath.Join(st.Dir, "shm_test")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("segment still present: %v", err)
	}
	// Absence is not an error.
	if err := st.Unlink(); err != nil {
		t.Fatalf("second Unlink: %v", err)
	}
}
