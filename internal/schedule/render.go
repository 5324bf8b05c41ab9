package schedule

import (
	"fmt"
	"strings"
	"time"
)

// HumanString renders s for people, "01/29 10:14-11:14 (1h) caption".
// Zero-valued duration units are omitted.
func HumanString(s *Schedule) string {
	var b strings.Builder

	start := time.Unix(s.Start, 0)
	end := time.Unix(s.End(), 0)
	fmt.Fprintf(&b, "%s-%s", start.Format("01/02 15:04"), end.Format("15:04"))

	b.WriteString(" (")
	rem := s.Duration
	if h := rem / 3600; h != 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	rem %= 3600
	if m := rem / 60; m != 0 {
		fmt.Fprintf(&b, "%dm", m)
	}
	if sec := rem % 60; sec != 0 {
		fmt.Fprintf(&b, "%ds", sec)
	}
	b.WriteString(")")

	fmt.Fprintf(&b, " %s", s.Caption)
	return b.String()
}
