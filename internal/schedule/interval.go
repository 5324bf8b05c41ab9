package schedule

import "sort"

// Conflicts reports whether cand overlaps any schedule in scheds owned
// by another process group. Entries with cand's own pgid are skipped,
// add overwrites those.
func Conflicts(cand *Schedule, scheds []*Schedule) bool {
	for _, s := range scheds {
		if s.Pgid == cand.Pgid {
			continue
		}
		if s.Start < cand.End() && s.End() > cand.Start {
			return true
		}
	}
	return false
}

// FindByPgid returns the schedule owned by pgid, or nil.
func FindByPgid(pgid int, scheds []*Schedule) *Schedule {
	for _, s := range scheds {
		if s.Pgid == pgid {
			return s
		}
	}
	return nil
}

// SortByStart orders scheds by start time ascending, in place.
func SortByStart(scheds []*Schedule) {
	sort.SliceStable(scheds, func(i, j int) bool {
		return scheds[i].Start < scheds[j].Start
	})
}

// Unoccupied enumerates the maximal gaps between the given schedules
// inside [begin, begin+rangeDur), ordered by start. Each gap becomes a
// fresh Schedule owned by pgid with the given caption. Zero-length gaps
// are never emitted.
func Unoccupied(scheds []*Schedule, begin, rangeDur int64, pgid int, caption string) []*Schedule {
	sorted := make([]*Schedule, len(scheds))
	copy(sorted, scheds)
	SortByStart(sorted)

	var gaps []*Schedule
	head := begin
	rangeEnd := begin + rangeDur

	for _, s := range sorted {
		if head > rangeEnd {
			return gaps
		}

		if s.Start > head {
			end := s.Start
			if end > rangeEnd {
				end = rangeEnd
			}
			if end > head {
				gaps = append(gaps, &Schedule{
					Pgid:     pgid,
					Start:    head,
					Duration: end - head,
					Caption:  caption,
				})
			}
		}

		if s.End() > head {
			head = s.End()
		}
	}

	if head < rangeEnd {
		gaps = append(gaps, &Schedule{
			Pgid:     pgid,
			Start:    head,
			Duration: rangeEnd - head,
			Caption:  caption,
		})
	}

	return gaps
}
