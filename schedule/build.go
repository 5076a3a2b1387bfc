package schedule

import (
	"sort"
	"strings"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

// Schedule is a cart laid out by weekday. Sections in a day bucket are ordered by start time,
// morning sections first. Sections that cannot be placed on the week go to Other.
type Schedule struct {
	Days  map[coursecart.Day][]coursecart.Section `json:"days"`
	Other []coursecart.Section                    `json:"other"`
}

// Day returns the ordered sections meeting on d.
func (s Schedule) Day(d coursecart.Day) []coursecart.Section {
	return s.Days[d]
}

// Build lays out sections on the week.
//
// Sections are ordered by the raw start time of their first meeting, with sections whose first
// meeting starts in the morning ahead of the rest. Within each half the zero-padded "HH:MM"
// prefix makes string order chronological. Each section is then added to every weekday named
// by any of its meetings.
func Build(sections []coursecart.Section) Schedule {
	sched := Schedule{
		Days:  make(map[coursecart.Day][]coursecart.Section, len(coursecart.Weekdays)),
		Other: []coursecart.Section{},
	}
	for _, d := range coursecart.Weekdays {
		sched.Days[d] = []coursecart.Section{}
	}

	var am, pm []coursecart.Section
	for _, section := range sections {
		// a section without meetings has no first meeting to place it by
		if !section.WellFormed() || len(section.Meetings) == 0 {
			sched.Other = append(sched.Other, section)
			continue
		}

		if strings.Contains(section.Meetings[0].StartTime, "AM") {
			am = append(am, section)
		} else {
			pm = append(pm, section)
		}
	}

	sortByFirstStart(am)
	sortByFirstStart(pm)
	ordered := append(am, pm...)

	placed := make(map[coursecart.Day]map[int]bool, len(coursecart.Weekdays))
	for _, d := range coursecart.Weekdays {
		placed[d] = make(map[int]bool)
	}

	for _, section := range ordered {
		for _, m := range section.Meetings {
			for _, d := range coursecart.Weekdays {
				if !strings.Contains(m.Days, string(d)) || placed[d][section.CourseNumber] {
					continue
				}
				placed[d][section.CourseNumber] = true
				sched.Days[d] = append(sched.Days[d], section)
			}
		}
	}

	return sched
}

func sortByFirstStart(sections []coursecart.Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Meetings[0].StartTime < sections[j].Meetings[0].StartTime
	})
}
