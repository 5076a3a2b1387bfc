package coursecart

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrMalformedTime = errors.New("malformed meeting time")

// Day is a two-letter weekday code as used in a meeting's days field.
type Day string

const (
	Monday    Day = "Mo"
	Tuesday   Day = "Tu"
	Wednesday Day = "We"
	Thursday  Day = "Th"
	Friday    Day = "Fr"
)

// Weekdays in display order.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

func (d Day) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday:
		return true
	}
	return false
}

// Meeting is one recurring time slot of a section.
// StartTime and EndTime use the "HH:MM AM" layout.
type Meeting struct {
	Days                string `json:"days"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	FacilityDescription string `json:"facility_description"`
}

// DayCodes splits Days into its two-letter chunks, left to right.
// A trailing odd character is dropped.
func (m Meeting) DayCodes() []Day {
	days := make([]Day, 0, len(m.Days)/2)
	for i := 0; i+2 <= len(m.Days); i += 2 {
		days = append(days, Day(m.Days[i:i+2]))
	}
	return days
}

// WellFormed reports whether Days is a non-empty, even-length run of valid day codes.
func (m Meeting) WellFormed() bool {
	if len(m.Days) < 2 || len(m.Days)%2 != 0 {
		return false
	}
	for _, d := range m.DayCodes() {
		if !d.Valid() {
			return false
		}
	}
	return true
}

// Span returns the meeting's start and end in minutes since midnight.
func (m Meeting) Span() (start, end int, err error) {
	start, err = ConvertToMinutes(m.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	end, err = ConvertToMinutes(m.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// WellFormed reports whether every meeting of the section is well formed.
// A section without meetings is well formed.
func (s Section) WellFormed() bool {
	for _, m := range s.Meetings {
		if !m.WellFormed() {
			return false
		}
	}
	return true
}

// Validate checks that a well formed section carries parseable meeting times.
// Sections with a malformed days field are not compared by time, so their times are not checked.
func (s Section) Validate() error {
	if !s.WellFormed() {
		return nil
	}
	for i, m := range s.Meetings {
		if _, _, err := m.Span(); err != nil {
			return fmt.Errorf("section %d meeting %d: %w", s.CourseNumber, i, err)
		}
	}
	return nil
}

// ConvertToMinutes converts a "HH:MM AM" or "HH:MM PM" time to minutes since midnight.
// 12:00 AM is 0 and 12:00 PM is 720.
func ConvertToMinutes(s string) (int, error) {
	if len(s) != 8 || s[2] != ':' || s[5] != ' ' {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}

	hour, err := parseDigits(s[0:2])
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("%w: invalid hour in %q", ErrMalformedTime, s)
	}
	minute, err := parseDigits(s[3:5])
	if err != nil || minute > 59 {
		return 0, fmt.Errorf("%w: invalid minute in %q", ErrMalformedTime, s)
	}

	minutes := minute + 60*(hour%12)
	switch s[6:] {
	case "AM":
	case "PM":
		minutes += 12 * 60
	default:
		return 0, fmt.Errorf("%w: expected AM or PM in %q", ErrMalformedTime, s)
	}

	return minutes, nil
}

// parseDigits parses a fixed-width run of ASCII digits, rejecting the signs strconv accepts.
func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.Atoi(s)
}
