package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

func sec(courseNumber int, meetings ...coursecart.Meeting) coursecart.Section {
	return coursecart.Section{CourseNumber: courseNumber, CatalogNumber: "x", Meetings: meetings}
}

func mt(days, start, end string) coursecart.Meeting {
	return coursecart.Meeting{Days: days, StartTime: start, EndTime: end}
}

func numbers(sections []coursecart.Section) []int {
	out := []int{}
	for _, s := range sections {
		out = append(out, s.CourseNumber)
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	sched := Build(nil)

	require.Len(t, sched.Days, 5)
	for _, d := range coursecart.Weekdays {
		assert.NotNil(t, sched.Day(d))
		assert.Empty(t, sched.Day(d))
	}
	assert.NotNil(t, sched.Other)
	assert.Empty(t, sched.Other)
}

func TestBuild_OrdersMorningFirst(t *testing.T) {
	sched := Build([]coursecart.Section{
		sec(1, mt("Mo", "02:00 PM", "03:15 PM")),
		sec(2, mt("Mo", "11:00 AM", "11:50 AM")),
		sec(3, mt("Mo", "08:00 AM", "08:50 AM")),
		sec(4, mt("Mo", "12:30 PM", "01:45 PM")),
	})

	// "12:30 PM" sorts after "02:00 PM" as a string
	assert.Equal(t, []int{3, 2, 1, 4}, numbers(sched.Day(coursecart.Monday)))
}

func TestBuild_StableForEqualStarts(t *testing.T) {
	sched := Build([]coursecart.Section{
		sec(7, mt("Tu", "09:00 AM", "09:50 AM")),
		sec(5, mt("Tu", "09:00 AM", "10:15 AM")),
		sec(6, mt("Tu", "09:00 AM", "09:15 AM")),
	})

	assert.Equal(t, []int{7, 5, 6}, numbers(sched.Day(coursecart.Tuesday)))
}

func TestBuild_ClassifiesByFirstMeeting(t *testing.T) {
	sched := Build([]coursecart.Section{
		sec(1, mt("We", "10:00 AM", "10:50 AM")),
		sec(2, mt("Fr", "01:00 PM", "01:50 PM"), mt("We", "08:00 AM", "08:50 AM")),
	})

	assert.Equal(t, []int{1, 2}, numbers(sched.Day(coursecart.Wednesday)), "the PM first meeting places section 2 after every AM section")
	assert.Equal(t, []int{2}, numbers(sched.Day(coursecart.Friday)))
}

func TestBuild_PlacesOncePerDay(t *testing.T) {
	sched := Build([]coursecart.Section{
		sec(1, mt("MoWeFr", "10:00 AM", "10:50 AM"), mt("Mo", "03:00 PM", "04:50 PM")),
	})

	assert.Equal(t, []int{1}, numbers(sched.Day(coursecart.Monday)))
	assert.Equal(t, []int{1}, numbers(sched.Day(coursecart.Wednesday)))
	assert.Equal(t, []int{1}, numbers(sched.Day(coursecart.Friday)))
	assert.Empty(t, sched.Day(coursecart.Tuesday))
	assert.Empty(t, sched.Day(coursecart.Thursday))
}

func TestBuild_Other(t *testing.T) {
	sched := Build([]coursecart.Section{
		sec(1, mt("TBA", "", "")),
		sec(2),
		sec(3, mt("Th", "09:00 AM", "09:50 AM")),
		sec(4, mt("Sa", "09:00 AM", "09:50 AM")),
	})

	assert.Equal(t, []int{1, 2, 4}, numbers(sched.Other))
	assert.Equal(t, []int{3}, numbers(sched.Day(coursecart.Thursday)))
	for _, d := range coursecart.Weekdays {
		for _, s := range sched.Day(d) {
			assert.NotContains(t, []int{1, 2, 4}, s.CourseNumber)
		}
	}
}

func TestBuild_TwoSectionCart(t *testing.T) {
	cart := coursecart.Cart{}
	_, _ = cart.Add(coursecart.Section{CourseNumber: 1010, CatalogNumber: "1010", Meetings: []coursecart.Meeting{mt("MoWe", "05:00 PM", "06:15 PM")}})
	_, _ = cart.Add(coursecart.Section{CourseNumber: 2020, CatalogNumber: "2020", Meetings: []coursecart.Meeting{mt("Th", "09:30 AM", "10:45 AM")}})
	require.Len(t, cart.Sections, 2)

	sched := Build(cart.Sections)

	assert.Equal(t, []int{1010}, numbers(sched.Day(coursecart.Monday)))
	assert.Equal(t, []int{1010}, numbers(sched.Day(coursecart.Wednesday)))
	assert.Equal(t, []int{2020}, numbers(sched.Day(coursecart.Thursday)))
	assert.Empty(t, sched.Day(coursecart.Tuesday))
	assert.Empty(t, sched.Day(coursecart.Friday))
	assert.Empty(t, sched.Other)
}

func TestBuild_EverySectionPlaced(t *testing.T) {
	sections := []coursecart.Section{
		sec(1, mt("MoWe", "09:00 AM", "09:50 AM")),
		sec(2, mt("TuTh", "02:00 PM", "03:15 PM")),
		sec(3, mt("-", "", "")),
		sec(4, mt("Fr", "11:00 AM", "11:50 AM")),
	}
	sched := Build(sections)

	placed := make(map[int]bool)
	for _, s := range sched.Other {
		placed[s.CourseNumber] = true
	}
	for _, d := range coursecart.Weekdays {
		for _, s := range sched.Day(d) {
			placed[s.CourseNumber] = true
		}
	}
	assert.Len(t, placed, len(sections))
}
