package coursecart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12:00 AM", 0},
		{"12:00 PM", 720},
		{"01:30 PM", 810},
		{"09:30 AM", 570},
		{"11:59 PM", 1439},
		{"12:45 AM", 45},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ConvertToMinutes(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertToMinutes_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"5:00 PM",
		"17:00 PM",
		"00:15 AM",
		"05:60 PM",
		"05:00 XM",
		"05:00PM",
		"05-00 PM",
		"+5:00 PM",
		"05:00 pm",
		"05:00 PM ",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ConvertToMinutes(in)
			assert.ErrorIs(t, err, ErrMalformedTime)
		})
	}
}

func TestMeetingWellFormed(t *testing.T) {
	tests := []struct {
		days string
		want bool
	}{
		{"MoWe", true},
		{"TuTh", true},
		{"MoTuWeThFr", true},
		{"Fr", true},
		{"", false},
		{"M", false},
		{"MoW", false},
		{"Sa", false},
		{"MoSa", false},
		{"-", false},
		{"TBA", false},
		{"mowe", false},
	}

	for _, tt := range tests {
		t.Run(tt.days, func(t *testing.T) {
			assert.Equal(t, tt.want, Meeting{Days: tt.days}.WellFormed())
		})
	}
}

func TestSectionWellFormed(t *testing.T) {
	assert.True(t, Section{}.WellFormed(), "no meetings is vacuously well formed")
	assert.True(t, section("1010", meeting("MoWe", "05:00 PM", "06:15 PM")).WellFormed())
	assert.False(t, section("1010",
		meeting("MoWe", "05:00 PM", "06:15 PM"),
		meeting("Sa", "10:00 AM", "11:00 AM"),
	).WellFormed(), "one malformed meeting taints the section")
}

func TestSectionValidate(t *testing.T) {
	assert.NoError(t, section("1010", meeting("MoWe", "05:00 PM", "06:15 PM")).Validate())
	assert.NoError(t, section("1010", meeting("-", "", "")).Validate(), "malformed days are not time checked")
	assert.NoError(t, Section{}.Validate())

	err := section("1010", meeting("MoWe", "", "")).Validate()
	assert.ErrorIs(t, err, ErrMalformedTime)

	err = section("1010", meeting("Th", "09:30 AM", "10:45")).Validate()
	assert.ErrorIs(t, err, ErrMalformedTime)
}

func TestDayCodes(t *testing.T) {
	assert.Equal(t, []Day{Monday, Wednesday}, Meeting{Days: "MoWe"}.DayCodes())
	assert.Equal(t, []Day{Tuesday}, Meeting{Days: "TuT"}.DayCodes())
	assert.Empty(t, Meeting{Days: ""}.DayCodes())
}

var courseNumbers = 10000

func section(catalog string, meetings ...Meeting) Section {
	courseNumbers++
	return Section{
		CourseNumber:  courseNumbers,
		Subject:       "CS",
		CatalogNumber: catalog,
		CourseSection: "001",
		Meetings:      meetings,
	}
}

func meeting(days, start, end string) Meeting {
	return Meeting{Days: days, StartTime: start, EndTime: end, FacilityDescription: "Olsson Hall 009"}
}
