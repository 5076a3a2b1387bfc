package luthers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

var _ coursecart.CatalogSource = Client{}

// Client reads subjects and sections from the Luther's List course API.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) Client {
	client := &http.Client{
		Timeout: timeout,
	}

	return Client{client, strings.TrimRight(baseURL, "/")}
}

type deptResponse struct {
	Subject string `json:"subject"`
}

func (c Client) Subjects(ctx context.Context) ([]coursecart.Subject, error) {
	var depts []deptResponse
	if err := c.get(ctx, "/api/deptlist", &depts); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	subjects := make([]coursecart.Subject, 0, len(depts))
	for _, dept := range depts {
		code := strings.TrimSpace(dept.Subject)
		if code == "" {
			continue
		}
		subjects = append(subjects, coursecart.Subject{Code: code, Name: code})
	}

	return subjects, nil
}

type sectionResponse struct {
	Instructor struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"instructor"`
	CourseNumber        int                  `json:"course_number"`
	SemesterCode        int                  `json:"semester_code"`
	CourseSection       looseString          `json:"course_section"`
	Subject             string               `json:"subject"`
	CatalogNumber       looseString          `json:"catalog_number"`
	Description         string               `json:"description"`
	Units               looseString          `json:"units"`
	Component           string               `json:"component"`
	ClassCapacity       int                  `json:"class_capacity"`
	WaitList            int                  `json:"wait_list"`
	WaitCap             int                  `json:"wait_cap"`
	EnrollmentTotal     int                  `json:"enrollment_total"`
	EnrollmentAvailable int                  `json:"enrollment_available"`
	Topic               string               `json:"topic"`
	Meetings            []coursecart.Meeting `json:"meetings"`
}

// Sections returns the sections offered under subject. Meeting times are normalized to the
// "HH:MM AM" layout; sections whose times cannot be normalized are skipped.
func (c Client) Sections(ctx context.Context, subject string) ([]coursecart.Section, error) {
	var raw []sectionResponse
	if err := c.get(ctx, "/api/dept/"+url.PathEscape(subject), &raw); err != nil {
		return nil, fmt.Errorf("failed to list sections of %s: %w", subject, err)
	}

	sections := make([]coursecart.Section, 0, len(raw))
	for _, r := range raw {
		section := r.toSection()

		if err := normalizeMeetings(section.Meetings); err != nil {
			log.Warn().Err(err).Str("section", section.String()).Msg("skipping section with unreadable meeting time")
			continue
		}
		if err := section.Validate(); err != nil {
			log.Warn().Err(err).Str("section", section.String()).Msg("skipping invalid section")
			continue
		}

		sections = append(sections, section)
	}

	return sections, nil
}

func (r sectionResponse) toSection() coursecart.Section {
	meetings := r.Meetings
	if meetings == nil {
		meetings = []coursecart.Meeting{}
	}

	return coursecart.Section{
		CourseNumber:        r.CourseNumber,
		SemesterCode:        r.SemesterCode,
		CourseSection:       string(r.CourseSection),
		Subject:             r.Subject,
		CatalogNumber:       string(r.CatalogNumber),
		Description:         r.Description,
		Units:               string(r.Units),
		Component:           r.Component,
		Topic:               r.Topic,
		Instructor:          coursecart.Instructor{Name: r.Instructor.Name, Email: r.Instructor.Email},
		ClassCapacity:       r.ClassCapacity,
		WaitList:            r.WaitList,
		WaitCap:             r.WaitCap,
		EnrollmentTotal:     r.EnrollmentTotal,
		EnrollmentAvailable: r.EnrollmentAvailable,
		Meetings:            meetings,
	}
}

func (c Client) get(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?format=json", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return coursecart.ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	err = json.NewDecoder(res.Body).Decode(into)
	if err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}

	return nil
}

// normalizeMeetings rewrites the API's 24 hour times in place. A meeting missing either
// time keeps both as they are.
func normalizeMeetings(meetings []coursecart.Meeting) error {
	for i := range meetings {
		m := &meetings[i]
		if m.StartTime == "" || m.EndTime == "" {
			continue
		}

		start, err := To12Hour(m.StartTime)
		if err != nil {
			return err
		}
		end, err := To12Hour(m.EndTime)
		if err != nil {
			return err
		}

		m.StartTime, m.EndTime = start, end
	}
	return nil
}

// To12Hour converts a time whose hour is at [0:2] and minute at [3:5], such as
// "14.00.00.000000-05:00", to "02:00 PM".
func To12Hour(s string) (string, error) {
	if len(s) < 5 {
		return "", fmt.Errorf("%w: %q", coursecart.ErrMalformedTime, s)
	}

	hour, err := strconv.Atoi(s[0:2])
	if err != nil || hour < 0 || hour > 23 || !isDigits(s[0:2]) {
		return "", fmt.Errorf("%w: invalid hour in %q", coursecart.ErrMalformedTime, s)
	}
	minute, err := strconv.Atoi(s[3:5])
	if err != nil || minute < 0 || minute > 59 || !isDigits(s[3:5]) {
		return "", fmt.Errorf("%w: invalid minute in %q", coursecart.ErrMalformedTime, s)
	}

	return time.Date(0, time.January, 1, hour, minute, 0, 0, time.UTC).Format("03:04 PM"), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = looseString(num.String())
	return nil
}
