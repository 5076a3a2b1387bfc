package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/config"
	"github.com/jacobmichels/Course-Cart-Go/repository"
)

var errUnavailable = errors.New("course api unavailable")

type fakeSource struct {
	mu       sync.Mutex
	down     bool
	subjects []coursecart.Subject
	sections map[string][]coursecart.Section
	calls    map[string]int
}

func (f *fakeSource) Subjects(ctx context.Context) ([]coursecart.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errUnavailable
	}
	return f.subjects, nil
}

func (f *fakeSource) Sections(ctx context.Context, subject string) ([]coursecart.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[subject]++
	if f.down {
		return nil, errUnavailable
	}
	sections, ok := f.sections[subject]
	if !ok {
		return nil, coursecart.ErrNotFound
	}
	return sections, nil
}

type fakeGrades map[string]coursecart.Grade

func (f fakeGrades) Lookup(ctx context.Context, subject, catalogNumber string) (coursecart.Grade, error) {
	grade, ok := f[subject+catalogNumber]
	if !ok {
		return coursecart.Grade{}, errUnavailable
	}
	return grade, nil
}

func section(courseNumber int, subject, catalog, title, instructor, component string) coursecart.Section {
	return coursecart.Section{
		CourseNumber:  courseNumber,
		Subject:       subject,
		CatalogNumber: catalog,
		Description:   title,
		Units:         "3",
		Component:     component,
		Instructor:    coursecart.Instructor{Name: instructor},
		Meetings:      []coursecart.Meeting{},
	}
}

func newFixture(t *testing.T) (Service, *fakeSource, coursecart.Repository) {
	t.Helper()

	repo, err := repository.New(context.Background(), config.Database{Type: "sqlite", SQLite: config.SQLite{ConnectionString: filepath.Join(t.TempDir(), "catalog.db")}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	source := &fakeSource{
		subjects: []coursecart.Subject{{Code: "CS", Name: "CS"}, {Code: "MATH", Name: "MATH"}},
		sections: map[string][]coursecart.Section{
			"CS": {
				section(1, "CS", "2150", "Program and Data Representation", "Ada Lovelace", "LEC"),
				section(2, "CS", "3140", "Software Development", "Grace Hopper", "LEC"),
				section(3, "CS", "2150", "Program and Data Representation", "Staff", "LAB"),
			},
			"MATH": {
				section(4, "MATH", "3100", "Probability", "Emmy Noether", "LEC"),
			},
		},
	}
	grades := fakeGrades{"CS2150": {Average: "3.1", Letter: "B+", Found: true}}

	return NewService(source, grades, repo, 2), source, repo
}

func TestSubjects(t *testing.T) {
	svc, source, _ := newFixture(t)
	ctx := context.Background()

	subjects, err := svc.Subjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, subjects, 2)

	subjects, err = svc.Subjects(ctx, "ma")
	require.NoError(t, err)
	assert.Equal(t, []coursecart.Subject{{Code: "MATH", Name: "MATH"}}, subjects)

	source.down = true
	subjects, err = svc.Subjects(ctx, "")
	require.NoError(t, err, "stored subjects are served while the api is down")
	assert.Len(t, subjects, 2)

	subjects, err = svc.Subjects(ctx, "zzz")
	require.NoError(t, err)
	assert.NotNil(t, subjects)
	assert.Empty(t, subjects)
}

func TestCoursesBySubject(t *testing.T) {
	svc, source, _ := newFixture(t)
	ctx := context.Background()

	courses, err := svc.CoursesBySubject(ctx, "cs")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Program and Data Representation", courses[0].Title)
	assert.Len(t, courses[0].Sections, 2)
	assert.Equal(t, 1, courses[0].Sections[0].CourseNumber)
	assert.Equal(t, 3, courses[0].Sections[1].CourseNumber)
	assert.Equal(t, "Software Development", courses[1].Title)

	source.down = true
	courses, err = svc.CoursesBySubject(ctx, "CS")
	require.NoError(t, err)
	assert.Len(t, courses, 2, "stored sections are served while the api is down")

	_, err = svc.CoursesBySubject(ctx, "HIST")
	assert.ErrorIs(t, err, coursecart.ErrNotFound)
}

func TestCourse(t *testing.T) {
	svc, _, repo := newFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SubmitReview(ctx, coursecart.Review{Subject: "cs", CatalogNumber: "2150", Text: "  lots of assembly  "}))

	detail, err := svc.Course(ctx, "CS", 1)
	require.NoError(t, err, "missing sections are fetched on demand")
	assert.Equal(t, "Program and Data Representation", detail.Section.Description)
	assert.Equal(t, "3.1 (B+)", detail.Grade.String())
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "lots of assembly", detail.Reviews[0].Text)

	detail, err = svc.Course(ctx, "CS", 2)
	require.NoError(t, err)
	assert.False(t, detail.Grade.Found)
	assert.Equal(t, coursecart.GradeNotFound, detail.Grade.Letter)
	assert.NotNil(t, detail.Reviews)

	_, err = svc.Course(ctx, "MATH", 1)
	assert.ErrorIs(t, err, coursecart.ErrNotFound, "section belongs to another subject")

	_, err = svc.Course(ctx, "CS", 404)
	assert.ErrorIs(t, err, coursecart.ErrNotFound)

	stored, err := repo.ListSections(ctx, "CS")
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestSearch(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	_, err := svc.CoursesBySubject(ctx, "CS")
	require.NoError(t, err)

	results, err := svc.Search(ctx, "CS", Filter{})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = svc.Search(ctx, "CS", Filter{Title: "data", Component: "lec"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].CourseNumber)

	results, err = svc.Search(ctx, "CS", Filter{Instructor: "hopper", CatalogNumber: "31"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].CourseNumber)

	results, err = svc.Search(ctx, "CS", Filter{Units: "4"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSubmitReview_Invalid(t *testing.T) {
	svc, _, _ := newFixture(t)

	err := svc.SubmitReview(context.Background(), coursecart.Review{Subject: "CS", CatalogNumber: "2150", Text: "   "})
	assert.ErrorIs(t, err, coursecart.ErrInvalidRequest)
}

func TestSync(t *testing.T) {
	svc, source, repo := newFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Sync(ctx))
	assert.Equal(t, 1, source.calls["CS"])
	assert.Equal(t, 1, source.calls["MATH"])

	math, err := repo.ListSections(ctx, "MATH")
	require.NoError(t, err)
	assert.Len(t, math, 1)

	source.subjects = append(source.subjects, coursecart.Subject{Code: "HIST", Name: "HIST"})
	err = svc.Sync(ctx)
	assert.Error(t, err, "a subject the api cannot serve is reported")

	cs, err := repo.ListSections(ctx, "CS")
	require.NoError(t, err)
	assert.Len(t, cs, 3, "other subjects still sync")

	source.down = true
	assert.ErrorIs(t, svc.Sync(ctx), errUnavailable)
}
