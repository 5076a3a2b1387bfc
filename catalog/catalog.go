package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

type Service struct {
	source      coursecart.CatalogSource
	grades      coursecart.GradeSource
	repo        coursecart.CatalogRepository
	concurrency int
}

func NewService(s coursecart.CatalogSource, g coursecart.GradeSource, r coursecart.CatalogRepository, concurrency int) Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return Service{s, g, r, concurrency}
}

// Course is every section sharing a title, in the order the course API lists them.
type Course struct {
	Title    string               `json:"title"`
	Sections []coursecart.Section `json:"sections"`
}

type CourseDetail struct {
	Section coursecart.Section  `json:"section"`
	Grade   coursecart.Grade    `json:"grade"`
	Reviews []coursecart.Review `json:"reviews"`
}

// Filter narrows a subject's sections. Empty fields match everything; the rest are
// case-insensitive substring matches.
type Filter struct {
	Title         string `json:"title"`
	Instructor    string `json:"instructor"`
	CatalogNumber string `json:"catalog_number"`
	Units         string `json:"units"`
	Component     string `json:"component"`
}

func (f Filter) Matches(s coursecart.Section) bool {
	return containsFold(s.Description, f.Title) &&
		containsFold(s.Instructor.Name, f.Instructor) &&
		containsFold(s.CatalogNumber, f.CatalogNumber) &&
		containsFold(s.Units, f.Units) &&
		containsFold(s.Component, f.Component)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Subjects refreshes the subject list from the course API and returns the stored subjects.
// If the API is unreachable the stored list is served as is. A non-empty search keeps only
// subjects whose code or name contains it.
func (s Service) Subjects(ctx context.Context, search string) ([]coursecart.Subject, error) {
	if _, err := s.refreshSubjects(ctx); err != nil {
		log.Warn().Err(err).Msg("serving stored subjects")
	}

	subjects, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	if search == "" {
		return subjects, nil
	}

	filtered := []coursecart.Subject{}
	for _, subject := range subjects {
		if containsFold(subject.Code, search) || containsFold(subject.Name, search) {
			filtered = append(filtered, subject)
		}
	}

	return filtered, nil
}

func (s Service) refreshSubjects(ctx context.Context) ([]coursecart.Subject, error) {
	subjects, err := s.source.Subjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subjects: %w", err)
	}

	if err := s.repo.UpsertSubjects(ctx, subjects); err != nil {
		return nil, fmt.Errorf("failed to store subjects: %w", err)
	}

	return subjects, nil
}

// CoursesBySubject refreshes a subject's sections and groups them by course title.
func (s Service) CoursesBySubject(ctx context.Context, subject string) ([]Course, error) {
	subject, err := s.knownSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	sections, err := s.refreshSections(ctx, subject)
	if err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("serving stored sections")

		sections, err = s.repo.ListSections(ctx, subject)
		if err != nil {
			return nil, fmt.Errorf("failed to list sections of %s: %w", subject, err)
		}
	}

	return groupByTitle(sections), nil
}

func (s Service) refreshSections(ctx context.Context, subject string) ([]coursecart.Section, error) {
	sections, err := s.source.Sections(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sections: %w", err)
	}

	if err := s.repo.UpsertSections(ctx, sections); err != nil {
		return nil, fmt.Errorf("failed to store sections: %w", err)
	}

	return sections, nil
}

func groupByTitle(sections []coursecart.Section) []Course {
	courses := []Course{}
	index := make(map[string]int)

	for _, section := range sections {
		i, ok := index[section.Description]
		if !ok {
			i = len(courses)
			index[section.Description] = i
			courses = append(courses, Course{Title: section.Description})
		}
		courses[i].Sections = append(courses[i].Sections, section)
	}

	return courses
}

// knownSubject resolves subject against the stored subjects, ignoring case. The subject list is
// refreshed once before giving up.
func (s Service) knownSubject(ctx context.Context, subject string) (string, error) {
	find := func() (string, bool, error) {
		subjects, err := s.repo.ListSubjects(ctx)
		if err != nil {
			return "", false, fmt.Errorf("failed to list subjects: %w", err)
		}
		for _, known := range subjects {
			if strings.EqualFold(known.Code, subject) {
				return known.Code, true, nil
			}
		}
		return "", false, nil
	}

	code, ok, err := find()
	if err != nil || ok {
		return code, err
	}

	if _, err := s.refreshSubjects(ctx); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("could not refresh subjects")
	}

	code, ok, err = find()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("subject %s: %w", subject, coursecart.ErrNotFound)
	}

	return code, nil
}

// Course returns one section with its historical grade and the reviews left on its course.
func (s Service) Course(ctx context.Context, subject string, courseNumber int) (CourseDetail, error) {
	subject, err := s.knownSubject(ctx, subject)
	if err != nil {
		return CourseDetail{}, err
	}

	section, err := s.repo.GetSection(ctx, courseNumber)
	if errors.Is(err, coursecart.ErrNotFound) {
		if _, refreshErr := s.refreshSections(ctx, subject); refreshErr != nil {
			log.Warn().Err(refreshErr).Str("subject", subject).Msg("could not refresh sections")
		}
		section, err = s.repo.GetSection(ctx, courseNumber)
	}
	if err != nil {
		return CourseDetail{}, fmt.Errorf("failed to get section %d: %w", courseNumber, err)
	}

	if !strings.EqualFold(section.Subject, subject) {
		return CourseDetail{}, fmt.Errorf("section %d is not offered by %s: %w", courseNumber, subject, coursecart.ErrNotFound)
	}

	grade, err := s.grades.Lookup(ctx, section.Subject, section.CatalogNumber)
	if err != nil {
		log.Warn().Err(err).Str("section", section.String()).Msg("grade lookup failed")
		grade = coursecart.Grade{Average: "0", Letter: coursecart.GradeNotFound}
	}

	reviews, err := s.repo.ListReviews(ctx, section.Subject, section.CatalogNumber)
	if err != nil {
		return CourseDetail{}, fmt.Errorf("failed to list reviews of %s: %w", section, err)
	}
	if reviews == nil {
		reviews = []coursecart.Review{}
	}

	return CourseDetail{Section: section, Grade: grade, Reviews: reviews}, nil
}

// Search returns the stored sections of subject matching filter.
func (s Service) Search(ctx context.Context, subject string, filter Filter) ([]coursecart.Section, error) {
	subject, err := s.knownSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	sections, err := s.repo.ListSections(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections of %s: %w", subject, err)
	}

	results := []coursecart.Section{}
	for _, section := range sections {
		if filter.Matches(section) {
			results = append(results, section)
		}
	}

	return results, nil
}

func (s Service) SubmitReview(ctx context.Context, review coursecart.Review) error {
	review.Subject = strings.ToUpper(strings.TrimSpace(review.Subject))
	review.CatalogNumber = strings.TrimSpace(review.CatalogNumber)
	review.Text = strings.TrimSpace(review.Text)

	if review.Subject == "" || review.CatalogNumber == "" || review.Text == "" {
		return fmt.Errorf("%w: review needs a subject, catalog number and text", coursecart.ErrInvalidRequest)
	}

	if err := s.repo.AddReview(ctx, review); err != nil {
		return fmt.Errorf("failed to add review for %s %s: %w", review.Subject, review.CatalogNumber, err)
	}

	log.Info().Str("subject", review.Subject).Str("catalog_number", review.CatalogNumber).Msg("review submitted")
	return nil
}

// Sync refreshes every subject and its sections from the course API. Subjects are fetched
// concurrently; a failing subject does not stop the others.
func (s Service) Sync(ctx context.Context) error {
	// Sync steps
	// 1. Refresh the subject list
	// 2. Refresh each subject's sections, a bounded number at a time
	// 3. Report how many subjects could not be refreshed

	subjects, err := s.refreshSubjects(ctx)
	if err != nil {
		return err
	}

	if len(subjects) == 0 {
		log.Info().Msg("No subjects to sync")
		return nil
	}

	var failed, synced atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, subject := range subjects {
		subject := subject
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			sections, err := s.refreshSections(gctx, subject.Code)
			if err != nil {
				failed.Add(1)
				log.Warn().Err(err).Str("subject", subject.Code).Msg("subject sync failed")
				return nil
			}

			synced.Add(int64(len(sections)))
			log.Debug().Str("subject", subject.Code).Int("sections", len(sections)).Msg("subject synced")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("sync interrupted: %w", err)
	}

	log.Info().Int("subjects", len(subjects)).Int64("sections", synced.Load()).Int64("failed", failed.Load()).Msg("catalog sync complete")

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("failed to sync %d of %d subjects", n, len(subjects))
	}

	return nil
}
