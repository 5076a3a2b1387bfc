package coursecart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain types are defined in this file

var (
	ErrNotFound       = errors.New("not found")
	ErrNotFriends     = errors.New("users are not friends")
	ErrForbidden      = errors.New("permission denied")
	ErrInvalidRequest = errors.New("invalid request")
)

type Subject struct {
	Code string `json:"subject"`
	Name string `json:"name"`
}

func (s Subject) String() string {
	if s.Name == "" || s.Name == s.Code {
		return s.Code
	}
	return fmt.Sprintf("%s - %s", s.Code, s.Name)
}

type Instructor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Section is one offered instance of a catalog course.
type Section struct {
	CourseNumber        int        `json:"course_number"`
	SemesterCode        int        `json:"semester_code"`
	CourseSection       string     `json:"course_section"`
	Subject             string     `json:"subject"`
	CatalogNumber       string     `json:"catalog_number"`
	Description         string     `json:"description"`
	Units               string     `json:"units"`
	Component           string     `json:"component"`
	Topic               string     `json:"topic"`
	Instructor          Instructor `json:"instructor"`
	ClassCapacity       int        `json:"class_capacity"`
	WaitList            int        `json:"wait_list"`
	WaitCap             int        `json:"wait_cap"`
	EnrollmentTotal     int        `json:"enrollment_total"`
	EnrollmentAvailable int        `json:"enrollment_available"`
	Meetings            []Meeting  `json:"meetings"`
}

func (s Section) String() string {
	return fmt.Sprintf("%s %s-%s (%d)", s.Subject, s.CatalogNumber, s.CourseSection, s.CourseNumber)
}

type Review struct {
	Subject       string `json:"subject"`
	CatalogNumber string `json:"catalog_number"`
	Text          string `json:"review_text"`
}

func (r Review) Matches(subject, catalogNumber string) bool {
	return strings.EqualFold(r.Subject, subject) && r.CatalogNumber == catalogNumber
}

// Letter of a Grade whose course has no recorded average
const GradeNotFound = "GPA NOT FOUND"

// Grade is the historical GPA of a catalog course.
type Grade struct {
	Average string `json:"average"`
	Letter  string `json:"letter"`
	Found   bool   `json:"found"`
}

func (g Grade) String() string {
	return fmt.Sprintf("%s (%s)", g.Average, g.Letter)
}

type Profile struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	GradYear  int    `json:"grad_year"`
	Major     string `json:"major"`
	Email     string `json:"email"`
}

type Comment struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type FriendRequest struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	CreatedAt time.Time `json:"created_at"`
}

func (r FriendRequest) String() string {
	return fmt.Sprintf("%s->%s", r.Sender, r.Receiver)
}

// Source of subjects and sections, usually the remote course API
type CatalogSource interface {
	Subjects(context.Context) ([]Subject, error)
	Sections(ctx context.Context, subject string) ([]Section, error)
}

type GradeSource interface {
	Lookup(ctx context.Context, subject, catalogNumber string) (Grade, error)
}

type Notification struct {
	To      string
	Subject string
	Body    string
}

// A type that can deliver a Notification to a user
type Notifier interface {
	Notify(context.Context, Notification) error
}

type CatalogRepository interface {
	UpsertSubjects(context.Context, []Subject) error
	ListSubjects(context.Context) ([]Subject, error)
	UpsertSections(context.Context, []Section) error
	GetSection(ctx context.Context, courseNumber int) (Section, error)
	ListSections(ctx context.Context, subject string) ([]Section, error)
	AddReview(context.Context, Review) error
	ListReviews(ctx context.Context, subject, catalogNumber string) ([]Review, error)
}

// CartAdmit decides whether a section may join a cart holding the given sections.
// It may run more than once if the storage retries the transaction.
type CartAdmit func(cart []Section) bool

type CartRepository interface {
	// GetCart returns the sections in the user's cart in insertion order.
	GetCart(ctx context.Context, user string) ([]Section, error)
	// AddToCart appends the section to the user's cart if admit accepts the cart as stored. Reading,
	// admitting and writing happen in one storage transaction. A nil admit accepts any cart.
	AddToCart(ctx context.Context, user string, courseNumber int, admit CartAdmit) (added bool, err error)
	RemoveFromCart(ctx context.Context, user string, courseNumber int) error
}

type SocialRepository interface {
	GetProfile(ctx context.Context, user string) (Profile, error)
	SaveProfile(context.Context, Profile) error
	SearchProfiles(ctx context.Context, query string) ([]Profile, error)

	CreateFriendRequest(context.Context, FriendRequest) error
	GetFriendRequest(ctx context.Context, sender, receiver string) (FriendRequest, error)
	ListFriendRequests(ctx context.Context, user string) (incoming, outgoing []FriendRequest, err error)
	DeleteFriendRequest(ctx context.Context, sender, receiver string) error
	// AcceptFriendRequest removes the request and records the friendship atomically.
	AcceptFriendRequest(ctx context.Context, sender, receiver string) error
	RemoveFriendship(ctx context.Context, a, b string) error
	ListFriends(ctx context.Context, user string) ([]string, error)

	AddComment(context.Context, Comment) (Comment, error)
	GetComment(ctx context.Context, id string) (Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, receiver string) ([]Comment, error)
}

type Repository interface {
	CatalogRepository
	CartRepository
	SocialRepository
	Close() error
}
