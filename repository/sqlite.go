package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/config"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

var _ coursecart.Repository = SQLiteRepository{}

type SQLiteRepository struct {
	db  *sql.DB
	cfg config.SQLite
}

// creates a new repository backed by sqlite
// returns an error if the connection cannot be established, if a ping fails or if migrations fail
func newSQLiteRepository(ctx context.Context, cfg config.SQLite) (SQLiteRepository, error) {
	if dir := filepath.Dir(cfg.ConnectionString); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return SQLiteRepository{}, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// open connection
	db, err := sql.Open("sqlite", sqliteDSN(cfg.ConnectionString))
	if err != nil {
		return SQLiteRepository{}, fmt.Errorf("failed to open connection to sqlite: %w", err)
	}

	// sqlite is a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// check connection
	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return SQLiteRepository{}, fmt.Errorf("failed to ping db: %w", err)
	}

	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return SQLiteRepository{}, err
	}

	return SQLiteRepository{db, cfg}, nil
}

// sqliteDSN sets the per-connection pragmas and makes every transaction take the write lock when it
// begins, so a read-check-write in one transaction cannot interleave with another process.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

func migrateSQLite(db *sql.DB) error {
	source, err := iofs.New(sqliteMigrations, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to execute migrations: %w", err)
	}

	return nil
}

func (r SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r SQLiteRepository) UpsertSubjects(ctx context.Context, subjects []coursecart.Subject) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, subject := range subjects {
		_, err := tx.ExecContext(ctx, "INSERT INTO subjects (code, name) VALUES ($1, $2) ON CONFLICT(code) DO UPDATE SET name=excluded.name", subject.Code, subject.Name)
		if err != nil {
			return fmt.Errorf("failed to upsert subject %s: %w", subject.Code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r SQLiteRepository) ListSubjects(ctx context.Context) ([]coursecart.Subject, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT code, name FROM subjects ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subjects from the db: %w", err)
	}

	var subjects []coursecart.Subject

	defer rows.Close()
	for rows.Next() {
		var subject coursecart.Subject

		if err := rows.Scan(&subject.Code, &subject.Name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return subjects, nil
}

const sectionColumns = `sections.course_number, sections.semester_code, sections.course_section, sections.subject,
	sections.catalog_number, sections.description, sections.units, sections.component, sections.topic,
	sections.instructor_name, sections.instructor_email, sections.class_capacity, sections.wait_list,
	sections.wait_cap, sections.enrollment_total, sections.enrollment_available, sections.meetings`

// insert or refresh sections, keyed by course number
func (r SQLiteRepository) UpsertSections(ctx context.Context, sections []coursecart.Section) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, section := range sections {
		if err := persistSection(ctx, tx, section); err != nil {
			return fmt.Errorf("failed to persist section %s: %w", section, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func persistSection(txCtx context.Context, tx *sql.Tx, section coursecart.Section) error {
	meetings := section.Meetings
	if meetings == nil {
		meetings = []coursecart.Meeting{}
	}
	encoded, err := json.Marshal(meetings)
	if err != nil {
		return fmt.Errorf("failed to encode meetings: %w", err)
	}

	_, err = tx.ExecContext(txCtx, `INSERT INTO sections (course_number, semester_code, course_section, subject, catalog_number,
		description, units, component, topic, instructor_name, instructor_email, class_capacity, wait_list, wait_cap,
		enrollment_total, enrollment_available, meetings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT(course_number) DO UPDATE SET
			semester_code=excluded.semester_code,
			course_section=excluded.course_section,
			subject=excluded.subject,
			catalog_number=excluded.catalog_number,
			description=excluded.description,
			units=excluded.units,
			component=excluded.component,
			topic=excluded.topic,
			instructor_name=excluded.instructor_name,
			instructor_email=excluded.instructor_email,
			class_capacity=excluded.class_capacity,
			wait_list=excluded.wait_list,
			wait_cap=excluded.wait_cap,
			enrollment_total=excluded.enrollment_total,
			enrollment_available=excluded.enrollment_available,
			meetings=excluded.meetings`,
		section.CourseNumber, section.SemesterCode, section.CourseSection, section.Subject, section.CatalogNumber,
		section.Description, section.Units, section.Component, section.Topic, section.Instructor.Name,
		section.Instructor.Email, section.ClassCapacity, section.WaitList, section.WaitCap, section.EnrollmentTotal,
		section.EnrollmentAvailable, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("upsert statement failed: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSection(row rowScanner) (coursecart.Section, error) {
	var section coursecart.Section
	var meetings string

	err := row.Scan(&section.CourseNumber, &section.SemesterCode, &section.CourseSection, &section.Subject,
		&section.CatalogNumber, &section.Description, &section.Units, &section.Component, &section.Topic,
		&section.Instructor.Name, &section.Instructor.Email, &section.ClassCapacity, &section.WaitList,
		&section.WaitCap, &section.EnrollmentTotal, &section.EnrollmentAvailable, &meetings)
	if err != nil {
		return coursecart.Section{}, err
	}

	if err := json.Unmarshal([]byte(meetings), &section.Meetings); err != nil {
		return coursecart.Section{}, fmt.Errorf("failed to decode meetings of %d: %w", section.CourseNumber, err)
	}

	return section, nil
}

func (r SQLiteRepository) GetSection(ctx context.Context, courseNumber int) (coursecart.Section, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+sectionColumns+" FROM sections WHERE course_number=$1", courseNumber)

	section, err := scanSection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return coursecart.Section{}, fmt.Errorf("section %d: %w", courseNumber, coursecart.ErrNotFound)
	} else if err != nil {
		return coursecart.Section{}, fmt.Errorf("failed to get section %d: %w", courseNumber, err)
	}

	return section, nil
}

func (r SQLiteRepository) ListSections(ctx context.Context, subject string) ([]coursecart.Section, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+sectionColumns+" FROM sections WHERE subject=$1 ORDER BY catalog_number, course_section, course_number", subject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sections from the db: %w", err)
	}

	return collectSections(rows)
}

func collectSections(rows *sql.Rows) ([]coursecart.Section, error) {
	var sections []coursecart.Section

	defer rows.Close()
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return sections, nil
}

func (r SQLiteRepository) AddReview(ctx context.Context, review coursecart.Review) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO reviews (subject, catalog_number, review_text) VALUES ($1, $2, $3)", review.Subject, review.CatalogNumber, review.Text)
	if err != nil {
		return fmt.Errorf("insert statement failed: %w", err)
	}
	return nil
}

func (r SQLiteRepository) ListReviews(ctx context.Context, subject, catalogNumber string) ([]coursecart.Review, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT subject, catalog_number, review_text FROM reviews WHERE subject=$1 COLLATE NOCASE AND catalog_number=$2 ORDER BY id", subject, catalogNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews from the db: %w", err)
	}

	var reviews []coursecart.Review

	defer rows.Close()
	for rows.Next() {
		var review coursecart.Review

		if err := rows.Scan(&review.Subject, &review.CatalogNumber, &review.Text); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return reviews, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r SQLiteRepository) GetCart(ctx context.Context, user string) ([]coursecart.Section, error) {
	return queryCart(ctx, r.db, user)
}

func queryCart(ctx context.Context, q queryer, user string) ([]coursecart.Section, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+sectionColumns+" FROM cart_items JOIN sections ON cart_items.course_number=sections.course_number WHERE cart_items.username=$1 ORDER BY cart_items.id", user)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart from the db: %w", err)
	}

	return collectSections(rows)
}

func (r SQLiteRepository) AddToCart(ctx context.Context, user string, courseNumber int, admit coursecart.CartAdmit) (bool, error) {
	// Add steps
	// 1. Begin an immediate transaction, holding the write lock from the first read
	// 2. Read the stored cart and let admit decide
	// 3. Insert the item and commit

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if admit != nil {
		stored, err := queryCart(ctx, tx, user)
		if err != nil {
			return false, err
		}
		if !admit(stored) {
			return false, nil
		}
	}

	added, err := persistCartItem(ctx, tx, user, courseNumber)
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return added, nil
}

// persistCartItem reports whether a row was inserted; the section already being in the cart is not an error
func persistCartItem(txCtx context.Context, tx *sql.Tx, user string, courseNumber int) (bool, error) {
	var exists int
	err := tx.QueryRowContext(txCtx, "SELECT COUNT(*) FROM sections WHERE course_number=$1", courseNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if section exists: %w", err)
	}
	if exists == 0 {
		return false, fmt.Errorf("section %d: %w", courseNumber, coursecart.ErrNotFound)
	}

	result, err := tx.ExecContext(txCtx, "INSERT INTO cart_items (username, course_number) VALUES ($1, $2) ON CONFLICT(username, course_number) DO NOTHING", user, courseNumber)
	if err != nil {
		return false, fmt.Errorf("insert statement failed: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return inserted > 0, nil
}

func (r SQLiteRepository) RemoveFromCart(ctx context.Context, user string, courseNumber int) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE username=$1 AND course_number=$2", user, courseNumber)
	if err != nil {
		return fmt.Errorf("failed to execute delete command: %w", err)
	}
	return nil
}

func (r SQLiteRepository) GetProfile(ctx context.Context, user string) (coursecart.Profile, error) {
	var profile coursecart.Profile
	err := r.db.QueryRowContext(ctx, "SELECT username, first_name, last_name, grad_year, major, email FROM profiles WHERE username=$1", user).
		Scan(&profile.Username, &profile.FirstName, &profile.LastName, &profile.GradYear, &profile.Major, &profile.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return coursecart.Profile{}, fmt.Errorf("profile %s: %w", user, coursecart.ErrNotFound)
	} else if err != nil {
		return coursecart.Profile{}, fmt.Errorf("failed to get profile %s: %w", user, err)
	}

	return profile, nil
}

func (r SQLiteRepository) SaveProfile(ctx context.Context, profile coursecart.Profile) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO profiles (username, first_name, last_name, grad_year, major, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(username) DO UPDATE SET
			first_name=excluded.first_name,
			last_name=excluded.last_name,
			grad_year=excluded.grad_year,
			major=excluded.major,
			email=excluded.email`,
		profile.Username, profile.FirstName, profile.LastName, profile.GradYear, profile.Major, profile.Email)
	if err != nil {
		return fmt.Errorf("upsert statement failed: %w", err)
	}
	return nil
}

func (r SQLiteRepository) SearchProfiles(ctx context.Context, query string) ([]coursecart.Profile, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT username, first_name, last_name, grad_year, major, email FROM profiles WHERE instr(lower(username), lower($1)) > 0 ORDER BY username", query)
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}

	var profiles []coursecart.Profile

	defer rows.Close()
	for rows.Next() {
		var profile coursecart.Profile

		if err := rows.Scan(&profile.Username, &profile.FirstName, &profile.LastName, &profile.GradYear, &profile.Major, &profile.Email); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return profiles, nil
}

func (r SQLiteRepository) CreateFriendRequest(ctx context.Context, request coursecart.FriendRequest) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO friend_requests (sender, receiver, created_at) VALUES ($1, $2, $3) ON CONFLICT(sender, receiver) DO NOTHING", request.Sender, request.Receiver, request.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert statement failed: %w", err)
	}
	return nil
}

func (r SQLiteRepository) GetFriendRequest(ctx context.Context, sender, receiver string) (coursecart.FriendRequest, error) {
	request := coursecart.FriendRequest{Sender: sender, Receiver: receiver}

	var createdAt int64
	err := r.db.QueryRowContext(ctx, "SELECT created_at FROM friend_requests WHERE sender=$1 AND receiver=$2", sender, receiver).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return coursecart.FriendRequest{}, fmt.Errorf("friend request %s: %w", request, coursecart.ErrNotFound)
	} else if err != nil {
		return coursecart.FriendRequest{}, fmt.Errorf("failed to get friend request %s: %w", request, err)
	}

	request.CreatedAt = time.Unix(createdAt, 0).UTC()
	return request, nil
}

func (r SQLiteRepository) ListFriendRequests(ctx context.Context, user string) ([]coursecart.FriendRequest, []coursecart.FriendRequest, error) {
	incoming, err := r.queryFriendRequests(ctx, "SELECT sender, receiver, created_at FROM friend_requests WHERE receiver=$1 ORDER BY created_at, sender", user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list incoming requests: %w", err)
	}

	outgoing, err := r.queryFriendRequests(ctx, "SELECT sender, receiver, created_at FROM friend_requests WHERE sender=$1 ORDER BY created_at, receiver", user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list outgoing requests: %w", err)
	}

	return incoming, outgoing, nil
}

func (r SQLiteRepository) queryFriendRequests(ctx context.Context, query string, args ...any) ([]coursecart.FriendRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var requests []coursecart.FriendRequest

	defer rows.Close()
	for rows.Next() {
		var request coursecart.FriendRequest
		var createdAt int64

		if err := rows.Scan(&request.Sender, &request.Receiver, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		request.CreatedAt = time.Unix(createdAt, 0).UTC()

		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return requests, nil
}

func (r SQLiteRepository) DeleteFriendRequest(ctx context.Context, sender, receiver string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM friend_requests WHERE sender=$1 AND receiver=$2", sender, receiver)
	if err != nil {
		return fmt.Errorf("failed to execute delete command: %w", err)
	}

	return expectAffected(res, fmt.Sprintf("friend request %s->%s", sender, receiver))
}

func (r SQLiteRepository) AcceptFriendRequest(ctx context.Context, sender, receiver string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM friend_requests WHERE sender=$1 AND receiver=$2", sender, receiver)
	if err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	if err := expectAffected(res, fmt.Sprintf("friend request %s->%s", sender, receiver)); err != nil {
		return err
	}

	// a request in the other direction is answered by the same friendship
	if _, err := tx.ExecContext(ctx, "DELETE FROM friend_requests WHERE sender=$1 AND receiver=$2", receiver, sender); err != nil {
		return fmt.Errorf("failed to delete reverse friend request: %w", err)
	}

	a, b := edge(sender, receiver)
	if _, err := tx.ExecContext(ctx, "INSERT INTO friendships (user_a, user_b) VALUES ($1, $2) ON CONFLICT(user_a, user_b) DO NOTHING", a, b); err != nil {
		return fmt.Errorf("failed to insert friendship: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r SQLiteRepository) RemoveFriendship(ctx context.Context, userA, userB string) error {
	a, b := edge(userA, userB)
	res, err := r.db.ExecContext(ctx, "DELETE FROM friendships WHERE user_a=$1 AND user_b=$2", a, b)
	if err != nil {
		return fmt.Errorf("failed to execute delete command: %w", err)
	}

	return expectAffected(res, fmt.Sprintf("friendship %s-%s", a, b))
}

func (r SQLiteRepository) ListFriends(ctx context.Context, user string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_b FROM friendships WHERE user_a=$1 UNION SELECT user_a FROM friendships WHERE user_b=$1 ORDER BY 1", user)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friends from the db: %w", err)
	}

	var friends []string

	defer rows.Close()
	for rows.Next() {
		var friend string

		if err := rows.Scan(&friend); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		friends = append(friends, friend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return friends, nil
}

func (r SQLiteRepository) AddComment(ctx context.Context, comment coursecart.Comment) (coursecart.Comment, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO comments (sender, receiver, message, created_at) VALUES ($1, $2, $3, $4)", comment.Sender, comment.Receiver, comment.Message, comment.CreatedAt.UTC().Unix())
	if err != nil {
		return coursecart.Comment{}, fmt.Errorf("insert statement failed: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return coursecart.Comment{}, fmt.Errorf("failed to fetch inserted comment id: %w", err)
	}

	comment.ID = strconv.FormatInt(id, 10)
	comment.CreatedAt = time.Unix(comment.CreatedAt.UTC().Unix(), 0).UTC()
	return comment, nil
}

func (r SQLiteRepository) GetComment(ctx context.Context, id string) (coursecart.Comment, error) {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return coursecart.Comment{}, fmt.Errorf("comment %q: %w", id, coursecart.ErrNotFound)
	}

	comment := coursecart.Comment{ID: id}
	var createdAt int64
	err = r.db.QueryRowContext(ctx, "SELECT sender, receiver, message, created_at FROM comments WHERE id=$1", rowID).
		Scan(&comment.Sender, &comment.Receiver, &comment.Message, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return coursecart.Comment{}, fmt.Errorf("comment %s: %w", id, coursecart.ErrNotFound)
	} else if err != nil {
		return coursecart.Comment{}, fmt.Errorf("failed to get comment %s: %w", id, err)
	}

	comment.CreatedAt = time.Unix(createdAt, 0).UTC()
	return comment, nil
}

func (r SQLiteRepository) DeleteComment(ctx context.Context, id string) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("comment %q: %w", id, coursecart.ErrNotFound)
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id=$1", rowID)
	if err != nil {
		return fmt.Errorf("failed to execute delete command: %w", err)
	}

	return expectAffected(res, "comment "+id)
}

func (r SQLiteRepository) ListComments(ctx context.Context, receiver string) ([]coursecart.Comment, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, sender, receiver, message, created_at FROM comments WHERE receiver=$1 ORDER BY id DESC", receiver)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments from the db: %w", err)
	}

	var comments []coursecart.Comment

	defer rows.Close()
	for rows.Next() {
		var comment coursecart.Comment
		var id, createdAt int64

		if err := rows.Scan(&id, &comment.Sender, &comment.Receiver, &comment.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		comment.ID = strconv.FormatInt(id, 10)
		comment.CreatedAt = time.Unix(createdAt, 0).UTC()

		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return comments, nil
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows: %w", err)
	}
	if n == 0 {
		log.Debug().Str("target", what).Msg("nothing to delete")
		return fmt.Errorf("%s: %w", what, coursecart.ErrNotFound)
	}
	return nil
}

// edge orders a pair of usernames so each friendship has one row
func edge(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}
