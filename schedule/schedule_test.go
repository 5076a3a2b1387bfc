package schedule

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/config"
	"github.com/jacobmichels/Course-Cart-Go/repository"
)

type recorder struct {
	sent []coursecart.Notification
	err  error
}

func (r *recorder) Notify(ctx context.Context, n coursecart.Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func newFixture(t *testing.T) (Service, coursecart.Repository, *recorder) {
	t.Helper()
	ctx := context.Background()

	repo, err := repository.New(ctx, config.Database{Type: "sqlite", SQLite: config.SQLite{ConnectionString: filepath.Join(t.TempDir(), "schedule.db")}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	for _, user := range []string{"mary", "john", "alex"} {
		require.NoError(t, repo.SaveProfile(ctx, coursecart.Profile{Username: user, Email: user + "@virginia.edu"}))
	}
	require.NoError(t, repo.CreateFriendRequest(ctx, coursecart.FriendRequest{Sender: "mary", Receiver: "john", CreatedAt: time.Now()}))
	require.NoError(t, repo.AcceptFriendRequest(ctx, "mary", "john"))

	require.NoError(t, repo.UpsertSections(ctx, []coursecart.Section{
		sec(1, mt("MoWe", "02:00 PM", "03:15 PM")),
		sec(2, mt("TuTh", "09:30 AM", "10:45 AM")),
		sec(3, mt("-", "", "")),
	}))
	addToCart(t, repo, "mary", 1)
	addToCart(t, repo, "mary", 3)
	addToCart(t, repo, "john", 2)

	rec := &recorder{}
	return NewService(repo, rec), repo, rec
}

func TestView(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	view, err := svc.View(ctx, "mary", "")
	require.NoError(t, err)
	assert.Equal(t, "mary", view.Owner)
	assert.False(t, view.NotFriended)
	assert.Equal(t, []int{1}, numbers(view.Schedule.Day(coursecart.Monday)))
	assert.Equal(t, []int{3}, numbers(view.Schedule.Other))
	assert.NotNil(t, view.Comments)

	view, err = svc.View(ctx, "mary", "john")
	require.NoError(t, err)
	assert.Equal(t, "john", view.Owner)
	assert.Equal(t, []int{2}, numbers(view.Schedule.Day(coursecart.Tuesday)))
}

func TestView_NonFriendSeesOwnSchedule(t *testing.T) {
	svc, _, _ := newFixture(t)

	view, err := svc.View(context.Background(), "alex", "mary")
	require.NoError(t, err)
	assert.True(t, view.NotFriended)
	assert.Equal(t, "alex", view.Owner)
	assert.Empty(t, view.Schedule.Day(coursecart.Monday))
}

func TestComment(t *testing.T) {
	svc, _, rec := newFixture(t)
	ctx := context.Background()

	first, err := svc.Comment(ctx, "john", "mary", "  see you in lab  ")
	require.NoError(t, err)
	assert.Equal(t, "see you in lab", first.Message)
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "mary@virginia.edu", rec.sent[0].To)

	_, err = svc.Comment(ctx, "mary", "mary", "note to self")
	require.NoError(t, err)
	assert.Len(t, rec.sent, 1, "no notification for your own schedule")

	view, err := svc.View(ctx, "mary", "")
	require.NoError(t, err)
	require.Len(t, view.Comments, 2)
	assert.Equal(t, "note to self", view.Comments[0].Message, "newest first")

	_, err = svc.Comment(ctx, "alex", "mary", "hi")
	assert.ErrorIs(t, err, coursecart.ErrNotFriends)

	_, err = svc.Comment(ctx, "john", "mary", "   ")
	assert.ErrorIs(t, err, coursecart.ErrInvalidRequest)
}

func TestComment_NotificationFailureIsIgnored(t *testing.T) {
	svc, _, rec := newFixture(t)
	rec.err = errors.New("smtp down")

	_, err := svc.Comment(context.Background(), "mary", "john", "hello")
	assert.NoError(t, err)
}

func TestDeleteComment(t *testing.T) {
	svc, repo, _ := newFixture(t)
	ctx := context.Background()

	comment, err := svc.Comment(ctx, "john", "mary", "hello")
	require.NoError(t, err)

	err = svc.DeleteComment(ctx, "alex", comment.ID)
	assert.ErrorIs(t, err, coursecart.ErrForbidden)

	require.NoError(t, svc.DeleteComment(ctx, "mary", comment.ID))
	assert.ErrorIs(t, svc.DeleteComment(ctx, "mary", comment.ID), coursecart.ErrNotFound)

	comments, err := repo.ListComments(ctx, "mary")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func addToCart(t *testing.T, repo coursecart.Repository, user string, courseNumber int) {
	t.Helper()
	added, err := repo.AddToCart(context.Background(), user, courseNumber, nil)
	require.NoError(t, err)
	require.True(t, added)
}
