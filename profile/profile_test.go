package profile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/config"
	"github.com/jacobmichels/Course-Cart-Go/repository"
)

func newFixture(t *testing.T) (Service, coursecart.Repository) {
	t.Helper()

	repo, err := repository.New(context.Background(), config.Database{Type: "sqlite", SQLite: config.SQLite{ConnectionString: filepath.Join(t.TempDir(), "profile.db")}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC) }
	return svc, repo
}

func befriend(t *testing.T, repo coursecart.Repository, a, b string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.CreateFriendRequest(ctx, coursecart.FriendRequest{Sender: a, Receiver: b, CreatedAt: time.Now()}))
	require.NoError(t, repo.AcceptFriendRequest(ctx, a, b))
}

func TestEnsure(t *testing.T) {
	svc, repo := newFixture(t)
	ctx := context.Background()

	profile, err := svc.Ensure(ctx, "mary", "")
	require.NoError(t, err)
	assert.Equal(t, coursecart.Profile{Username: "mary", GradYear: 2024}, profile)

	profile, err = svc.Ensure(ctx, "mary", "mary@virginia.edu")
	require.NoError(t, err)
	assert.Equal(t, "mary@virginia.edu", profile.Email, "missing email is filled in")

	profile, err = svc.Ensure(ctx, "mary", "other@virginia.edu")
	require.NoError(t, err)
	assert.Equal(t, "mary@virginia.edu", profile.Email, "existing email is kept")

	stored, err := repo.GetProfile(ctx, "mary")
	require.NoError(t, err)
	assert.Equal(t, profile, stored)
}

func TestUpdate(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	profile, err := svc.Update(ctx, "mary", Edit{FirstName: " Mary ", LastName: "Shelley", Major: "English"})
	require.NoError(t, err)
	assert.Equal(t, "Mary", profile.FirstName)
	assert.Equal(t, 2024, profile.GradYear, "zero grad year keeps the current one")

	profile, err = svc.Update(ctx, "mary", Edit{FirstName: "Mary", GradYear: 2026, Email: "ms@virginia.edu"})
	require.NoError(t, err)
	assert.Equal(t, 2026, profile.GradYear)
	assert.Equal(t, "ms@virginia.edu", profile.Email)
	assert.Empty(t, profile.Major)
}

func TestView(t *testing.T) {
	svc, repo := newFixture(t)
	ctx := context.Background()

	for _, user := range []string{"mary", "john", "alex", "sam"} {
		_, err := svc.Ensure(ctx, user, "")
		require.NoError(t, err)
	}
	befriend(t, repo, "mary", "alex")
	befriend(t, repo, "john", "alex")
	befriend(t, repo, "mary", "sam")
	befriend(t, repo, "mary", "john")

	view, err := svc.View(ctx, "john", "mary")
	require.NoError(t, err)
	assert.False(t, view.Self)
	assert.True(t, view.Friend)
	assert.Equal(t, []string{"alex"}, view.Mutual)

	view, err = svc.View(ctx, "sam", "john")
	require.NoError(t, err)
	assert.False(t, view.Friend)
	assert.Equal(t, []string{"mary"}, view.Mutual)

	view, err = svc.View(ctx, "mary", "")
	require.NoError(t, err)
	assert.True(t, view.Self)
	assert.Equal(t, "mary", view.Profile.Username)

	_, err = svc.View(ctx, "mary", "ghost")
	assert.ErrorIs(t, err, coursecart.ErrNotFound)
}
