package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

type Service struct {
	repo coursecart.SocialRepository
	now  func() time.Time
}

func NewService(r coursecart.SocialRepository) Service {
	return Service{r, time.Now}
}

type View struct {
	Profile coursecart.Profile `json:"profile"`
	Self    bool               `json:"self"`
	Friend  bool               `json:"friend"`
	Mutual  []string           `json:"mutual_friends"`
}

// Edit holds the fields a user may change on their own profile.
type Edit struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	GradYear  int    `json:"grad_year"`
	Major     string `json:"major"`
	Email     string `json:"email"`
}

// Ensure returns the user's profile, creating an empty one on first sight. A known email fills in
// a profile that has none yet.
func (s Service) Ensure(ctx context.Context, user, email string) (coursecart.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, user)
	if err == nil {
		if profile.Email != "" || email == "" {
			return profile, nil
		}
		profile.Email = email
	} else if errors.Is(err, coursecart.ErrNotFound) {
		profile = coursecart.Profile{Username: user, GradYear: s.now().Year(), Email: email}
		log.Info().Str("user", user).Msg("creating profile")
	} else {
		return coursecart.Profile{}, fmt.Errorf("failed to get profile %s: %w", user, err)
	}

	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return coursecart.Profile{}, fmt.Errorf("failed to save profile %s: %w", user, err)
	}

	return profile, nil
}

// View returns owner's profile as seen by viewer, including the friends they have in common.
func (s Service) View(ctx context.Context, viewer, owner string) (View, error) {
	if owner == "" {
		owner = viewer
	}

	profile, err := s.repo.GetProfile(ctx, owner)
	if err != nil {
		return View{}, fmt.Errorf("failed to get profile %s: %w", owner, err)
	}

	view := View{Profile: profile, Self: owner == viewer, Mutual: []string{}}
	if view.Self {
		return view, nil
	}

	viewerFriends, err := s.repo.ListFriends(ctx, viewer)
	if err != nil {
		return View{}, fmt.Errorf("failed to list friends of %s: %w", viewer, err)
	}
	ownerFriends, err := s.repo.ListFriends(ctx, owner)
	if err != nil {
		return View{}, fmt.Errorf("failed to list friends of %s: %w", owner, err)
	}

	known := make(map[string]bool, len(viewerFriends))
	for _, f := range viewerFriends {
		known[f] = true
		if f == owner {
			view.Friend = true
		}
	}
	for _, f := range ownerFriends {
		if known[f] {
			view.Mutual = append(view.Mutual, f)
		}
	}

	return view, nil
}

func (s Service) Update(ctx context.Context, user string, edit Edit) (coursecart.Profile, error) {
	profile, err := s.Ensure(ctx, user, "")
	if err != nil {
		return coursecart.Profile{}, err
	}

	profile.FirstName = strings.TrimSpace(edit.FirstName)
	profile.LastName = strings.TrimSpace(edit.LastName)
	profile.Major = strings.TrimSpace(edit.Major)
	if edit.GradYear != 0 {
		profile.GradYear = edit.GradYear
	}
	if email := strings.TrimSpace(edit.Email); email != "" {
		profile.Email = email
	}

	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return coursecart.Profile{}, fmt.Errorf("failed to save profile %s: %w", user, err)
	}

	log.Info().Str("user", user).Msg("profile updated")
	return profile, nil
}
