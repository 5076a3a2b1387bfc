package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	coursecart.CartRepository
	coursecart.SocialRepository
}

type Service struct {
	repo     Repository
	notifier coursecart.Notifier
}

func NewService(r Repository, n coursecart.Notifier) Service {
	return Service{r, n}
}

// View is a user's weekly schedule together with the comments left on it.
type View struct {
	Owner       string               `json:"owner"`
	Schedule    Schedule             `json:"schedule"`
	Comments    []coursecart.Comment `json:"comments"`
	NotFriended bool                 `json:"not_friended"`
}

// View builds owner's schedule as seen by viewer. An empty owner means the viewer's own schedule.
// When viewer and owner are not friends the viewer gets their own schedule back with NotFriended set.
func (s Service) View(ctx context.Context, viewer, owner string) (View, error) {
	if owner == "" {
		owner = viewer
	}

	var notFriended bool
	if owner != viewer {
		friends, err := s.areFriends(ctx, viewer, owner)
		if err != nil {
			return View{}, err
		}
		if !friends {
			log.Info().Str("viewer", viewer).Str("owner", owner).Msg("schedule requested by non-friend, showing own schedule")
			owner = viewer
			notFriended = true
		}
	}

	sections, err := s.repo.GetCart(ctx, owner)
	if err != nil {
		return View{}, fmt.Errorf("failed to get cart for %s: %w", owner, err)
	}

	comments, err := s.repo.ListComments(ctx, owner)
	if err != nil {
		return View{}, fmt.Errorf("failed to list comments for %s: %w", owner, err)
	}
	if comments == nil {
		comments = []coursecart.Comment{}
	}

	return View{
		Owner:       owner,
		Schedule:    Build(sections),
		Comments:    comments,
		NotFriended: notFriended,
	}, nil
}

// Comment leaves a message on receiver's schedule. Users may comment on their own schedule and on friends' schedules.
func (s Service) Comment(ctx context.Context, sender, receiver, message string) (coursecart.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return coursecart.Comment{}, fmt.Errorf("%w: message cannot be empty", coursecart.ErrInvalidRequest)
	}

	if sender != receiver {
		friends, err := s.areFriends(ctx, sender, receiver)
		if err != nil {
			return coursecart.Comment{}, err
		}
		if !friends {
			return coursecart.Comment{}, fmt.Errorf("cannot comment on %s's schedule: %w", receiver, coursecart.ErrNotFriends)
		}
	}

	comment, err := s.repo.AddComment(ctx, coursecart.Comment{
		Sender:    sender,
		Receiver:  receiver,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return coursecart.Comment{}, fmt.Errorf("failed to add comment: %w", err)
	}

	if sender != receiver {
		s.notify(ctx, receiver, "New comment on your schedule", fmt.Sprintf("%s commented on your schedule:\n\n%s", sender, message))
	}

	return comment, nil
}

// DeleteComment removes a comment. Only its sender or receiver may do so.
func (s Service) DeleteComment(ctx context.Context, user, id string) error {
	comment, err := s.repo.GetComment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get comment %s: %w", id, err)
	}

	if comment.Sender != user && comment.Receiver != user {
		return fmt.Errorf("%s cannot delete comment %s: %w", user, id, coursecart.ErrForbidden)
	}

	if err := s.repo.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", id, err)
	}

	return nil
}

func (s Service) areFriends(ctx context.Context, a, b string) (bool, error) {
	friends, err := s.repo.ListFriends(ctx, a)
	if err != nil {
		return false, fmt.Errorf("failed to list friends of %s: %w", a, err)
	}
	return slices.Contains(friends, b), nil
}

func (s Service) notify(ctx context.Context, user, subject, body string) {
	profile, err := s.repo.GetProfile(ctx, user)
	if err != nil {
		if !errors.Is(err, coursecart.ErrNotFound) {
			log.Warn().Err(err).Str("user", user).Msg("failed to load profile for notification")
		}
		return
	}

	if err := s.notifier.Notify(ctx, coursecart.Notification{To: profile.Email, Subject: subject, Body: body}); err != nil {
		log.Warn().Err(err).Str("user", user).Msg("failed to send notification")
	}
}
