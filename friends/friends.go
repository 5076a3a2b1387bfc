package friends

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

type Service struct {
	repo     coursecart.SocialRepository
	notifier coursecart.Notifier
}

func NewService(r coursecart.SocialRepository, n coursecart.Notifier) Service {
	return Service{r, n}
}

type Requests struct {
	Incoming []coursecart.FriendRequest `json:"incoming"`
	Outgoing []coursecart.FriendRequest `json:"outgoing"`
}

// Relation of a user to the viewer
type Relation string

const (
	None     Relation = "none"
	Friend   Relation = "friend"
	Incoming Relation = "incoming"
	Outgoing Relation = "outgoing"
)

type User struct {
	coursecart.Profile
	Relation Relation `json:"relation"`
}

// Send asks receiver to be sender's friend. If receiver already asked sender, the two become friends.
func (s Service) Send(ctx context.Context, sender, receiver string) error {
	// Send steps
	// 1. Reject requests to yourself, to unknown users and to existing friends
	// 2. Accept a pending request in the other direction instead of opening a second one
	// 3. Otherwise record the request and let the receiver know

	receiver = strings.TrimSpace(receiver)
	if receiver == "" || receiver == sender {
		return fmt.Errorf("%w: cannot send a friend request to %q", coursecart.ErrInvalidRequest, receiver)
	}

	if _, err := s.repo.GetProfile(ctx, receiver); err != nil {
		return fmt.Errorf("failed to get profile of %s: %w", receiver, err)
	}

	friends, err := s.repo.ListFriends(ctx, sender)
	if err != nil {
		return fmt.Errorf("failed to list friends of %s: %w", sender, err)
	}
	if slices.Contains(friends, receiver) {
		return fmt.Errorf("%w: %s and %s are already friends", coursecart.ErrInvalidRequest, sender, receiver)
	}

	if _, err := s.repo.GetFriendRequest(ctx, sender, receiver); err == nil {
		return fmt.Errorf("%w: request to %s is already pending", coursecart.ErrInvalidRequest, receiver)
	} else if !errors.Is(err, coursecart.ErrNotFound) {
		return fmt.Errorf("failed to check pending requests: %w", err)
	}

	if _, err := s.repo.GetFriendRequest(ctx, receiver, sender); err == nil {
		log.Info().Str("sender", sender).Str("receiver", receiver).Msg("crossing friend requests, accepting")
		return s.Accept(ctx, sender, receiver)
	} else if !errors.Is(err, coursecart.ErrNotFound) {
		return fmt.Errorf("failed to check pending requests: %w", err)
	}

	request := coursecart.FriendRequest{Sender: sender, Receiver: receiver, CreatedAt: time.Now().UTC()}
	if err := s.repo.CreateFriendRequest(ctx, request); err != nil {
		return fmt.Errorf("failed to create friend request %s: %w", request, err)
	}

	log.Info().Str("sender", sender).Str("receiver", receiver).Msg("friend request sent")
	s.notify(ctx, receiver, "New friend request", fmt.Sprintf("%s sent you a friend request.", sender))
	return nil
}

// Accept turns the request sender sent to receiver into a friendship.
func (s Service) Accept(ctx context.Context, receiver, sender string) error {
	if err := s.repo.AcceptFriendRequest(ctx, sender, receiver); err != nil {
		return fmt.Errorf("failed to accept friend request %s->%s: %w", sender, receiver, err)
	}

	log.Info().Str("sender", sender).Str("receiver", receiver).Msg("friend request accepted")
	s.notify(ctx, sender, "Friend request accepted", fmt.Sprintf("%s accepted your friend request.", receiver))
	return nil
}

// Decline drops the request sender sent to receiver.
func (s Service) Decline(ctx context.Context, receiver, sender string) error {
	if err := s.repo.DeleteFriendRequest(ctx, sender, receiver); err != nil {
		return fmt.Errorf("failed to decline friend request %s->%s: %w", sender, receiver, err)
	}
	return nil
}

// Cancel withdraws a request sender sent to receiver.
func (s Service) Cancel(ctx context.Context, sender, receiver string) error {
	if err := s.repo.DeleteFriendRequest(ctx, sender, receiver); err != nil {
		return fmt.Errorf("failed to cancel friend request %s->%s: %w", sender, receiver, err)
	}
	return nil
}

func (s Service) Unfriend(ctx context.Context, user, friend string) error {
	if err := s.repo.RemoveFriendship(ctx, user, friend); err != nil {
		return fmt.Errorf("failed to unfriend %s: %w", friend, err)
	}

	log.Info().Str("user", user).Str("friend", friend).Msg("friendship removed")
	return nil
}

func (s Service) List(ctx context.Context, user string) ([]string, error) {
	friends, err := s.repo.ListFriends(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends of %s: %w", user, err)
	}
	if friends == nil {
		friends = []string{}
	}
	return friends, nil
}

func (s Service) Requests(ctx context.Context, user string) (Requests, error) {
	incoming, outgoing, err := s.repo.ListFriendRequests(ctx, user)
	if err != nil {
		return Requests{}, fmt.Errorf("failed to list friend requests of %s: %w", user, err)
	}
	if incoming == nil {
		incoming = []coursecart.FriendRequest{}
	}
	if outgoing == nil {
		outgoing = []coursecart.FriendRequest{}
	}

	return Requests{Incoming: incoming, Outgoing: outgoing}, nil
}

// Search finds users by username, leaving out the viewer. Each result carries its relation to the viewer.
func (s Service) Search(ctx context.Context, viewer, query string) ([]User, error) {
	profiles, err := s.repo.SearchProfiles(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	friends, err := s.repo.ListFriends(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends of %s: %w", viewer, err)
	}

	requests, err := s.Requests(ctx, viewer)
	if err != nil {
		return nil, err
	}

	relations := make(map[string]Relation)
	for _, r := range requests.Incoming {
		relations[r.Sender] = Incoming
	}
	for _, r := range requests.Outgoing {
		relations[r.Receiver] = Outgoing
	}
	for _, f := range friends {
		relations[f] = Friend
	}

	users := []User{}
	for _, profile := range profiles {
		if profile.Username == viewer {
			continue
		}

		relation, ok := relations[profile.Username]
		if !ok {
			relation = None
		}
		users = append(users, User{Profile: profile, Relation: relation})
	}

	return users, nil
}

func (s Service) notify(ctx context.Context, user, subject, body string) {
	profile, err := s.repo.GetProfile(ctx, user)
	if err != nil {
		log.Warn().Err(err).Str("user", user).Msg("failed to load profile for notification")
		return
	}

	if err := s.notifier.Notify(ctx, coursecart.Notification{To: profile.Email, Subject: subject, Body: body}); err != nil {
		log.Warn().Err(err).Str("user", user).Msg("failed to send notification")
	}
}
