package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/cart"
	"github.com/jacobmichels/Course-Cart-Go/catalog"
	"github.com/jacobmichels/Course-Cart-Go/config"
	"github.com/jacobmichels/Course-Cart-Go/friends"
	"github.com/jacobmichels/Course-Cart-Go/profile"
	"github.com/jacobmichels/Course-Cart-Go/schedule"
)

type CatalogService interface {
	Subjects(ctx context.Context, search string) ([]coursecart.Subject, error)
	CoursesBySubject(ctx context.Context, subject string) ([]catalog.Course, error)
	Course(ctx context.Context, subject string, courseNumber int) (catalog.CourseDetail, error)
	Search(ctx context.Context, subject string, filter catalog.Filter) ([]coursecart.Section, error)
	SubmitReview(context.Context, coursecart.Review) error
	Sync(context.Context) error
}

type CartService interface {
	Get(ctx context.Context, user string) (coursecart.Cart, error)
	Add(ctx context.Context, user string, courseNumber int) (cart.AddResult, error)
	Remove(ctx context.Context, user string, courseNumber int) (coursecart.Cart, error)
}

type ScheduleService interface {
	View(ctx context.Context, viewer, owner string) (schedule.View, error)
	Comment(ctx context.Context, sender, receiver, message string) (coursecart.Comment, error)
	DeleteComment(ctx context.Context, user, id string) error
}

type FriendService interface {
	Send(ctx context.Context, sender, receiver string) error
	Accept(ctx context.Context, receiver, sender string) error
	Decline(ctx context.Context, receiver, sender string) error
	Cancel(ctx context.Context, sender, receiver string) error
	Unfriend(ctx context.Context, user, friend string) error
	List(ctx context.Context, user string) ([]string, error)
	Requests(ctx context.Context, user string) (friends.Requests, error)
	Search(ctx context.Context, viewer, query string) ([]friends.User, error)
}

type ProfileService interface {
	Ensure(ctx context.Context, user, email string) (coursecart.Profile, error)
	View(ctx context.Context, viewer, owner string) (profile.View, error)
	Update(ctx context.Context, user string, edit profile.Edit) (coursecart.Profile, error)
}

type Server struct {
	catalog  CatalogService
	cart     CartService
	schedule ScheduleService
	friends  FriendService
	profiles ProfileService
	cfg      config.Server
}

func NewServer(cfg config.Server, c CatalogService, ct CartService, s ScheduleService, f FriendService, p ProfileService) Server {
	return Server{c, ct, s, f, p, cfg}
}

// Handler returns the routed API wrapped in its middleware.
func (s Server) Handler() http.Handler {
	r := httprouter.New()

	// register routes
	r.GET("/ping", s.pingHandler())
	r.GET("/trigger", s.triggerHandler())

	r.GET("/subjects", s.subjectsHandler())
	r.GET("/subjects/:subject/courses", s.coursesHandler())
	r.GET("/subjects/:subject/courses/:course", s.courseHandler())
	r.GET("/subjects/:subject/search", s.searchHandler())
	r.POST("/reviews", s.reviewHandler())

	r.GET("/cart", s.getCartHandler())
	r.PUT("/cart/:course", s.addToCartHandler())
	r.DELETE("/cart/:course", s.removeFromCartHandler())

	r.GET("/schedule", s.scheduleHandler())
	r.GET("/schedule/:owner", s.scheduleHandler())
	r.POST("/schedule/:owner/comments", s.commentHandler())
	r.DELETE("/comments/:id", s.deleteCommentHandler())

	r.GET("/friends", s.listFriendsHandler())
	r.DELETE("/friends/:username", s.unfriendHandler())
	r.GET("/requests", s.listRequestsHandler())
	r.POST("/requests", s.sendRequestHandler())
	r.POST("/requests/:sender/accept", s.acceptRequestHandler())
	r.POST("/requests/:sender/decline", s.declineRequestHandler())
	r.DELETE("/requests/:receiver", s.cancelRequestHandler())
	r.GET("/users", s.searchUsersHandler())

	r.GET("/profile", s.profileHandler())
	r.GET("/profile/:owner", s.profileHandler())
	r.PUT("/profile", s.updateProfileHandler())

	return requestID(logRequests(s.identify(r)))
}

func (s Server) Start(ctx context.Context) error {
	srv := http.Server{Addr: s.cfg.Addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	log.Info().Str("addr", s.cfg.Addr).Msg("listening")

	// start server, respecting context cancelation
	errChan := make(chan error)
	go func() { errChan <- srv.ListenAndServe() }()
	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info().Msg("server shutdown complete")
	}

	return nil
}
