package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

type Repository interface {
	GetSection(ctx context.Context, courseNumber int) (coursecart.Section, error)
	coursecart.CartRepository
}

type Service struct {
	repo  Repository
	locks *userLocks
}

func NewService(r Repository) Service {
	return Service{r, &userLocks{held: make(map[string]*userLock)}}
}

// AddResult reports what happened to a candidate section. Repeat and Overlap are never both set;
// when either is set the cart is unchanged.
type AddResult struct {
	Repeat  bool                 `json:"repeat"`
	Overlap bool                 `json:"overlap"`
	Section coursecart.Section   `json:"section"`
	Cart    []coursecart.Section `json:"cart"`
}

func (r AddResult) Added() bool {
	return !r.Repeat && !r.Overlap
}

func (s Service) Get(ctx context.Context, user string) (coursecart.Cart, error) {
	sections, err := s.repo.GetCart(ctx, user)
	if err != nil {
		return coursecart.Cart{}, fmt.Errorf("failed to get cart for %s: %w", user, err)
	}
	if sections == nil {
		sections = []coursecart.Section{}
	}

	return coursecart.Cart{Owner: user, Sections: sections}, nil
}

func (s Service) Add(ctx context.Context, user string, courseNumber int) (AddResult, error) {
	// Add steps
	// 1. Load the candidate section and make sure its times can be compared
	// 2. Hold the user's lock so requests in this process queue up instead of retrying in storage
	// 3. Run the candidate against the stored cart inside the storage transaction, persisting it only if nothing conflicts

	section, err := s.repo.GetSection(ctx, courseNumber)
	if err != nil {
		return AddResult{}, fmt.Errorf("failed to get section %d: %w", courseNumber, err)
	}

	if err := section.Validate(); err != nil {
		return AddResult{}, fmt.Errorf("section %s cannot be scheduled: %w", section, err)
	}

	unlock := s.locks.lock(user)
	defer unlock()

	var result AddResult
	added, err := s.repo.AddToCart(ctx, user, courseNumber, func(stored []coursecart.Section) bool {
		cart := coursecart.Cart{Owner: user, Sections: append([]coursecart.Section{}, stored...)}
		repeat, overlap := cart.Add(section)
		result = AddResult{Repeat: repeat, Overlap: overlap, Section: section, Cart: cart.Sections}
		return result.Added()
	})
	if err != nil {
		return AddResult{}, fmt.Errorf("failed to add %s to cart of %s: %w", section, user, err)
	}

	if !added {
		log.Info().Str("user", user).Int("course_number", courseNumber).Bool("repeat", result.Repeat).Bool("overlap", result.Overlap).Msg("section rejected from cart")
		return result, nil
	}

	log.Info().Str("user", user).Int("course_number", courseNumber).Msg("section added to cart")
	return result, nil
}

// Remove drops a section from the user's cart. Removing a section that is not in the cart is a no-op.
func (s Service) Remove(ctx context.Context, user string, courseNumber int) (coursecart.Cart, error) {
	unlock := s.locks.lock(user)
	defer unlock()

	cart, err := s.Get(ctx, user)
	if err != nil {
		return coursecart.Cart{}, err
	}

	if !cart.Remove(courseNumber) {
		return cart, nil
	}

	if err := s.repo.RemoveFromCart(ctx, user, courseNumber); err != nil {
		return coursecart.Cart{}, fmt.Errorf("failed to remove %d from cart of %s: %w", courseNumber, user, err)
	}

	return cart, nil
}

type userLock struct {
	sync.Mutex
	refs int
}

// userLocks hands out one mutex per user, dropping it once nobody holds or waits on it.
type userLocks struct {
	mu   sync.Mutex
	held map[string]*userLock
}

func (l *userLocks) lock(user string) func() {
	l.mu.Lock()
	ul, ok := l.held[user]
	if !ok {
		ul = &userLock{}
		l.held[user] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()

	return func() {
		ul.Unlock()

		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.held, user)
		}
		l.mu.Unlock()
	}
}
