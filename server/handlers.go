package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/catalog"
	"github.com/jacobmichels/Course-Cart-Go/profile"
)

func courseNumber(p httprouter.Params) (int, error) {
	n, err := strconv.Atoi(p.ByName("course"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: course number must be a positive integer", coursecart.ErrInvalidRequest)
	}
	return n, nil
}

func (s Server) pingHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	}
}

// triggerHandler refreshes the stored catalog from the course API.
func (s Server) triggerHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if !s.triggerAllowed(r) {
			log.Warn().Str("request_id", requestIDFrom(r.Context())).Msg("catalog sync refused")
			writeMessage(w, http.StatusForbidden, "trigger token missing or invalid")
			return
		}

		log.Info().Msg("catalog sync triggered")
		if err := s.catalog.Sync(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s Server) subjectsHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		subjects, err := s.catalog.Subjects(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, subjects)
	}
}

func (s Server) coursesHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		courses, err := s.catalog.CoursesBySubject(r.Context(), p.ByName("subject"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, courses)
	}
}

func (s Server) courseHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		n, err := courseNumber(p)
		if err != nil {
			writeError(w, r, err)
			return
		}

		detail, err := s.catalog.Course(r.Context(), p.ByName("subject"), n)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func (s Server) searchHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		q := r.URL.Query()
		filter := catalog.Filter{
			Title:         q.Get("title"),
			Instructor:    q.Get("instructor"),
			CatalogNumber: q.Get("catalog_number"),
			Units:         q.Get("units"),
			Component:     q.Get("component"),
		}

		sections, err := s.catalog.Search(r.Context(), p.ByName("subject"), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sections)
	}
}

func (s Server) reviewHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var body reviewBody
		if err := decode(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		review := coursecart.Review{Subject: body.Subject, CatalogNumber: body.CatalogNumber, Text: body.Text}
		if err := s.catalog.SubmitReview(r.Context(), review); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (s Server) getCartHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		cart, err := s.cart.Get(r.Context(), userFrom(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	}
}

// addToCartHandler answers 201 when the section was added and 409 when it repeats or overlaps
// something already in the cart. Both carry the same body.
func (s Server) addToCartHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		n, err := courseNumber(p)
		if err != nil {
			writeError(w, r, err)
			return
		}

		result, err := s.cart.Add(r.Context(), userFrom(r.Context()), n)
		if err != nil {
			writeError(w, r, err)
			return
		}

		status := http.StatusCreated
		if !result.Added() {
			status = http.StatusConflict
		}
		writeJSON(w, status, result)
	}
}

func (s Server) removeFromCartHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		n, err := courseNumber(p)
		if err != nil {
			writeError(w, r, err)
			return
		}

		cart, err := s.cart.Remove(r.Context(), userFrom(r.Context()), n)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	}
}

func (s Server) scheduleHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		view, err := s.schedule.View(r.Context(), userFrom(r.Context()), p.ByName("owner"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s Server) commentHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var body commentBody
		if err := decode(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		comment, err := s.schedule.Comment(r.Context(), userFrom(r.Context()), p.ByName("owner"), body.Message)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	}
}

func (s Server) deleteCommentHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := s.schedule.DeleteComment(r.Context(), userFrom(r.Context()), p.ByName("id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) listFriendsHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		friends, err := s.friends.List(r.Context(), userFrom(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, friends)
	}
}

func (s Server) unfriendHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := s.friends.Unfriend(r.Context(), userFrom(r.Context()), p.ByName("username")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) listRequestsHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		requests, err := s.friends.Requests(r.Context(), userFrom(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)
	}
}

func (s Server) sendRequestHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var body friendRequestBody
		if err := decode(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		if err := s.friends.Send(r.Context(), userFrom(r.Context()), body.Username); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (s Server) acceptRequestHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := s.friends.Accept(r.Context(), userFrom(r.Context()), p.ByName("sender")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) declineRequestHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := s.friends.Decline(r.Context(), userFrom(r.Context()), p.ByName("sender")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) cancelRequestHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := s.friends.Cancel(r.Context(), userFrom(r.Context()), p.ByName("receiver")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) searchUsersHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		query := strings.TrimSpace(r.URL.Query().Get("search"))
		if query == "" {
			writeError(w, r, fmt.Errorf("%w: search must not be empty", coursecart.ErrInvalidRequest))
			return
		}

		users, err := s.friends.Search(r.Context(), userFrom(r.Context()), query)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func (s Server) profileHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		viewer := userFrom(r.Context())
		owner := p.ByName("owner")
		if owner == "" {
			owner = viewer
		}

		view, err := s.profiles.View(r.Context(), viewer, owner)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s Server) updateProfileHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var body profileBody
		if err := decode(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		updated, err := s.profiles.Update(r.Context(), userFrom(r.Context()), profile.Edit(body))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}
