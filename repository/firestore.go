package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/config"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ coursecart.Repository = FirestoreRepository{}

type FirestoreRepository struct {
	firestore *firestore.Client
	cfg       config.Firestore
}

type FirestoreCart struct {
	CourseNumbers []int `firestore:"courseNumbers"`
}

type FirestoreRequest struct {
	Sender    string    `firestore:"sender"`
	Receiver  string    `firestore:"receiver"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type FirestoreFriendship struct {
	Users []string `firestore:"users"`
}

type FirestoreComment struct {
	Sender    string    `firestore:"sender"`
	Receiver  string    `firestore:"receiver"`
	Message   string    `firestore:"message"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type FirestoreReview struct {
	Subject       string    `firestore:"subject"`
	CatalogNumber string    `firestore:"catalogNumber"`
	Text          string    `firestore:"text"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

func newFirestoreRepository(ctx context.Context, cfg config.Firestore) (FirestoreRepository, error) {
	// Create a new Firestore client using application default credentials.
	if cfg.CredentialsFile == "" {
		client, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return FirestoreRepository{}, err
		}

		return FirestoreRepository{client, cfg}, nil
	}

	// Create a new Firestore client using supplied credentials file.
	client, err := firestore.NewClient(ctx, cfg.ProjectID, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return FirestoreRepository{}, err
	}

	return FirestoreRepository{client, cfg}, nil
}

func (f FirestoreRepository) Close() error {
	return f.firestore.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (f FirestoreRepository) UpsertSubjects(ctx context.Context, subjects []coursecart.Subject) error {
	writer := f.firestore.BulkWriter(ctx)

	var jobs []*firestore.BulkWriterJob
	for _, subject := range subjects {
		job, err := writer.Set(f.firestore.Collection(f.cfg.SubjectCollectionID).Doc(subject.Code), subject)
		if err != nil {
			writer.End()
			return fmt.Errorf("failed to enqueue subject %s: %w", subject.Code, err)
		}
		jobs = append(jobs, job)
	}

	return awaitJobs(writer, jobs)
}

func (f FirestoreRepository) ListSubjects(ctx context.Context) ([]coursecart.Subject, error) {
	documents, err := f.firestore.Collection(f.cfg.SubjectCollectionID).OrderBy("Code", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get all documents in subjects collection: %w", err)
	}

	var results []coursecart.Subject
	for _, document := range documents {
		var result coursecart.Subject
		err = document.DataTo(&result)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize document: %w", err)
		}

		results = append(results, result)
	}

	return results, nil
}

func (f FirestoreRepository) sectionRef(courseNumber int) *firestore.DocumentRef {
	return f.firestore.Collection(f.cfg.SectionCollectionID).Doc(strconv.Itoa(courseNumber))
}

func (f FirestoreRepository) UpsertSections(ctx context.Context, sections []coursecart.Section) error {
	writer := f.firestore.BulkWriter(ctx)

	var jobs []*firestore.BulkWriterJob
	for _, section := range sections {
		job, err := writer.Set(f.sectionRef(section.CourseNumber), section)
		if err != nil {
			writer.End()
			return fmt.Errorf("failed to enqueue section %s: %w", section, err)
		}
		jobs = append(jobs, job)
	}

	return awaitJobs(writer, jobs)
}

// flushes the writer and reports the first failed write
func awaitJobs(writer *firestore.BulkWriter, jobs []*firestore.BulkWriterJob) error {
	writer.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("bulk write failed: %w", err)
		}
	}

	return nil
}

func (f FirestoreRepository) GetSection(ctx context.Context, courseNumber int) (coursecart.Section, error) {
	document, err := f.sectionRef(courseNumber).Get(ctx)
	if isNotFound(err) {
		return coursecart.Section{}, fmt.Errorf("section %d: %w", courseNumber, coursecart.ErrNotFound)
	} else if err != nil {
		return coursecart.Section{}, fmt.Errorf("failed to get section %d: %w", courseNumber, err)
	}

	var section coursecart.Section
	if err := document.DataTo(&section); err != nil {
		return coursecart.Section{}, fmt.Errorf("failed to deserialize document: %w", err)
	}

	return section, nil
}

func (f FirestoreRepository) ListSections(ctx context.Context, subject string) ([]coursecart.Section, error) {
	documents, err := f.firestore.Collection(f.cfg.SectionCollectionID).Where("Subject", "==", subject).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get matching section documents: %w", err)
	}

	sections, err := sectionsFrom(documents)
	if err != nil {
		return nil, err
	}

	// same order as the sqlite repository, without needing a composite index
	sort.Slice(sections, func(i, j int) bool {
		a, b := sections[i], sections[j]
		if a.CatalogNumber != b.CatalogNumber {
			return a.CatalogNumber < b.CatalogNumber
		}
		if a.CourseSection != b.CourseSection {
			return a.CourseSection < b.CourseSection
		}
		return a.CourseNumber < b.CourseNumber
	})

	return sections, nil
}

func sectionsFrom(documents []*firestore.DocumentSnapshot) ([]coursecart.Section, error) {
	var results []coursecart.Section
	for _, document := range documents {
		if !document.Exists() {
			continue
		}

		var result coursecart.Section
		err := document.DataTo(&result)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize document: %w", err)
		}

		results = append(results, result)
	}

	return results, nil
}

func (f FirestoreRepository) AddReview(ctx context.Context, review coursecart.Review) error {
	_, _, err := f.firestore.Collection(f.cfg.ReviewCollectionID).Add(ctx, FirestoreReview{
		Subject:       strings.ToUpper(review.Subject),
		CatalogNumber: review.CatalogNumber,
		Text:          review.Text,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to write review to collection: %w", err)
	}
	return nil
}

func (f FirestoreRepository) ListReviews(ctx context.Context, subject, catalogNumber string) ([]coursecart.Review, error) {
	documents, err := f.firestore.Collection(f.cfg.ReviewCollectionID).Where("subject", "==", strings.ToUpper(subject)).Where("catalogNumber", "==", catalogNumber).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get matching review documents: %w", err)
	}

	var stored []FirestoreReview
	for _, document := range documents {
		var review FirestoreReview
		if err := document.DataTo(&review); err != nil {
			return nil, fmt.Errorf("failed to deserialize document: %w", err)
		}
		stored = append(stored, review)
	}

	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].CreatedAt.Before(stored[j].CreatedAt)
	})

	var results []coursecart.Review
	for _, review := range stored {
		results = append(results, coursecart.Review{Subject: review.Subject, CatalogNumber: review.CatalogNumber, Text: review.Text})
	}

	return results, nil
}

func (f FirestoreRepository) cartRef(user string) *firestore.DocumentRef {
	return f.firestore.Collection(f.cfg.CartCollectionID).Doc(user)
}

func (f FirestoreRepository) GetCart(ctx context.Context, user string) ([]coursecart.Section, error) {
	document, err := f.cartRef(user).Get(ctx)
	if isNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get cart of %s: %w", user, err)
	}

	var cart FirestoreCart
	if err := document.DataTo(&cart); err != nil {
		return nil, fmt.Errorf("failed to deserialize document: %w", err)
	}
	if len(cart.CourseNumbers) == 0 {
		return nil, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(cart.CourseNumbers))
	for _, courseNumber := range cart.CourseNumbers {
		refs = append(refs, f.sectionRef(courseNumber))
	}

	// GetAll keeps the order of refs
	documents, err := f.firestore.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart sections: %w", err)
	}

	return sectionsFrom(documents)
}

func (f FirestoreRepository) AddToCart(ctx context.Context, user string, courseNumber int, admit coursecart.CartAdmit) (bool, error) {
	var added bool

	err := f.firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		added = false

		if _, err := tx.Get(f.sectionRef(courseNumber)); isNotFound(err) {
			return fmt.Errorf("section %d: %w", courseNumber, coursecart.ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("failed to get section %d: %w", courseNumber, err)
		}

		cart, err := readCart(tx, f.cartRef(user))
		if err != nil {
			return err
		}

		if admit == nil {
			for _, existing := range cart.CourseNumbers {
				if existing == courseNumber {
					return nil
				}
			}
		} else {
			// the sections are read in the transaction too, so a concurrent write to the cart aborts and retries this one
			stored, err := f.cartSections(tx, cart)
			if err != nil {
				return err
			}
			if !admit(stored) {
				return nil
			}
		}

		cart.CourseNumbers = append(cart.CourseNumbers, courseNumber)
		added = true
		return tx.Set(f.cartRef(user), cart)
	})
	if err != nil {
		return false, err
	}

	return added, nil
}

func (f FirestoreRepository) cartSections(tx *firestore.Transaction, cart FirestoreCart) ([]coursecart.Section, error) {
	if len(cart.CourseNumbers) == 0 {
		return nil, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(cart.CourseNumbers))
	for _, courseNumber := range cart.CourseNumbers {
		refs = append(refs, f.sectionRef(courseNumber))
	}

	documents, err := tx.GetAll(refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart sections: %w", err)
	}

	return sectionsFrom(documents)
}

func (f FirestoreRepository) RemoveFromCart(ctx context.Context, user string, courseNumber int) error {
	return f.firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cart, err := readCart(tx, f.cartRef(user))
		if err != nil {
			return err
		}

		kept := make([]int, 0, len(cart.CourseNumbers))
		for _, existing := range cart.CourseNumbers {
			if existing != courseNumber {
				kept = append(kept, existing)
			}
		}
		if len(kept) == len(cart.CourseNumbers) {
			return nil
		}

		return tx.Set(f.cartRef(user), FirestoreCart{CourseNumbers: kept})
	})
}

func readCart(tx *firestore.Transaction, ref *firestore.DocumentRef) (FirestoreCart, error) {
	var cart FirestoreCart

	document, err := tx.Get(ref)
	if isNotFound(err) {
		return cart, nil
	} else if err != nil {
		return cart, fmt.Errorf("failed to get cart: %w", err)
	}

	if err := document.DataTo(&cart); err != nil {
		return cart, fmt.Errorf("failed to deserialize document: %w", err)
	}

	return cart, nil
}

func (f FirestoreRepository) GetProfile(ctx context.Context, user string) (coursecart.Profile, error) {
	document, err := f.firestore.Collection(f.cfg.ProfileCollectionID).Doc(user).Get(ctx)
	if isNotFound(err) {
		return coursecart.Profile{}, fmt.Errorf("profile %s: %w", user, coursecart.ErrNotFound)
	} else if err != nil {
		return coursecart.Profile{}, fmt.Errorf("failed to get profile %s: %w", user, err)
	}

	var profile coursecart.Profile
	if err := document.DataTo(&profile); err != nil {
		return coursecart.Profile{}, fmt.Errorf("failed to deserialize document: %w", err)
	}

	return profile, nil
}

func (f FirestoreRepository) SaveProfile(ctx context.Context, profile coursecart.Profile) error {
	_, err := f.firestore.Collection(f.cfg.ProfileCollectionID).Doc(profile.Username).Set(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to write profile %s: %w", profile.Username, err)
	}
	return nil
}

// firestore has no substring queries, so matching happens client side
func (f FirestoreRepository) SearchProfiles(ctx context.Context, query string) ([]coursecart.Profile, error) {
	documents, err := f.firestore.Collection(f.cfg.ProfileCollectionID).OrderBy("Username", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get all documents in profiles collection: %w", err)
	}

	query = strings.ToLower(query)

	var results []coursecart.Profile
	for _, document := range documents {
		var profile coursecart.Profile
		if err := document.DataTo(&profile); err != nil {
			return nil, fmt.Errorf("failed to deserialize document: %w", err)
		}

		if strings.Contains(strings.ToLower(profile.Username), query) {
			results = append(results, profile)
		}
	}

	return results, nil
}

func (f FirestoreRepository) requestRef(sender, receiver string) *firestore.DocumentRef {
	return f.firestore.Collection(f.cfg.RequestCollectionID).Doc(sender + "|" + receiver)
}

func (f FirestoreRepository) friendshipRef(userA, userB string) *firestore.DocumentRef {
	a, b := edge(userA, userB)
	return f.firestore.Collection(f.cfg.FriendshipCollectionID).Doc(a + "|" + b)
}

func (f FirestoreRepository) CreateFriendRequest(ctx context.Context, request coursecart.FriendRequest) error {
	_, err := f.requestRef(request.Sender, request.Receiver).Create(ctx, FirestoreRequest{
		Sender:    request.Sender,
		Receiver:  request.Receiver,
		CreatedAt: request.CreatedAt.UTC(),
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to write friend request %s: %w", request, err)
	}
	return nil
}

func (f FirestoreRepository) GetFriendRequest(ctx context.Context, sender, receiver string) (coursecart.FriendRequest, error) {
	document, err := f.requestRef(sender, receiver).Get(ctx)
	if isNotFound(err) {
		return coursecart.FriendRequest{}, fmt.Errorf("friend request %s->%s: %w", sender, receiver, coursecart.ErrNotFound)
	} else if err != nil {
		return coursecart.FriendRequest{}, fmt.Errorf("failed to get friend request %s->%s: %w", sender, receiver, err)
	}

	var request FirestoreRequest
	if err := document.DataTo(&request); err != nil {
		return coursecart.FriendRequest{}, fmt.Errorf("failed to deserialize document: %w", err)
	}

	return coursecart.FriendRequest(request), nil
}

func (f FirestoreRepository) ListFriendRequests(ctx context.Context, user string) ([]coursecart.FriendRequest, []coursecart.FriendRequest, error) {
	incoming, err := f.queryFriendRequests(ctx, "receiver", user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list incoming requests: %w", err)
	}

	outgoing, err := f.queryFriendRequests(ctx, "sender", user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list outgoing requests: %w", err)
	}

	return incoming, outgoing, nil
}

func (f FirestoreRepository) queryFriendRequests(ctx context.Context, field, user string) ([]coursecart.FriendRequest, error) {
	documents, err := f.firestore.Collection(f.cfg.RequestCollectionID).Where(field, "==", user).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	var results []coursecart.FriendRequest
	for _, document := range documents {
		var request FirestoreRequest
		if err := document.DataTo(&request); err != nil {
			return nil, fmt.Errorf("failed to deserialize document: %w", err)
		}
		results = append(results, coursecart.FriendRequest(request))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})

	return results, nil
}

func (f FirestoreRepository) DeleteFriendRequest(ctx context.Context, sender, receiver string) error {
	_, err := f.requestRef(sender, receiver).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return fmt.Errorf("friend request %s->%s: %w", sender, receiver, coursecart.ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("failed to delete friend request %s->%s: %w", sender, receiver, err)
	}
	return nil
}

func (f FirestoreRepository) AcceptFriendRequest(ctx context.Context, sender, receiver string) error {
	return f.firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := f.requestRef(sender, receiver)
		if _, err := tx.Get(ref); isNotFound(err) {
			return fmt.Errorf("friend request %s->%s: %w", sender, receiver, coursecart.ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("failed to get friend request: %w", err)
		}

		if err := tx.Delete(ref); err != nil {
			return fmt.Errorf("failed to delete friend request: %w", err)
		}
		// a request in the other direction is answered by the same friendship
		if err := tx.Delete(f.requestRef(receiver, sender)); err != nil {
			return fmt.Errorf("failed to delete reverse friend request: %w", err)
		}

		a, b := edge(sender, receiver)
		return tx.Set(f.friendshipRef(a, b), FirestoreFriendship{Users: []string{a, b}})
	})
}

func (f FirestoreRepository) RemoveFriendship(ctx context.Context, userA, userB string) error {
	_, err := f.friendshipRef(userA, userB).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return fmt.Errorf("friendship %s-%s: %w", userA, userB, coursecart.ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	return nil
}

func (f FirestoreRepository) ListFriends(ctx context.Context, user string) ([]string, error) {
	documents, err := f.firestore.Collection(f.cfg.FriendshipCollectionID).Where("users", "array-contains", user).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get matching friendship documents: %w", err)
	}

	var friends []string
	for _, document := range documents {
		var friendship FirestoreFriendship
		if err := document.DataTo(&friendship); err != nil {
			return nil, fmt.Errorf("failed to deserialize document: %w", err)
		}

		for _, u := range friendship.Users {
			if u != user {
				friends = append(friends, u)
			}
		}
	}

	sort.Strings(friends)
	return friends, nil
}

func (f FirestoreRepository) AddComment(ctx context.Context, comment coursecart.Comment) (coursecart.Comment, error) {
	comment.CreatedAt = comment.CreatedAt.UTC()

	ref, _, err := f.firestore.Collection(f.cfg.CommentCollectionID).Add(ctx, FirestoreComment{
		Sender:    comment.Sender,
		Receiver:  comment.Receiver,
		Message:   comment.Message,
		CreatedAt: comment.CreatedAt,
	})
	if err != nil {
		return coursecart.Comment{}, fmt.Errorf("failed to write comment to collection: %w", err)
	}

	comment.ID = ref.ID
	return comment, nil
}

func (f FirestoreRepository) GetComment(ctx context.Context, id string) (coursecart.Comment, error) {
	if id == "" || strings.Contains(id, "/") {
		return coursecart.Comment{}, fmt.Errorf("comment %q: %w", id, coursecart.ErrNotFound)
	}

	document, err := f.firestore.Collection(f.cfg.CommentCollectionID).Doc(id).Get(ctx)
	if isNotFound(err) {
		return coursecart.Comment{}, fmt.Errorf("comment %s: %w", id, coursecart.ErrNotFound)
	} else if err != nil {
		return coursecart.Comment{}, fmt.Errorf("failed to get comment %s: %w", id, err)
	}

	return commentFrom(document)
}

func commentFrom(document *firestore.DocumentSnapshot) (coursecart.Comment, error) {
	var stored FirestoreComment
	if err := document.DataTo(&stored); err != nil {
		return coursecart.Comment{}, fmt.Errorf("failed to deserialize document: %w", err)
	}

	return coursecart.Comment{
		ID:        document.Ref.ID,
		Sender:    stored.Sender,
		Receiver:  stored.Receiver,
		Message:   stored.Message,
		CreatedAt: stored.CreatedAt,
	}, nil
}

func (f FirestoreRepository) DeleteComment(ctx context.Context, id string) error {
	if id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("comment %q: %w", id, coursecart.ErrNotFound)
	}

	_, err := f.firestore.Collection(f.cfg.CommentCollectionID).Doc(id).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return fmt.Errorf("comment %s: %w", id, coursecart.ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", id, err)
	}
	return nil
}

func (f FirestoreRepository) ListComments(ctx context.Context, receiver string) ([]coursecart.Comment, error) {
	documents, err := f.firestore.Collection(f.cfg.CommentCollectionID).Where("receiver", "==", receiver).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get matching comment documents: %w", err)
	}

	var results []coursecart.Comment
	for _, document := range documents {
		comment, err := commentFrom(document)
		if err != nil {
			return nil, err
		}
		results = append(results, comment)
	}

	// newest first
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	return results, nil
}
