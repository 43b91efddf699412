// Package store defines the persistence contract and its MongoDB implementation.
// The sqlite subpackage provides an embedded implementation of the same contract.
package store

import (
	"context"
	"errors"

	"github.com/kevinaaaquil/shelf/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Store is implemented by *DB (MongoDB) and *sqlite.Store.
//
// Operations that carry an invariant are atomic in every implementation:
// ReplaceProgress leaves exactly one entry per (user, book), MarkFirstRead
// reports true at most once per (user, book), ToggleFavorite and
// ToggleBlocked flip state in a single write.
type Store interface {
	UserStore
	BookStore
	ReviewStore

	Counts(ctx context.Context) (models.LibraryCounts, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	RecentUsers(ctx context.Context, limit int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) error
	ToggleBlocked(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error

	// ReplaceProgress discards any entry for (userID, entry.BookID) and appends entry.
	ReplaceProgress(ctx context.Context, userID primitive.ObjectID, entry models.ProgressEntry) error
	// MarkFirstRead records (userID, bookID) in the read ledger. When the pair is new
	// it recomputes the book's read counter from the ledger and returns true.
	MarkFirstRead(ctx context.Context, userID, bookID primitive.ObjectID) (bool, error)
	// ToggleFavorite flips membership of bookID and returns the resulting set.
	ToggleFavorite(ctx context.Context, userID, bookID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type BookStore interface {
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error)
	ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, error)
	ToggleTrending(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	// DeleteBook removes the book with its reviews, ledger rows, favorites and progress entries.
	DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
}

type ReviewStore interface {
	InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error)
	ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ReviewFor(ctx context.Context, userID, bookID primitive.ObjectID) (*models.Review, error)
	ReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.Review, error)
	RecentReviews(ctx context.Context, limit int) ([]models.Review, error)
	CountReviewsByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
	// DeleteReviewsByUser returns the ids of books that lost a review.
	DeleteReviewsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	// RecomputeRating rewrites the book's rating and numReviews from its live reviews.
	RecomputeRating(ctx context.Context, bookID primitive.ObjectID) (models.RatingSummary, error)
}
