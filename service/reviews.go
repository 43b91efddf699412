package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/metrics"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"github.com/kevinaaaquil/shelf/backend/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" validate:"notblank,max=2000"`
}

// ReviewAggregator enforces one review per (user, book) and rewrites the
// book's rating from its full review set after every change.
type ReviewAggregator struct {
	store    store.Store
	validate *validation.Validator
	logger   *slog.Logger
	now      func() time.Time
}

func NewReviewAggregator(s store.Store, v *validation.Validator, logger *slog.Logger) *ReviewAggregator {
	return &ReviewAggregator{store: s, validate: v, logger: logger, now: time.Now}
}

var errAlreadyReviewed = errs.Conflict("you have already reviewed this book")

func (a *ReviewAggregator) Submit(ctx context.Context, user *models.User, bookID primitive.ObjectID, in ReviewInput) (*models.Review, models.RatingSummary, error) {
	if err := a.validate.Validate(in); err != nil {
		metrics.ReviewsSubmitted.WithLabelValues("invalid").Inc()
		return nil, models.RatingSummary{}, err
	}
	if _, err := a.store.BookByID(ctx, bookID); err != nil {
		return nil, models.RatingSummary{}, storeErr(err, "book")
	}

	existing, err := a.store.ReviewFor(ctx, user.ID, bookID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, models.RatingSummary{}, storeErr(err, "review")
	}
	if existing != nil {
		metrics.ReviewsSubmitted.WithLabelValues("conflict").Inc()
		return nil, models.RatingSummary{}, errAlreadyReviewed
	}

	review := &models.Review{
		BookID:    bookID,
		UserID:    user.ID,
		Name:      user.Name,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: a.now().UTC(),
	}
	id, err := a.store.InsertReview(ctx, review)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost the race to a concurrent submission for the same pair.
		metrics.ReviewsSubmitted.WithLabelValues("conflict").Inc()
		return nil, models.RatingSummary{}, errAlreadyReviewed
	}
	if err != nil {
		return nil, models.RatingSummary{}, storeErr(err, "review")
	}
	review.ID = id
	metrics.ReviewsSubmitted.WithLabelValues("created").Inc()

	sum, err := a.store.RecomputeRating(ctx, bookID)
	if err != nil {
		return nil, models.RatingSummary{}, storeErr(err, "book")
	}
	return review, sum, nil
}

// Delete removes a review. Only its author or an admin may do so.
func (a *ReviewAggregator) Delete(ctx context.Context, actor *models.User, bookID, reviewID primitive.ObjectID) (models.RatingSummary, error) {
	review, err := a.store.ReviewByID(ctx, reviewID)
	if err != nil {
		return models.RatingSummary{}, storeErr(err, "review")
	}
	if review.BookID != bookID {
		return models.RatingSummary{}, errs.NotFound("review not found")
	}
	if review.UserID != actor.ID && !actor.IsAdmin() {
		return models.RatingSummary{}, errs.ForbiddenRole("only the author or an admin can delete this review")
	}
	if err := a.store.DeleteReview(ctx, reviewID); err != nil {
		return models.RatingSummary{}, storeErr(err, "review")
	}
	sum, err := a.store.RecomputeRating(ctx, bookID)
	if err != nil {
		return models.RatingSummary{}, storeErr(err, "book")
	}
	return sum, nil
}

// ListForBook returns the book's reviews, newest first.
func (a *ReviewAggregator) ListForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.Review, error) {
	reviews, err := a.store.ReviewsForBook(ctx, bookID)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	return reviews, nil
}
