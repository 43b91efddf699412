package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/kevinaaaquil/shelf/backend/metrics"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"github.com/kevinaaaquil/shelf/backend/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProgressInput struct {
	BookID      string `json:"bookId" validate:"required,objectid"`
	CurrentPage int    `json:"currentPage" validate:"gte=0"`
	TotalPages  int    `json:"totalPages" validate:"gte=0"`
}

// ProgressTracker keeps one progress entry per (user, book) and counts each
// pair's first read exactly once.
type ProgressTracker struct {
	store    store.Store
	validate *validation.Validator
	logger   *slog.Logger
	now      func() time.Time
}

func NewProgressTracker(s store.Store, v *validation.Validator, logger *slog.Logger) *ProgressTracker {
	return &ProgressTracker{store: s, validate: v, logger: logger, now: time.Now}
}

// Record replaces the caller's entry for the book with one stamped now.
// Pages are only bounds-checked; currentPage beyond totalPages is stored as given.
func (t *ProgressTracker) Record(ctx context.Context, userID primitive.ObjectID, in ProgressInput) (models.ProgressEntry, error) {
	if err := t.validate.Validate(in); err != nil {
		return models.ProgressEntry{}, err
	}
	bookID, err := ParseID(in.BookID, "bookId")
	if err != nil {
		return models.ProgressEntry{}, err
	}
	if _, err := t.store.BookByID(ctx, bookID); err != nil {
		return models.ProgressEntry{}, storeErr(err, "book")
	}

	first, err := t.store.MarkFirstRead(ctx, userID, bookID)
	if err != nil {
		return models.ProgressEntry{}, storeErr(err, "book")
	}
	if first {
		metrics.FirstReads.Inc()
		t.logger.DebugContext(ctx, "first read recorded", "user_id", userID.Hex(), "book_id", bookID.Hex())
	}

	entry := models.ProgressEntry{
		BookID:      bookID,
		CurrentPage: in.CurrentPage,
		TotalPages:  in.TotalPages,
		LastRead:    t.now().UTC(),
	}
	if err := t.store.ReplaceProgress(ctx, userID, entry); err != nil {
		return models.ProgressEntry{}, storeErr(err, "user")
	}
	return entry, nil
}
