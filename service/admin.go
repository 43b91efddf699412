package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	recentPerKind = 3
	activityLimit = 5
)

type DashboardStats struct {
	Counts         models.LibraryCounts `json:"counts"`
	RecentActivity []models.Activity    `json:"recentActivity"`
}

type UserSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Role      string             `json:"role"`
	IsBlocked bool               `json:"isBlocked"`
	CreatedAt time.Time          `json:"createdAt"`
	Stats     models.UserStats   `json:"stats"`
}

type Admin struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
}

func NewAdmin(s store.Store, n Notifier, logger *slog.Logger) *Admin {
	if n == nil {
		n = NopNotifier{}
	}
	return &Admin{store: s, notifier: n, logger: logger}
}

// Stats returns library totals and the newest sign-ups and reviews merged by date.
func (a *Admin) Stats(ctx context.Context) (*DashboardStats, error) {
	counts, err := a.store.Counts(ctx)
	if err != nil {
		return nil, storeErr(err, "stats")
	}
	users, err := a.store.RecentUsers(ctx, recentPerKind)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	reviews, err := a.store.RecentReviews(ctx, recentPerKind)
	if err != nil {
		return nil, storeErr(err, "review")
	}

	bookIDs := make([]primitive.ObjectID, len(reviews))
	for i, r := range reviews {
		bookIDs[i] = r.BookID
	}
	books, err := a.store.BooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	titles := make(map[primitive.ObjectID]string, len(books))
	for _, b := range books {
		titles[b.ID] = b.Title
	}

	activity := make([]models.Activity, 0, len(users)+len(reviews))
	for _, u := range users {
		activity = append(activity, models.Activity{
			ID: u.ID, User: u.Name, Content: "Member", Action: "Joined Library", Date: u.CreatedAt, Type: "user",
		})
	}
	for _, r := range reviews {
		name := r.Name
		if name == "" {
			name = "Anonymous"
		}
		title, ok := titles[r.BookID]
		if !ok {
			title = "Deleted Book"
		}
		activity = append(activity, models.Activity{
			ID: r.ID, User: name, Content: title, Action: fmt.Sprintf("Rated %d Stars", r.Rating), Date: r.CreatedAt, Type: "review",
		})
	}
	sort.SliceStable(activity, func(i, j int) bool { return activity[i].Date.After(activity[j].Date) })
	if len(activity) > activityLimit {
		activity = activity[:activityLimit]
	}
	return &DashboardStats{Counts: counts, RecentActivity: activity}, nil
}

func (a *Admin) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		n, err := a.store.CountReviewsByUser(ctx, u.ID)
		if err != nil {
			return nil, storeErr(err, "user")
		}
		out = append(out, UserSummary{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			IsBlocked: u.IsBlocked,
			CreatedAt: u.CreatedAt,
			Stats: models.UserStats{
				BooksRead: len(u.ReadingProgress),
				Favorites: len(u.Favorites),
				Reviews:   n,
			},
		})
	}
	return out, nil
}

// ToggleBlock flips the target's block flag. It takes effect on the target's
// next request since every request re-reads the flag.
func (a *Admin) ToggleBlock(ctx context.Context, actor *models.User, targetID primitive.ObjectID) (bool, error) {
	if actor.ID == targetID {
		return false, errs.Validation("you cannot block yourself")
	}
	blocked, err := a.store.ToggleBlocked(ctx, targetID)
	if err != nil {
		return false, storeErr(err, "user")
	}
	a.logger.InfoContext(ctx, "user block toggled",
		"admin_id", actor.ID.Hex(), "user_id", targetID.Hex(), "blocked", blocked)

	if target, err := a.store.UserByID(ctx, targetID); err == nil {
		if err := a.notifier.SuspensionChanged(ctx, target, blocked); err != nil {
			a.logger.WarnContext(ctx, "suspension notice not sent", "user_id", targetID.Hex(), "error", err)
		}
	}
	return blocked, nil
}

// DeleteUser removes the account and its reviews, then recomputes every book
// that lost a review.
func (a *Admin) DeleteUser(ctx context.Context, actor *models.User, targetID primitive.ObjectID) error {
	if actor.ID == targetID {
		return errs.Validation("you cannot delete your own admin account")
	}
	if _, err := a.store.UserByID(ctx, targetID); err != nil {
		return storeErr(err, "user")
	}
	books, err := a.store.DeleteReviewsByUser(ctx, targetID)
	if err != nil {
		return storeErr(err, "review")
	}
	if err := a.store.DeleteUser(ctx, targetID); err != nil {
		return storeErr(err, "user")
	}
	for _, bookID := range books {
		if _, err := a.store.RecomputeRating(ctx, bookID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return storeErr(err, "book")
		}
	}
	a.logger.InfoContext(ctx, "user deleted", "admin_id", actor.ID.Hex(), "user_id", targetID.Hex(), "books_recomputed", len(books))
	return nil
}
