package service

import (
	"context"

	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FavoritesRegistry struct {
	store store.Store
}

func NewFavoritesRegistry(s store.Store) *FavoritesRegistry {
	return &FavoritesRegistry{store: s}
}

// Toggle flips the book's membership in the user's favorites and returns the
// resulting set, and whether the book is now a member.
func (f *FavoritesRegistry) Toggle(ctx context.Context, userID, bookID primitive.ObjectID) ([]primitive.ObjectID, bool, error) {
	if _, err := f.store.BookByID(ctx, bookID); err != nil {
		return nil, false, storeErr(err, "book")
	}
	favs, err := f.store.ToggleFavorite(ctx, userID, bookID)
	if err != nil {
		return nil, false, storeErr(err, "user")
	}
	for _, id := range favs {
		if id == bookID {
			return favs, true, nil
		}
	}
	return favs, false, nil
}

// List returns the user's favorite books in the order they were added.
// Favorites whose book no longer exists are skipped.
func (f *FavoritesRegistry) List(ctx context.Context, userID primitive.ObjectID) ([]models.Book, error) {
	user, err := f.store.UserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return booksInOrder(ctx, f.store, user.Favorites)
}

func booksInOrder(ctx context.Context, s store.BookStore, ids []primitive.ObjectID) ([]models.Book, error) {
	books, err := s.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	byID := make(map[primitive.ObjectID]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	out := make([]models.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}
