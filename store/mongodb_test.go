package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newTestDB connects to MONGODB_TEST_URI and uses a throwaway database.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	name := fmt.Sprintf("shelf_test_%d", time.Now().UnixNano())
	db, err := NewMongoDB(ctx, uri, name, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Database.Drop(context.Background())
		db.Close(context.Background())
	})
	return db
}

func TestMongo_ReadCounterOncePerPair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	uid, err := db.CreateUser(ctx, &models.User{Name: "r", Email: "r@example.com", Role: models.RoleReader, CreatedAt: time.Now()})
	require.NoError(t, err)
	bid, err := db.InsertBook(ctx, &models.Book{Title: "t", Author: "a", CreatedAt: time.Now()})
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		firsts int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := db.MarkFirstRead(ctx, uid, bid)
			assert.NoError(t, err)
			if first {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, firsts)

	book, err := db.BookByID(ctx, bid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.Reads)
}

func TestMongo_ProgressAndFavorites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	uid, err := db.CreateUser(ctx, &models.User{Name: "p", Email: "p@example.com", Role: models.RoleReader, CreatedAt: time.Now()})
	require.NoError(t, err)
	bid := primitive.NewObjectID()

	for page := 1; page <= 3; page++ {
		require.NoError(t, db.ReplaceProgress(ctx, uid, models.ProgressEntry{BookID: bid, CurrentPage: page, TotalPages: 10, LastRead: time.Now()}))
	}
	u, err := db.UserByID(ctx, uid)
	require.NoError(t, err)
	require.Len(t, u.ReadingProgress, 1)
	assert.Equal(t, 3, u.ReadingProgress[0].CurrentPage)

	favs, err := db.ToggleFavorite(ctx, uid, bid)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{bid}, favs)
	favs, err = db.ToggleFavorite(ctx, uid, bid)
	require.NoError(t, err)
	assert.Empty(t, favs)

	blocked, err := db.ToggleBlocked(ctx, uid)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestMongo_RecomputeRating(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bid, err := db.InsertBook(ctx, &models.Book{Title: "t", Author: "a", CreatedAt: time.Now()})
	require.NoError(t, err)
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()

	_, err = db.InsertReview(ctx, &models.Review{BookID: bid, UserID: u1, Rating: 2, Comment: "x", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = db.InsertReview(ctx, &models.Review{BookID: bid, UserID: u1, Rating: 5, Comment: "y", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = db.InsertReview(ctx, &models.Review{BookID: bid, UserID: u2, Rating: 4, Comment: "z", CreatedAt: time.Now()})
	require.NoError(t, err)

	sum, err := db.RecomputeRating(ctx, bid)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.NumReviews)
	assert.InDelta(t, 3.0, sum.Rating, 1e-9)
}
