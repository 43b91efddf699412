package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProgressTracker_RepeatedRecordsLeaveOneEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newReader(t, s, "p@example.com")
	b := newBook(t, s, "Dune")

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tracker := NewProgressTracker(s, validation.New(), discard)
	tracker.now = fixedClock(start, time.Minute)

	var last time.Time
	for page := 1; page <= 5; page++ {
		entry, err := tracker.Record(ctx, u.ID, ProgressInput{BookID: b.ID.Hex(), CurrentPage: page, TotalPages: 100})
		require.NoError(t, err)
		last = entry.LastRead
	}

	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.ReadingProgress, 1)
	assert.Equal(t, 5, got.ReadingProgress[0].CurrentPage)
	assert.True(t, got.ReadingProgress[0].LastRead.Equal(last))
	assert.True(t, last.Equal(start.Add(4*time.Minute)))

	book, err := s.BookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.Reads)
}

func TestProgressTracker_FiveThenSix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newReader(t, s, "u1@example.com")
	b := newBook(t, s, "b1")
	tracker := NewProgressTracker(s, validation.New(), discard)

	_, err := tracker.Record(ctx, u.ID, ProgressInput{BookID: b.ID.Hex(), CurrentPage: 5, TotalPages: 100})
	require.NoError(t, err)
	_, err = tracker.Record(ctx, u.ID, ProgressInput{BookID: b.ID.Hex(), CurrentPage: 6, TotalPages: 100})
	require.NoError(t, err)

	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.ReadingProgress, 1)
	assert.Equal(t, b.ID, got.ReadingProgress[0].BookID)
	assert.Equal(t, 6, got.ReadingProgress[0].CurrentPage)
}

func TestProgressTracker_ConcurrentRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newReader(t, s, "race@example.com")
	b := newBook(t, s, "Raced")
	tracker := NewProgressTracker(s, validation.New(), discard)

	var wg sync.WaitGroup
	for page := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.Record(ctx, u.ID, ProgressInput{BookID: b.ID.Hex(), CurrentPage: page, TotalPages: 50})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, got.ReadingProgress, 1)
	book, err := s.BookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.Reads)
}

func TestProgressTracker_CountsEachReaderOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := newBook(t, s, "Popular")
	tracker := NewProgressTracker(s, validation.New(), discard)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := newReader(t, s, email)
		for range 3 {
			_, err := tracker.Record(ctx, u.ID, ProgressInput{BookID: b.ID.Hex(), CurrentPage: 1, TotalPages: 10})
			require.NoError(t, err)
		}
	}
	book, err := s.BookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), book.Reads)
}

func TestProgressTracker_Errors(t *testing.T) {
	s := newTestStore(t)
	u := newReader(t, s, "e@example.com")
	b := newBook(t, s, "Edge")
	tracker := NewProgressTracker(s, validation.New(), discard)

	tests := []struct {
		name    string
		in      ProgressInput
		wantErr error
	}{
		{name: "malformed book id", in: ProgressInput{BookID: "nope", CurrentPage: 1}, wantErr: errs.ErrValidation},
		{name: "missing book id", in: ProgressInput{CurrentPage: 1}, wantErr: errs.ErrValidation},
		{name: "negative page", in: ProgressInput{BookID: b.ID.Hex(), CurrentPage: -1}, wantErr: errs.ErrValidation},
		{name: "unknown book", in: ProgressInput{BookID: primitive.NewObjectID().Hex(), CurrentPage: 1}, wantErr: errs.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracker.Record(context.Background(), u.ID, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProgressTracker_AcceptsPageBeyondTotal(t *testing.T) {
	s := newTestStore(t)
	u := newReader(t, s, "over@example.com")
	b := newBook(t, s, "Short")
	tracker := NewProgressTracker(s, validation.New(), discard)

	entry, err := tracker.Record(context.Background(), u.ID, ProgressInput{BookID: b.ID.Hex(), CurrentPage: 500, TotalPages: 10})
	require.NoError(t, err)
	assert.Equal(t, 500, entry.CurrentPage)
}
