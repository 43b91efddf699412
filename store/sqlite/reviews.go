package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const reviewColumns = `id, book_id, user_id, name, rating, comment, created_at`

func scanReview(row scanner) (*models.Review, error) {
	var (
		r                  models.Review
		id, bookID, userID string
		createdAt          string
	)
	if err := row.Scan(&id, &bookID, &userID, &r.Name, &r.Rating, &r.Comment, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if r.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if r.BookID, err = parseID(bookID); err != nil {
		return nil, err
	}
	if r.UserID, err = parseID(userID); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &r, nil
}

func (s *Store) InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	review.ID = newID(review.ID)
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID.Hex(), review.BookID.Hex(), review.UserID.Hex(), review.Name, review.Rating,
		review.Comment, formatTime(review.CreatedAt),
	)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return review.ID, nil
}

func (s *Store) ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id.Hex()))
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

func (s *Store) ReviewFor(ctx context.Context, userID, bookID primitive.ObjectID) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE book_id = ? AND user_id = ?`, bookID.Hex(), userID.Hex()))
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

func (s *Store) ReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.Review, error) {
	return s.queryReviews(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE book_id = ? ORDER BY created_at DESC`, bookID.Hex())
}

func (s *Store) RecentReviews(ctx context.Context, limit int) ([]models.Review, error) {
	return s.queryReviews(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC LIMIT ?`, limit)
}

func (s *Store) queryReviews(ctx context.Context, query string, args ...any) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reviews := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

func (s *Store) CountReviewsByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = ?`, userID.Hex()).Scan(&n)
	return n, err
}

func (s *Store) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id.Hex())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteReviewsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var books []primitive.ObjectID
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `DELETE FROM reviews WHERE user_id = ? RETURNING book_id`, userID.Hex())
		if err != nil {
			return err
		}
		defer rows.Close()
		books = []primitive.ObjectID{}
		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			id, err := parseID(raw)
			if err != nil {
				return err
			}
			books = append(books, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (s *Store) RecomputeRating(ctx context.Context, bookID primitive.ObjectID) (models.RatingSummary, error) {
	var sum models.RatingSummary
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE book_id = ?`, bookID.Hex(),
		).Scan(&sum.NumReviews, &sum.Rating)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE books SET rating = ?, num_reviews = ? WHERE id = ?`, sum.Rating, sum.NumReviews, bookID.Hex())
		return err
	})
	return sum, err
}
