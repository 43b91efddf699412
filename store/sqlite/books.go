package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kevinaaaquil/shelf/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const bookColumns = `id, user_id, title, author, category, description, cover_image, isbn,
	pdf_url, pdf_key, pages, reads, rating, num_reviews, is_trending, created_at`

func scanBook(row scanner) (*models.Book, error) {
	var (
		b          models.Book
		id, userID string
		trending   int
		createdAt  string
	)
	err := row.Scan(&id, &userID, &b.Title, &b.Author, &b.Category, &b.Description, &b.CoverImage, &b.ISBN,
		&b.PDFURL, &b.PDFKey, &b.Pages, &b.Reads, &b.Rating, &b.NumReviews, &trending, &createdAt)
	if err != nil {
		return nil, err
	}
	if b.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if b.UserID, err = parseID(userID); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	b.IsTrending = trending != 0
	return &b, nil
}

func (s *Store) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	book.ID = newID(book.ID)
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID.Hex(), book.UserID.Hex(), book.Title, book.Author, book.Category, book.Description,
		book.CoverImage, book.ISBN, book.PDFURL, book.PDFKey, book.Pages, book.Reads, book.Rating,
		book.NumReviews, boolInt(book.IsTrending), formatTime(book.CreatedAt),
	)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return book.ID, nil
}

func (s *Store) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id.Hex()))
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (s *Store) BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error) {
	if len(ids) == 0 {
		return []models.Book{}, nil
	}
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id.Hex()
	}
	return s.queryBooks(ctx, s.db,
		`SELECT `+bookColumns+` FROM books WHERE id IN (`+strings.Join(marks, ",")+`)`, args...)
}

func (s *Store) ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	if filter.TrendingOnly {
		query += ` WHERE is_trending = 1`
	}
	return s.queryBooks(ctx, s.db, query+` ORDER BY created_at DESC`)
}

func (s *Store) queryBooks(ctx context.Context, q querier, query string, args ...any) ([]models.Book, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

func (s *Store) ToggleTrending(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx,
		`UPDATE books SET is_trending = NOT is_trending WHERE id = ? RETURNING `+bookColumns, id.Hex()))
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

// DeleteBook relies on ON DELETE CASCADE for reviews, favorites, progress and ledger rows.
func (s *Store) DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book *models.Book
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBook(tx.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id.Hex()))
		if err != nil {
			return translate(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id.Hex()); err != nil {
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}
