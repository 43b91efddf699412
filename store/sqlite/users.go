package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const userColumns = `id, name, email, password, gender, role, is_blocked, created_at`

func scanUser(row scanner) (*models.User, error) {
	var (
		u         models.User
		id        string
		blocked   int
		createdAt string
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.Password, &u.Gender, &u.Role, &blocked, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if u.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	u.IsBlocked = blocked != 0
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	user.ID = newID(user.ID)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID.Hex(), user.Name, user.Email, user.Password, user.Gender, user.Role,
		boolInt(user.IsBlocked), formatTime(user.CreatedAt),
	)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	if user.ReadingProgress == nil {
		user.ReadingProgress = []models.ProgressEntry{}
	}
	if user.Favorites == nil {
		user.Favorites = []primitive.ObjectID{}
	}
	return user.ID, nil
}

func (s *Store) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.userWhere(ctx, "id = ?", id.Hex())
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userWhere(ctx, "email = ?", email)
}

func (s *Store) userWhere(ctx context.Context, cond string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if err != nil {
		return nil, translate(err)
	}
	if err := s.loadCollections(ctx, s.db, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
}

func (s *Store) RecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT ?`, limit)
}

func (s *Store) listUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the connection before the per-user lookups.
	rows.Close()

	for i := range users {
		if err := s.loadCollections(ctx, s.db, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// loadCollections fills the user's favorites and reading progress.
func (s *Store) loadCollections(ctx context.Context, q querier, u *models.User) error {
	favs, err := favoritesOf(ctx, q, u.ID)
	if err != nil {
		return err
	}
	u.Favorites = favs

	rows, err := q.QueryContext(ctx, `
		SELECT book_id, current_page, total_pages, last_read
		FROM reading_progress WHERE user_id = ? ORDER BY rowid`, u.ID.Hex())
	if err != nil {
		return err
	}
	defer rows.Close()
	u.ReadingProgress = []models.ProgressEntry{}
	for rows.Next() {
		var (
			p        models.ProgressEntry
			bookID   string
			lastRead string
		)
		if err := rows.Scan(&bookID, &p.CurrentPage, &p.TotalPages, &lastRead); err != nil {
			return err
		}
		if p.BookID, err = parseID(bookID); err != nil {
			return err
		}
		if p.LastRead, err = parseTime(lastRead); err != nil {
			return fmt.Errorf("parse last_read: %w", err)
		}
		u.ReadingProgress = append(u.ReadingProgress, p)
	}
	return rows.Err()
}

func favoritesOf(ctx context.Context, q querier, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	rows, err := q.QueryContext(ctx, `SELECT book_id FROM favorites WHERE user_id = ? ORDER BY rowid`, userID.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	favs := []primitive.ObjectID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		favs = append(favs, id)
	}
	return favs, rows.Err()
}

func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("name", upd.Name)
	add("email", upd.Email)
	add("gender", upd.Gender)
	add("password", upd.Password)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id.Hex())
	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ToggleBlocked(ctx context.Context, id primitive.ObjectID) (bool, error) {
	var blocked int
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET is_blocked = NOT is_blocked WHERE id = ? RETURNING is_blocked`, id.Hex(),
	).Scan(&blocked)
	if err != nil {
		return false, translate(err)
	}
	return blocked != 0, nil
}

func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.Hex())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func userExists(ctx context.Context, q querier, id primitive.ObjectID) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id.Hex()).Scan(&one)
	return translate(err)
}

// ReplaceProgress uses INSERT OR REPLACE on the (user_id, book_id) key, which
// also moves the entry to the end of the rowid order.
func (s *Store) ReplaceProgress(ctx context.Context, userID primitive.ObjectID, entry models.ProgressEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO reading_progress (user_id, book_id, current_page, total_pages, last_read)
			VALUES (?, ?, ?, ?, ?)`,
			userID.Hex(), entry.BookID.Hex(), entry.CurrentPage, entry.TotalPages, formatTime(entry.LastRead),
		)
		return err
	})
}

func (s *Store) MarkFirstRead(ctx context.Context, userID, bookID primitive.ObjectID) (bool, error) {
	var first bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO book_reads (user_id, book_id, created_at) VALUES (?, ?, ?)`,
			userID.Hex(), bookID.Hex(), formatTime(time.Now()),
		)
		if err != nil {
			return translate(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		first = true
		_, err = tx.ExecContext(ctx, `
			UPDATE books
			SET reads = MAX(reads, (SELECT COUNT(*) FROM book_reads WHERE book_id = ?))
			WHERE id = ?`, bookID.Hex(), bookID.Hex())
		return err
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

func (s *Store) ToggleFavorite(ctx context.Context, userID, bookID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var favs []primitive.ObjectID
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND book_id = ?`, userID.Hex(), bookID.Hex())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO favorites (user_id, book_id, added_at) VALUES (?, ?, ?)`,
				userID.Hex(), bookID.Hex(), formatTime(time.Now()),
			); err != nil {
				return translate(err)
			}
		}
		favs, err = favoritesOf(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return favs, nil
}
