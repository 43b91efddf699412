package sqlite

import (
	"context"

	"github.com/kevinaaaquil/shelf/backend/models"
)

func (s *Store) Counts(ctx context.Context) (models.LibraryCounts, error) {
	var c models.LibraryCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(DISTINCT user_id) FROM reading_progress),
			(SELECT COALESCE(SUM(reads), 0) FROM books),
			(SELECT COUNT(*) FROM reviews)`,
	).Scan(&c.TotalBooks, &c.ActiveReaders, &c.TotalReads, &c.TotalReviews)
	return c, err
}
