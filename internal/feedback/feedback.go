// Package feedback stores user feedback submitted from the dashboard.
package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// Feedback is one submission from a dashboard user.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	UserName  string    `json:"userName"`
	Role      string    `json:"role"`
	Page      string    `json:"page"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository persists feedback in user_feedbacks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one submission, assigning ID and timestamp.
func (r *Repository) Insert(ctx context.Context, f Feedback) (Feedback, error) {
	f.ID = uuid.New()
	f.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_feedbacks (id, user_name, role, page, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.UserName, f.Role, f.Page, f.Rating, f.Comment, f.CreatedAt)
	if err != nil {
		return Feedback{}, fmt.Errorf("%w: insert feedback: %v", shared.ErrDataSource, err)
	}
	return f, nil
}

// List returns the most recent submissions, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]Feedback, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_name, role, page, rating, comment, created_at
		FROM user_feedbacks ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query feedback: %v", shared.ErrDataSource, err)
	}
	defer rows.Close()

	var result []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.UserName, &f.Role, &f.Page, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan feedback: %v", shared.ErrDataSource, err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate feedback: %v", shared.ErrDataSource, err)
	}
	return result, nil
}
