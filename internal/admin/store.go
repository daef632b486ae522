package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProfileNotFound = errors.New("profile not found")

// Stats is a snapshot of marketplace activity.
type Stats struct {
	Profiles int            `json:"profiles"`
	Jobs     int            `json:"jobs"`
	OpenJobs int            `json:"openJobs"`
	Orders   int            `json:"orders"`
	ByStatus map[string]int `json:"ordersByStatus"`
	Reviews  int            `json:"reviews"`
}

// ProfileSummary is one row of the admin profile listing.
type ProfileSummary struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Store interface {
	Stats(ctx context.Context) (*Stats, error)
	ListProfiles(ctx context.Context, role string, limit, offset int) ([]ProfileSummary, error)
	SetRole(ctx context.Context, id, role string) error
}

// PGStore implements Store on the Postgres pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByStatus: map[string]int{}}

	err := s.pool.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM profiles),
            (SELECT COUNT(*) FROM jobs),
            (SELECT COUNT(*) FROM jobs WHERE status = 'open'),
            (SELECT COUNT(*) FROM reviews)`,
	).Scan(&st.Profiles, &st.Jobs, &st.OpenJobs, &st.Reviews)
	if err != nil {
		return nil, fmt.Errorf("count totals: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan order count: %w", err)
		}
		st.ByStatus[status] = n
		st.Orders += n
	}
	return st, rows.Err()
}

func (s *PGStore) ListProfiles(ctx context.Context, role string, limit, offset int) ([]ProfileSummary, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id::text, display_name, role, created_at
        FROM profiles
        WHERE ($1 = '' OR role = $1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`,
		role, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []ProfileSummary{}
	for rows.Next() {
		var p ProfileSummary
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Role, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) SetRole(ctx context.Context, id, role string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
