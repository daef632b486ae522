package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("profile not found")

// Store is the data-access helper for profiles.
type Store interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	// UpdateProfile creates the row on first write.
	UpdateProfile(ctx context.Context, id string, u Update) (*Profile, error)
	SetAvatarURL(ctx context.Context, id, avatarURL string) error
}

const profileColumns = `id::text, display_name, bio, avatar_url, role, created_at, updated_at`

// PGStore implements Store on the Postgres pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) GetProfile(ctx context.Context, id string) (*Profile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *PGStore) UpdateProfile(ctx context.Context, id string, u Update) (*Profile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx, `
        INSERT INTO profiles (id, display_name, bio, avatar_url)
        VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''))
        ON CONFLICT (id) DO UPDATE SET
            display_name = COALESCE($2, profiles.display_name),
            bio = COALESCE($3, profiles.bio),
            avatar_url = COALESCE($4, profiles.avatar_url),
            updated_at = NOW()
        RETURNING `+profileColumns,
		id, u.DisplayName, u.Bio, u.AvatarURL,
	))
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *PGStore) SetAvatarURL(ctx context.Context, id, avatarURL string) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO profiles (id, avatar_url) VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE SET avatar_url = EXCLUDED.avatar_url, updated_at = NOW()`,
		id, avatarURL,
	)
	if err != nil {
		return fmt.Errorf("set avatar url: %w", err)
	}
	return nil
}
