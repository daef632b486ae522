package profile

import (
	"context"
	"errors"
)

// DefaultRole is the role of a signed-in user who has no profile row yet.
const DefaultRole = "client"

// Roles resolves a user's marketplace role from their profile, reading
// through the profile cache.
type Roles struct {
	store Store
	cache *Cache
}

func NewRoles(store Store, cache *Cache) *Roles {
	return &Roles{store: store, cache: cache}
}

func (r *Roles) Role(ctx context.Context, userID string) (string, error) {
	if r.cache != nil {
		if p := r.cache.Load(ctx, userID); p != nil && p.Role != "" {
			return p.Role, nil
		}
	}

	p, err := r.store.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return DefaultRole, nil
	}
	if err != nil {
		return "", err
	}
	if r.cache != nil {
		r.cache.Save(ctx, userID, p)
	}
	if p.Role == "" {
		return DefaultRole, nil
	}
	return p.Role, nil
}
