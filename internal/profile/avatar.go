package profile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/sudo-init-do/workly/internal/supabase"
)

var (
	extPattern = regexp.MustCompile(`^[a-z0-9]+$`)

	ErrNoPublicURL = errors.New("could not get public URL")
)

// ObjectStore is the storage bucket avatars are written to.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, opts supabase.UploadOptions) error
	GetPublicURL(path string) string
}

// SafeExtension returns the lowercase extension of filename, or "jpg" when it
// is missing or not plain alphanumerics.
func SafeExtension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "jpg"
	}
	ext := strings.ToLower(filename[i+1:])
	if !extPattern.MatchString(ext) {
		return "jpg"
	}
	return ext
}

// AvatarPath is the object path for a user's avatar. Each user has exactly one.
func AvatarPath(userID, filename string) string {
	return path.Join(userID, "avatar."+SafeExtension(filename))
}

// Avatars uploads profile pictures and hands back cache-busted public URLs.
type Avatars struct {
	store ObjectStore
	now   func() time.Time
}

func NewAvatars(store ObjectStore) *Avatars {
	return &Avatars{store: store, now: time.Now}
}

// Upload overwrites the user's avatar and returns its public URL with a
// version query so clients skip stale copies.
func (a *Avatars) Upload(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	objectPath := AvatarPath(userID, filename)
	if err := a.store.Upload(ctx, objectPath, data, supabase.UploadOptions{
		ContentType: contentType,
		Upsert:      true,
	}); err != nil {
		return "", err
	}

	publicURL := a.store.GetPublicURL(objectPath)
	if publicURL == "" {
		return "", ErrNoPublicURL
	}
	return fmt.Sprintf("%s?v=%d", publicURL, a.now().UnixMilli()), nil
}
