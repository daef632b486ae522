package profile

import "time"

// Profile is the public face of a signed-in user.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatarUrl"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Update holds the fields PATCH /me may change. Nil means leave as is.
type Update struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatarUrl"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.AvatarURL == nil
}
