package profile

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/workly/internal/metrics"
)

const (
	maxAvatarBytes     = 5 << 20
	maxDisplayNameLen  = 80
	maxBioLen          = 500
	msgProfileNotFound = "profile not found"
)

// Dependencies holds everything the profile handlers need
type Dependencies struct {
	Store   Store
	Cache   *Cache
	Avatars *Avatars
	Hosts   *ImageHosts
	Logger  *slog.Logger
}

type Handler struct {
	store   Store
	cache   *Cache
	avatars *Avatars
	hosts   *ImageHosts
	logger  *slog.Logger
}

func NewHandler(deps Dependencies) *Handler {
	h := &Handler{
		store:   deps.Store,
		cache:   deps.Cache,
		avatars: deps.Avatars,
		hosts:   deps.Hosts,
		logger:  deps.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.hosts == nil {
		h.hosts = NewImageHosts("", nil)
	}
	if h.cache == nil {
		h.cache = NewCache(NewMemoryKV(), 0, h.logger)
	}
	return h
}

// Register mounts the public profile route and the /me routes.
func (h *Handler) Register(public, auth *echo.Group) {
	public.GET("/profiles/:id", h.GetPublicProfile)

	auth.GET("/me", h.Me)
	auth.PATCH("/me", h.UpdateMe)
	auth.POST("/me/avatar", h.UploadAvatar)
}

func currentUser(c echo.Context) string {
	uid, _ := c.Get("user_id").(string)
	return uid
}

// Me returns the caller's profile, served from the cache when possible.
func (h *Handler) Me(c echo.Context) error {
	uid := currentUser(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	if p := h.cache.Load(ctx, uid); p != nil {
		metrics.ProfileCacheLookup(true)
		return c.JSON(http.StatusOK, p)
	}
	metrics.ProfileCacheLookup(false)

	p, err := h.store.GetProfile(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgProfileNotFound})
	}
	if err != nil {
		h.logger.Error("get profile failed", slog.String("user_id", uid), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}

	h.cache.Save(ctx, uid, p)
	return c.JSON(http.StatusOK, p)
}

// UpdateMe changes displayName, bio or avatarUrl
func (h *Handler) UpdateMe(c echo.Context) error {
	uid := currentUser(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req Update
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if utf8.RuneCountInString(name) > maxDisplayNameLen {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "displayName too long"})
		}
		req.DisplayName = &name
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		if utf8.RuneCountInString(bio) > maxBioLen {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "bio too long"})
		}
		req.Bio = &bio
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if !h.hosts.Allowed(avatar) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatarUrl host is not allowed"})
		}
		req.AvatarURL = &avatar
	}

	ctx := c.Request().Context()
	p, err := h.store.UpdateProfile(ctx, uid, req)
	if err != nil {
		h.logger.Error("update profile failed", slog.String("user_id", uid), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}
	h.cache.Clear(ctx, uid)

	return c.JSON(http.StatusOK, p)
}

// UploadAvatar stores the multipart "file" as the caller's avatar
func (h *Handler) UploadAvatar(c echo.Context) error {
	uid := currentUser(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fh.Size > maxAvatarBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large (max 5MB)"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read file"})
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxAvatarBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read file"})
	}
	if len(data) > maxAvatarBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large (max 5MB)"})
	}

	ctx := c.Request().Context()
	avatarURL, err := h.avatars.Upload(ctx, uid, fh.Filename, fh.Header.Get(echo.HeaderContentType), data)
	if err != nil {
		metrics.AvatarUpload(false)
		h.logger.Error("avatar upload failed", slog.String("user_id", uid), slog.String("error", err.Error()))
		msg := err.Error()
		if errors.Is(err, ErrNoPublicURL) {
			msg = "Could not get public URL"
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
	}

	if err := h.store.SetAvatarURL(ctx, uid, avatarURL); err != nil {
		metrics.AvatarUpload(false)
		h.logger.Error("save avatar url failed", slog.String("user_id", uid), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}
	h.cache.Clear(ctx, uid)
	metrics.AvatarUpload(true)

	return c.JSON(http.StatusOK, echo.Map{"avatarUrl": avatarURL})
}

// GetPublicProfile returns the public fields of any profile.
func (h *Handler) GetPublicProfile(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgProfileNotFound})
	}

	p, err := h.store.GetProfile(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgProfileNotFound})
	}
	if err != nil {
		h.logger.Error("get public profile failed", slog.String("profile_id", id), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":          p.ID,
		"displayName": p.DisplayName,
		"bio":         p.Bio,
		"avatarUrl":   p.AvatarURL,
		"role":        p.Role,
		"createdAt":   p.CreatedAt,
	})
}
