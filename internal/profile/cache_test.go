package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/workly/internal/logging"
)

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, error) { return "", errors.New("conn refused") }
func (brokenKV) Set(context.Context, string, string, time.Duration) error {
	return errors.New("conn refused")
}
func (brokenKV) Del(context.Context, ...string) error { return errors.New("conn refused") }

func sampleProfile() *Profile {
	return &Profile{
		ID:          "2b0f3c1e-8a5d-4c1e-9f7a-1d2e3f4a5b6c",
		DisplayName: "Ada",
		Bio:         "Carpenter, Leipzig",
		AvatarURL:   "https://proj.supabase.co/storage/v1/object/public/avatars/x/avatar.png?v=1",
		Role:        "provider",
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCache_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	c := NewCache(kv, time.Hour, logging.Discard())
	p := sampleProfile()

	assert.Nil(t, c.Load(ctx, p.ID), "never saved")

	c.Save(ctx, p.ID, p)
	got := c.Load(ctx, p.ID)
	require.NotNil(t, got)
	assert.Equal(t, p, got)

	raw, err := kv.Get(ctx, "workly:profile:"+p.ID)
	require.NoError(t, err)
	assert.Contains(t, raw, `"displayName":"Ada"`)

	c.Clear(ctx, p.ID)
	assert.Nil(t, c.Load(ctx, p.ID))
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyPrefix+"u1", "{not json", 0))

	c := NewCache(kv, time.Hour, logging.Discard())
	assert.Nil(t, c.Load(ctx, "u1"))
}

func TestCache_StoreFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	c := NewCache(brokenKV{}, time.Hour, logging.Discard())

	assert.NotPanics(t, func() {
		c.Save(ctx, "u1", sampleProfile())
		c.Clear(ctx, "u1")
	})
	assert.Nil(t, c.Load(ctx, "u1"))
}

func TestMemoryKV_Expiry(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	now = now.Add(time.Minute)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, kv.Set(ctx, "forever", "v", 0))
	now = now.Add(24 * 365 * time.Hour)
	_, err = kv.Get(ctx, "forever")
	assert.NoError(t, err)
}
