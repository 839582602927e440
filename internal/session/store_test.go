package session

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/consult-portal/internal/models"
)

func setup(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, time.Hour), mr
}

func TestStore_CreateGetDelete(t *testing.T) {
	store, mr := setup(t)
	ctx := context.Background()
	user := models.User{ID: "u-1", Email: "ana@example.test", Role: models.RoleClient}

	sess, err := store.Create(ctx, user, "backend-token")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.True(t, mr.Exists("portal:session:"+sess.ID))
	assert.Equal(t, time.Hour, mr.TTL("portal:session:"+sess.ID))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got.User)
	assert.Equal(t, "backend-token", got.BackendToken)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Expiry(t *testing.T) {
	store, mr := setup(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, models.User{ID: "u-1"}, "t")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RedisDown(t *testing.T) {
	store, mr := setup(t)
	mr.Close()

	_, err := store.Get(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Ping(context.Background()))
}

func TestStore_CreateDoesNotLogSessionID(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store, _ := setup(t)
	sess, err := store.Create(context.Background(), models.User{ID: "u-7", Role: models.RoleClient}, "backend-token")
	require.NoError(t, err)

	assert.Contains(t, logs.String(), `"user_id":"u-7"`)
	assert.NotContains(t, logs.String(), sess.ID)
	assert.NotContains(t, logs.String(), "backend-token")
}
