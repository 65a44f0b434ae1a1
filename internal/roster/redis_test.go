package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopermor/hive/internal/config"
	"github.com/google/uuid"
)

func testBot(name string) Bot {
	return Bot{
		ID:   uuid.NewString(),
		Name: name,
		Config: config.BotCfg{
			BotName:    name,
			Address:    "ws://localhost:19132",
			Username:   name,
			Command:    "/kit claim",
			TargetSlot: 2,
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// exerciseStore runs the same contract against any driver.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "worker01")
	require.True(t, errors.Is(err, ErrBotNotFound))

	bot := testBot("worker01")
	require.NoError(t, store.Save(ctx, bot))

	got, err := store.Get(ctx, "worker01")
	require.NoError(t, err)
	assert.Equal(t, bot.ID, got.ID)
	assert.Equal(t, bot.Config.Command, got.Config.Command)
	assert.Equal(t, bot.Config.TargetSlot, got.Config.TargetSlot)

	require.NoError(t, store.Save(ctx, testBot("worker02")))
	bots, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, bots, 2)

	require.NoError(t, store.Delete(ctx, "worker01"))
	_, err = store.Get(ctx, "worker01")
	assert.True(t, errors.Is(err, ErrBotNotFound))

	assert.NoError(t, store.Delete(ctx, "worker01"), "deleting an absent entry is not an error")
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	exerciseStore(t, store)
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)

	store, err := NewRedisStore(srv.Addr(), "", 0)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestRedisStoreUnreachable(t *testing.T) {
	_, err := NewRedisStore("127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
