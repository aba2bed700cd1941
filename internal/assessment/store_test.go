package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/circular-readiness/internal/models"
)

func newSession(id string, created time.Time) *models.Session {
	s := &models.Session{
		ID:         id,
		Status:     models.SessionActive,
		Answers:    models.NewAnswers(),
		Weights:    map[string]float64{"Design": 35},
		TTLSeconds: 60,
		CreatedAt:  created,
	}
	s.Touch(created)
	return s
}

func stores(t *testing.T) (map[string]SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]SessionStore{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStoreWithClient(client, "test:session:"),
	}, mr
}

func TestSessionStore_CRUD(t *testing.T) {
	ctx := context.Background()
	all, _ := stores(t)

	for name, store := range all {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Ping(ctx))

			now := time.Now()
			older := newSession("older", now.Add(-time.Minute))
			newer := newSession("newer", now)
			require.NoError(t, store.Create(ctx, older))
			require.NoError(t, store.Create(ctx, newer))
			assert.Error(t, store.Create(ctx, newer), "duplicate id")

			got, err := store.Get(ctx, "older")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 35.0, got.Weights["Design"])

			// copies are independent of the stored value
			got.Answers.Set("Design", "1.1", "1.1.1", models.Score(1))
			again, err := store.Get(ctx, "older")
			require.NoError(t, err)
			assert.Equal(t, 0, again.Answers.Count())

			require.NoError(t, store.Update(ctx, got))
			again, err = store.Get(ctx, "older")
			require.NoError(t, err)
			assert.Equal(t, 1, again.Answers.Count())

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "newer", list[0].ID)

			require.NoError(t, store.Delete(ctx, "older"))
			assert.ErrorIs(t, store.Delete(ctx, "older"), ErrSessionNotFound)
			assert.ErrorIs(t, store.Update(ctx, older), ErrSessionNotFound)

			missing, err := store.Get(ctx, "older")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestRedisStore_KeyTTL(t *testing.T) {
	ctx := context.Background()
	all, mr := stores(t)
	store := all["redis"]

	s := newSession("ttl", time.Now())
	require.NoError(t, store.Create(ctx, s))

	ttl := mr.TTL("test:session:ttl")
	assert.Greater(t, ttl, ExpiredRetention)
	assert.LessOrEqual(t, ttl, ExpiredRetention+time.Minute)

	// the key disappears once retention has passed
	mr.FastForward(ExpiredRetention + 2*time.Minute)
	got, err := store.Get(ctx, "ttl")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisStore(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
