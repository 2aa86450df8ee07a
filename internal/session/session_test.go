package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunterjsb/fftournament/internal/bracket"
	"github.com/hunterjsb/fftournament/internal/tournament"
)

func sampleSession(now time.Time) *Session {
	members := make([]tournament.Participant, bracket.Seeds)
	for i := range members {
		members[i] = tournament.Participant{Tag: "#T" + string(rune('A'+i)), Name: "p", Score: 10 - i}
	}
	b, _ := bracket.New(members, "#CLAN")
	return &Session{
		UserID:    "user-1",
		Kind:      tournament.KindBracket,
		State:     StateTracking,
		Snapshot:  &tournament.Snapshot{Name: "Cup", Tag: "#CUP", Members: members},
		Excluded:  tournament.NewTagSet("#TA"),
		Page:      0,
		Bracket:   b,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now()

	s := sampleSession(now)
	id, err := store.Create(ctx, s)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, s.ID)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.True(t, got.Excluded.Has("#TA"))
	assert.Equal(t, "#CLAN", got.Bracket.ClanFilter)
	assert.Equal(t, "#TA", got.Bracket.QuarterFinals[0].Player1.Tag)
	assert.Len(t, got.Remaining(), bracket.Seeds-1)

	got.Excluded.Add("#TB")
	again, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, again.Excluded.Has("#TB"), "stored copy must not alias returned value")

	require.NoError(t, store.Save(ctx, got))
	again, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, again.Excluded.Has("#TB"))

	other, err := store.Create(ctx, sampleSession(now))
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Delete(ctx, id))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	clock := time.Now()
	store.now = func() time.Time { return clock }

	s := sampleSession(clock)
	id, err := store.Create(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	clock = clock.Add(2 * time.Minute)
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.Len())
}

func TestMemoryStoreDefaultTTL(t *testing.T) {
	store := NewMemoryStore()
	s := &Session{UserID: "u"}
	_, err := store.Create(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, s.ExpiresAt.Sub(s.CreatedAt))
}

func TestMemoryStoreJanitor(t *testing.T) {
	store := NewMemoryStore()
	s := sampleSession(time.Now())
	s.ExpiresAt = time.Now().Add(10 * time.Millisecond)
	_, err := store.Create(context.Background(), s)
	require.NoError(t, err)

	stop := store.StartJanitor(5 * time.Millisecond)
	defer stop()

	require.Eventually(t, func() bool {
		store.mu.RLock()
		defer store.mu.RUnlock()
		return len(store.sessions) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now}
	assert.True(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(-time.Second)))
	assert.False(t, (&Session{}).Expired(now))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FFT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FFT_TEST_REDIS_ADDR not set, skipping redis integration test")
	}

	client, err := DialRedis(context.Background(), addr, os.Getenv("FFT_TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	storeContract(t, NewRedisStore(client))
}
