package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

func TestSessionStore_Create(t *testing.T) {
	store := NewSessionStore()

	player, sessionID := store.Create()

	assert.NotEmpty(t, sessionID)
	require.NotNil(t, player)
	assert.NotEmpty(t, player.ID)
	assert.Equal(t, sessionID, player.SessionID)
	assert.Equal(t, quiz.PhaseNotStarted, player.Snapshot().Phase)
	assert.Equal(t, 1, store.Count())
}

func TestSessionStore_Get(t *testing.T) {
	tests := []struct {
		name        string
		createFirst bool
		wantFound   bool
	}{
		{
			name:        "正常系: 存在するセッション",
			createFirst: true,
			wantFound:   true,
		},
		{
			name:        "異常系: 存在しないセッション",
			createFirst: false,
			wantFound:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewSessionStore()

			sessionID := "non-existent-session"
			if tt.createFirst {
				_, sessionID = store.Create()
			}

			player, found := store.Get(sessionID)

			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.NotNil(t, player)
			} else {
				assert.Nil(t, player)
			}
		})
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore()
	_, sessionID := store.Create()

	_, found := store.Get(sessionID)
	assert.True(t, found)

	store.Delete(sessionID)

	_, found = store.Get(sessionID)
	assert.False(t, found)
}

func TestSessionStore_Expiry(t *testing.T) {
	tests := []struct {
		name      string
		expiry    time.Duration
		waitTime  time.Duration
		wantFound bool
	}{
		{
			name:      "正常系: 有効期限内",
			expiry:    100 * time.Millisecond,
			waitTime:  10 * time.Millisecond,
			wantFound: true,
		},
		{
			name:      "異常系: 有効期限切れ",
			expiry:    50 * time.Millisecond,
			waitTime:  100 * time.Millisecond,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewSessionStoreWithExpiry(tt.expiry)
			_, sessionID := store.Create()

			time.Sleep(tt.waitTime)

			_, found := store.Get(sessionID)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	store := NewSessionStoreWithExpiry(30 * time.Millisecond)
	stale, _ := store.Create()

	time.Sleep(60 * time.Millisecond)
	_, freshID := store.Create()

	purged := store.PurgeExpired()

	require.Len(t, purged, 1)
	assert.Equal(t, stale.ID, purged[0].ID)
	assert.Equal(t, 1, store.Count())
	_, found := store.Get(freshID)
	assert.True(t, found)
}

func TestSessionStore_PurgeAfterExpiredGet(t *testing.T) {
	store := NewSessionStoreWithExpiry(10 * time.Millisecond)
	player, sessionID := store.Create()

	time.Sleep(30 * time.Millisecond)

	got, found := store.Get(sessionID)
	assert.False(t, found)
	assert.Nil(t, got)
	assert.Equal(t, 1, store.Count())

	purged := store.PurgeExpired()
	require.Len(t, purged, 1)
	assert.Equal(t, player.ID, purged[0].ID)
	assert.Equal(t, 0, store.Count())
}

func TestSessionStore_PurgeWithoutExpiry(t *testing.T) {
	store := NewSessionStore()
	store.Create()

	assert.Nil(t, store.PurgeExpired())
	assert.Equal(t, 1, store.Count())
}

func TestSessionStore_Concurrent(t *testing.T) {
	store := NewSessionStore()
	done := make(chan bool)

	for i := 0; i < 100; i++ {
		go func() {
			player, sessionID := store.Create()

			retrieved, found := store.Get(sessionID)
			assert.True(t, found)
			assert.Equal(t, player.ID, retrieved.ID)

			done <- true
		}()
	}

	for i := 0; i < 100; i++ {
		<-done
	}
	assert.Equal(t, 100, store.Count())
}
