package main

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		defaultMode:       "classic",
		finishedGrace:     15 * time.Minute,
		inactiveTimeout:   2 * time.Hour,
		roomMaxAge:        4 * time.Hour,
		heartbeatInterval: time.Minute,
		submitGrace:       10 * time.Millisecond,
		revealDelay:       50 * time.Millisecond,
		generateTimeout:   time.Second,
	}
}

// setupRoom creates a room with n joined players in deterministic join
// order. Returns the player IDs ordered as the pairing ring will see them;
// the first is the host.
func setupRoom(t *testing.T, cfg *Config, st StateStore, roomID, mode string, n int) []string {
	t.Helper()

	require.NoError(t, ensureRoom(cfg, st, roomID, mode))

	ids := make([]string, n)
	for i := 0; i < n; i++ {
		id := "player-" + strconv.Itoa(i)
		_, err := joinRoom(cfg, st, roomID, id, "Jugador"+strconv.Itoa(i), "")
		require.NoError(t, err)

		// Joins inside one test land in the same millisecond; pin the
		// ordering so ring assertions are stable.
		require.NoError(t, st.Patch(playerPath(roomID, id), map[string]any{
			"joinedAt": int64(i + 1),
		}))
		ids[i] = id
	}
	return ids
}

func readRoom(t *testing.T, st StateStore, roomID string) Room {
	t.Helper()

	var room Room
	ok, err := readAs(st, roomPath(roomID), &room)
	require.NoError(t, err)
	require.True(t, ok, "room %s should exist", roomID)
	return room
}
