package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartGameChecks(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "classic", 2)

	require.ErrorIs(t, startGame(cfg, st, "TACO", ids[1], ""), errNotHost)
	require.ErrorIs(t, startGame(cfg, st, "TACO", ids[0], ""), errNotEnoughPlayers)
	require.ErrorIs(t, startGame(cfg, st, "NADA", ids[0], ""), errRoomNotFound)

	_, err := joinRoom(cfg, st, "TACO", "id-3", "Carla", "")
	require.NoError(t, err)
	require.NoError(t, startGame(cfg, st, "TACO", ids[0], ""))

	require.ErrorIs(t, startGame(cfg, st, "TACO", ids[0], ""), errNotInLobby)
}

func TestStartGameDealsRoundOne(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "classic", 4)

	before := nowMillis()
	require.NoError(t, startGame(cfg, st, "TACO", ids[0], ""))

	room := readRoom(t, st, "TACO")
	assert.Equal(t, StatusInput, room.GameState.Status)
	assert.Equal(t, 1, room.GameState.CurrentRound)
	assert.Equal(t, 0, room.GameState.CurrentMatchIndex)
	assert.Len(t, room.Matches, 4)
	assert.Len(t, room.Prompts, 4)

	// Deadline is absolute and derived from the mode's input limit.
	want := before + int64(room.GameState.InputTimeLimit)*1000
	assert.InDelta(t, want, room.GameState.PhaseEndTime, 2000)
}

func TestStartGameSpectatorsExcludedFromRing(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "classic", 3)

	require.NoError(t, st.Patch(playerPath("TACO", "spec-1"), map[string]any{
		"id": "spec-1", "name": "Mirona", "isSpectator": true, "joinedAt": 99,
	}))

	require.NoError(t, startGame(cfg, st, "TACO", ids[0], ""))

	for _, m := range readRoom(t, st, "TACO").Matches {
		assert.NotEqual(t, "spec-1", m.PlayerA)
		assert.NotEqual(t, "spec-1", m.PlayerB)
	}
}

func TestStartGameWithLibrary(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "classic", 3)

	code, err := createLibrary(st, "Propias", []string{"pregunta propia"}, "")
	require.NoError(t, err)

	require.NoError(t, startGame(cfg, st, "TACO", ids[0], code))

	room := readRoom(t, st, "TACO")
	for _, p := range room.Prompts {
		assert.Equal(t, "pregunta propia", p)
	}

	lib, err := getLibrary(st, code)
	require.NoError(t, err)
	assert.Equal(t, 1, lib.PlayCount)
}

func TestStartGameUnknownLibrary(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "classic", 3)

	require.ErrorIs(t, startGame(cfg, st, "TACO", ids[0], "XXXXXX"), errLibraryNotFound)
}

func TestPlayAgainResetsForNewGame(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "quick", 3)
	require.NoError(t, startGame(cfg, st, "TACO", ids[0], ""))

	require.NoError(t, st.Patch(roomPath("TACO"), map[string]any{
		"players/" + ids[1] + "/score": 700,
	}))
	_, err := joinRoom(cfg, st, "TACO", "late-1", "Tarde", "")
	require.NoError(t, err)

	require.ErrorIs(t, playAgain(cfg, st, "TACO", ids[1]), errNotHost)
	require.NoError(t, playAgain(cfg, st, "TACO", ids[0]))

	room := readRoom(t, st, "TACO")
	assert.Equal(t, StatusLobby, room.GameState.Status)
	assert.Equal(t, "quick", room.GameState.GameMode, "mode survives a rematch")
	assert.Empty(t, room.Matches)
	assert.Empty(t, room.Prompts)

	assert.Len(t, room.Players, 3, "spectators are dropped on rematch")
	_, hasSpectator := room.Players["late-1"]
	assert.False(t, hasSpectator)
	assert.Equal(t, 0, room.Players[ids[1]].Score)
	assert.Equal(t, 0, room.Players[ids[1]].SubmittedRound)
}
