package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefereeAdvancesWhenAllSubmitted(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := startedRoom(t, cfg, st)
	ref := newReferee(cfg, st, nil, "TACO")

	// Nobody submitted and the deadline is far away: no transition.
	_, alive := ref.step(context.Background())
	require.True(t, alive)
	assert.Equal(t, StatusInput, readRoom(t, st, "TACO").GameState.Status)

	for _, id := range ids {
		submitBoth(t, cfg, st, id, "respuesta de "+id)
	}

	_, alive = ref.step(context.Background())
	require.True(t, alive)

	room := readRoom(t, st, "TACO")
	assert.Equal(t, StatusVoting, room.GameState.Status)
	assert.Equal(t, 0, room.GameState.CurrentMatchIndex)
	assert.Greater(t, room.GameState.PhaseEndTime, nowMillis())
}

func TestRefereeFillsMissingAnswersOnTimeout(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := startedRoom(t, cfg, st)
	ref := newReferee(cfg, st, staticGenerator{text: "respuesta generada"}, "TACO")

	// Only one player submits; the input deadline lapses.
	submitBoth(t, cfg, st, ids[0], "la mía")
	expirePhase(t, st, "TACO")

	_, alive := ref.step(context.Background())
	require.True(t, alive)

	room := readRoom(t, st, "TACO")
	require.Equal(t, StatusVoting, room.GameState.Status)
	for i, m := range room.Matches {
		assert.NotEmpty(t, m.ResponseA, "match %d side A", i)
		assert.NotEmpty(t, m.ResponseB, "match %d side B", i)
	}
}

func TestRefereeFillSweepKeepsExistingAnswers(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := startedRoom(t, cfg, st)
	ref := newReferee(cfg, st, staticGenerator{text: "generada"}, "TACO")

	submitBoth(t, cfg, st, ids[0], "humana")
	expirePhase(t, st, "TACO")
	_, _ = ref.step(context.Background())

	room := readRoom(t, st, "TACO")
	for _, pp := range playerPrompts(ids[0], room.Matches) {
		m := room.Matches[pp.PromptIndex]
		if pp.IsPlayerA {
			assert.Equal(t, "humana", m.ResponseA)
		} else {
			assert.Equal(t, "humana", m.ResponseB)
		}
	}
}

func TestRefereeRevealScoresInOneCommit(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "quick", 4)
	require.NoError(t, startGame(cfg, st, "TACO", ids[0], ""))
	ref := newReferee(cfg, st, nil, "TACO")

	for _, id := range ids {
		submitBoth(t, cfg, st, id, "respuesta")
	}
	_, _ = ref.step(context.Background())
	require.Equal(t, StatusVoting, readRoom(t, st, "TACO").GameState.Status)

	// Match 0 features ids[0] and ids[1]. ids[2] votes A; ids[3] abstains.
	require.NoError(t, castVote(cfg, st, "TACO", ids[2], 0, "A"))
	expirePhase(t, st, "TACO")

	_, _ = ref.step(context.Background())

	room := readRoom(t, st, "TACO")
	assert.Equal(t, StatusResults, room.GameState.Status)
	assert.True(t, room.Matches[0].Revealed)

	// Quick mode has one round, so round 1 scores are doubled: 1 vote = 200.
	assert.Equal(t, 200, room.Players[ids[0]].Score)
	assert.Equal(t, 0, room.Players[ids[1]].Score)
	assert.Equal(t, 0, room.Players[ids[2]].Score, "voters pay nothing")
	assert.Equal(t, -nonVoterPenalty, room.Players[ids[3]].Score, "abstainers pay the penalty")
}

func TestRefereeVotingCompletesEarly(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := startedRoom(t, cfg, st)
	ref := newReferee(cfg, st, nil, "TACO")

	for _, id := range ids {
		submitBoth(t, cfg, st, id, "respuesta")
	}
	_, _ = ref.step(context.Background())

	// Three players: one eligible voter per match. A single vote ends it.
	require.NoError(t, castVote(cfg, st, "TACO", ids[2], 0, "B"))
	_, _ = ref.step(context.Background())

	room := readRoom(t, st, "TACO")
	assert.Equal(t, StatusResults, room.GameState.Status)
	assert.True(t, room.Matches[0].Revealed)
}

func TestRefereeFullQuickGameReachesPodium(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "quick", 3)
	require.NoError(t, startGame(cfg, st, "TACO", ids[0], ""))
	ref := newReferee(cfg, st, nil, "TACO")

	for _, id := range ids {
		submitBoth(t, cfg, st, id, "respuesta")
	}
	_, _ = ref.step(context.Background())

	for matchIdx := 0; matchIdx < 3; matchIdx++ {
		room := readRoom(t, st, "TACO")
		require.Equal(t, StatusVoting, room.GameState.Status)
		require.Equal(t, matchIdx, room.GameState.CurrentMatchIndex)

		m := room.Matches[matchIdx]
		for _, id := range ids {
			if id != m.PlayerA && id != m.PlayerB {
				require.NoError(t, castVote(cfg, st, "TACO", id, matchIdx, "A"))
			}
		}

		_, _ = ref.step(context.Background())
		require.Equal(t, StatusResults, readRoom(t, st, "TACO").GameState.Status)

		expirePhase(t, st, "TACO")
		_, _ = ref.step(context.Background())
	}

	room := readRoom(t, st, "TACO")
	assert.Equal(t, StatusPodium, room.GameState.Status)
	assert.Zero(t, room.GameState.PhaseEndTime)
}

func TestRefereeNextRoundDealsFreshMatches(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "classic", 3)
	require.NoError(t, startGame(cfg, st, "TACO", ids[0], ""))
	ref := newReferee(cfg, st, nil, "TACO")

	for _, id := range ids {
		submitBoth(t, cfg, st, id, "ronda uno")
	}
	_, _ = ref.step(context.Background())

	// Burn through all three matches of round one.
	for matchIdx := 0; matchIdx < 3; matchIdx++ {
		expirePhase(t, st, "TACO")
		_, _ = ref.step(context.Background()) // reveal
		expirePhase(t, st, "TACO")
		_, _ = ref.step(context.Background()) // advance
	}

	room := readRoom(t, st, "TACO")
	assert.Equal(t, StatusInput, room.GameState.Status)
	assert.Equal(t, 2, room.GameState.CurrentRound)
	assert.Len(t, room.Matches, 3)
	for i, m := range room.Matches {
		assert.Empty(t, m.ResponseA, "round 2 match %d must start blank", i)
		assert.False(t, m.Revealed)
	}
	for _, id := range ids {
		assert.False(t, room.Players[id].HasSubmitted)
		assert.Equal(t, 1, room.Players[id].SubmittedRound, "old marker no longer matches round 2")
	}
}

func TestRefereeStopsWhenRoomCloses(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	setupRoom(t, cfg, st, "TACO", "classic", 3)
	ref := newReferee(cfg, st, nil, "TACO")

	_, alive := ref.step(context.Background())
	require.True(t, alive)

	require.NoError(t, closeRoom(st, "TACO"))
	_, alive = ref.step(context.Background())
	assert.False(t, alive)

	require.NoError(t, st.Delete(roomPath("TACO")))
	_, alive = ref.step(context.Background())
	assert.False(t, alive)
}

func TestRefereeRunLoopPlaysARound(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	cfg.revealDelay = 20 * time.Millisecond
	ids := setupRoom(t, cfg, st, "TACO", "quick", 3)
	require.NoError(t, startGame(cfg, st, "TACO", ids[0], ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	ref := newReferee(cfg, st, nil, "TACO")
	go func() {
		ref.run(ctx)
		close(done)
	}()

	for _, id := range ids {
		submitBoth(t, cfg, st, id, "respuesta")
	}

	require.Eventually(t, func() bool {
		return readRoom(t, st, "TACO").GameState.Status == StatusVoting
	}, 2*time.Second, 10*time.Millisecond, "submissions should flip the phase without waiting for the deadline")

	// Vote out every match; the loop should carry the room to the podium.
	go func() {
		for {
			room := readRoom(t, st, "TACO")
			if room.GameState.Status == StatusPodium {
				return
			}
			if room.GameState.Status == StatusVoting {
				idx := room.GameState.CurrentMatchIndex
				m := room.Matches[idx]
				for _, id := range ids {
					if id != m.PlayerA && id != m.PlayerB {
						_ = castVote(cfg, st, "TACO", id, idx, "A")
					}
				}
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	require.Eventually(t, func() bool {
		return readRoom(t, st, "TACO").GameState.Status == StatusPodium
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, closeRoom(st, "TACO"))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("referee did not stop after the room closed")
	}
}

// expirePhase rewinds the current deadline so the next step sees it lapsed.
func expirePhase(t *testing.T, st StateStore, roomID string) {
	t.Helper()

	room := readRoom(t, st, roomID)
	state := room.GameState
	state.PhaseEndTime = nowMillis() - 1
	require.NoError(t, st.Patch(roomPath(roomID), map[string]any{"gameState": state}))
}
