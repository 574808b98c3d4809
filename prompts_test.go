package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributePromptsRing(t *testing.T) {
	ids := []string{"p1", "p2", "p3"}
	prompts := []string{"a", "b", "c"}

	matches := distributePrompts(ids, prompts)
	require.Len(t, matches, 3)

	assert.Equal(t, "p1", matches[0].PlayerA)
	assert.Equal(t, "p2", matches[0].PlayerB)
	assert.Equal(t, "p2", matches[1].PlayerA)
	assert.Equal(t, "p3", matches[1].PlayerB)
	assert.Equal(t, "p3", matches[2].PlayerA)
	assert.Equal(t, "p1", matches[2].PlayerB)
}

func TestDistributePromptsEveryPlayerTwice(t *testing.T) {
	ids := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}
	prompts := promptsForGame(len(ids), "classic", nil)

	matches := distributePrompts(ids, prompts)
	require.Len(t, matches, len(ids))

	appearances := map[string]int{}
	for _, m := range matches {
		assert.NotEqual(t, m.PlayerA, m.PlayerB, "a player cannot face themselves")
		assert.NotNil(t, m.VotesA)
		assert.NotNil(t, m.VotesB)
		appearances[m.PlayerA]++
		appearances[m.PlayerB]++
	}
	for _, id := range ids {
		assert.Equal(t, 2, appearances[id], "player %s", id)
	}
}

func TestPlayerPromptsAssignments(t *testing.T) {
	matches := distributePrompts([]string{"p1", "p2", "p3"}, []string{"a", "b", "c"})

	pp := playerPrompts("p2", matches)
	require.Len(t, pp, 2)
	assert.Equal(t, 0, pp[0].PromptIndex)
	assert.False(t, pp[0].IsPlayerA)
	assert.Equal(t, 1, pp[1].PromptIndex)
	assert.True(t, pp[1].IsPlayerA)

	assert.Empty(t, playerPrompts("ghost", matches))
}

func TestPromptsForGameWrapsShortPools(t *testing.T) {
	lib := &PromptLibrary{Prompts: []string{"solo una"}}

	out := promptsForGame(4, "classic", lib)
	require.Len(t, out, 4)
	for _, p := range out {
		assert.Equal(t, "solo una", p)
	}
}

func TestPromptsForGameModePools(t *testing.T) {
	spicy := map[string]bool{}
	for _, p := range spicyPrompts {
		spicy[p] = true
	}

	for _, p := range promptsForGame(10, "spicy", nil) {
		assert.True(t, spicy[p], "spicy mode must draw from the spicy pool: %q", p)
	}
	for _, p := range promptsForGame(10, "family", nil) {
		assert.False(t, spicy[p], "family mode must not draw spicy prompts: %q", p)
	}
}

func TestShufflePromptsPreservesContents(t *testing.T) {
	out := shufflePrompts(defaultPrompts)
	require.Len(t, out, len(defaultPrompts))

	assert.ElementsMatch(t, defaultPrompts, out)
}

func TestLibraryLifecycle(t *testing.T) {
	st := newMemoryStore()

	code, err := createLibrary(st, "Mis preguntas", []string{"uno", " ", "dos"}, "clave")
	require.NoError(t, err)
	require.Len(t, code, 6)

	lib, err := getLibrary(st, code)
	require.NoError(t, err)
	assert.Equal(t, "Mis preguntas", lib.Name)
	assert.Equal(t, []string{"uno", "dos"}, lib.Prompts, "blank prompts are dropped")
	assert.NotEmpty(t, lib.PasswordHash)

	require.ErrorIs(t, checkLibraryPassword(lib, "mal"), errLibraryPassword)
	require.NoError(t, checkLibraryPassword(lib, "clave"))

	require.ErrorIs(t, updateLibrary(st, code, "Otro nombre", nil, "mal"), errLibraryPassword)
	require.NoError(t, updateLibrary(st, code, "Otro nombre", nil, "clave"))

	lib, err = getLibrary(st, code)
	require.NoError(t, err)
	assert.Equal(t, "Otro nombre", lib.Name)

	require.NoError(t, incrementLibraryPlayCount(st, code))
	lib, err = getLibrary(st, code)
	require.NoError(t, err)
	assert.Equal(t, 1, lib.PlayCount)

	require.NoError(t, deleteLibrary(st, code, "clave"))
	_, err = getLibrary(st, code)
	require.ErrorIs(t, err, errLibraryNotFound)
}

func TestLibraryHashStable(t *testing.T) {
	assert.Equal(t, libraryHash("clave"), libraryHash("clave"))
	assert.NotEqual(t, libraryHash("clave"), libraryHash("clavf"))
}

func TestGetLibraryUnknownCode(t *testing.T) {
	st := newMemoryStore()
	_, err := getLibrary(st, "XXXXXX")
	require.ErrorIs(t, err, errLibraryNotFound)
}
