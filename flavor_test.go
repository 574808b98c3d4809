package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseFlavorSubstitutesRound(t *testing.T) {
	for i := 0; i < 20; i++ {
		line := phaseFlavor(StatusInput, 3)
		assert.NotEmpty(t, line)
		assert.NotContains(t, line, "{round}")
	}
	assert.Empty(t, phaseFlavor(GameStatus("desconocido"), 1))
}

func TestPhaseFlavorEveryPhaseCovered(t *testing.T) {
	for _, status := range []GameStatus{StatusLobby, StatusInput, StatusVoting, StatusResults, StatusPodium} {
		line := phaseFlavor(status, 1)
		assert.NotEmpty(t, line, "phase %s", status)
		assert.False(t, strings.Contains(line, "{"), "unsubstituted placeholder in %q", line)
	}
}
