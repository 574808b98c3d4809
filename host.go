package main

import (
	"errors"
	"strings"
)

const minPlayers = 3

var (
	errNotEnoughPlayers = errors.New("necesitas al menos 3 jugadores")
	errNotHost          = errors.New("solo el anfitrión puede hacer eso")
	errNotInLobby       = errors.New("la partida ya ha empezado")
)

// startGame begins round 1: selects prompts, builds the match ring and flips
// the room to INPUT with an absolute phase deadline.
func startGame(cfg *Config, st StateStore, roomID, playerID, libraryCode string) error {
	roomID = strings.ToUpper(roomID)

	var room Room
	exists, err := readAs(st, roomPath(roomID), &room)
	if err != nil {
		return err
	}
	if !exists {
		return errRoomNotFound
	}
	if room.HostID != playerID {
		return errNotHost
	}
	if room.GameState.Status != StatusLobby {
		return errNotInLobby
	}

	eligible := eligiblePlayers(room.Players)
	if len(eligible) < minPlayers {
		return errNotEnoughPlayers
	}

	var library *PromptLibrary
	if libraryCode != "" {
		library, err = getLibrary(st, libraryCode)
		if err != nil {
			return err
		}
		// Best effort; a lost increment is not worth failing the start.
		_ = incrementLibraryPlayCount(st, libraryCode)
	}

	ids := make([]string, len(eligible))
	for i, p := range eligible {
		ids[i] = p.ID
	}

	prompts := promptsForGame(len(ids), room.GameState.GameMode, library)
	matches := distributePrompts(ids, prompts)

	state := room.GameState
	state.Status = StatusInput
	state.CurrentRound = 1
	state.CurrentMatchIndex = 0
	state.PhaseEndTime = nowMillis() + int64(state.InputTimeLimit)*1000
	state.FlavorText = phaseFlavor(StatusInput, 1)
	state.LibraryCode = libraryCode

	logf(cfg, "GAME: Starting game in %s with %d players", roomID, len(ids))
	return st.Patch(roomPath(roomID), map[string]any{
		"prompts":    prompts,
		"matches":    matches,
		"gameState":  state,
		"lastActive": nowMillis(),
	})
}

// playAgain returns a finished room to LOBBY: regular players keep their
// seats with zeroed scores and markers, spectators are dropped outright,
// and the match list is cleared.
func playAgain(cfg *Config, st StateStore, roomID, playerID string) error {
	roomID = strings.ToUpper(roomID)

	var room Room
	exists, err := readAs(st, roomPath(roomID), &room)
	if err != nil {
		return err
	}
	if !exists {
		return errRoomNotFound
	}
	if room.HostID != playerID {
		return errNotHost
	}

	fields := map[string]any{
		"matches":    []Match{},
		"prompts":    []string{},
		"gameState":  newGameState(room.GameState.GameMode),
		"lastActive": nowMillis(),
	}
	for id, p := range room.Players {
		if p.IsSpectator {
			fields[joinPath("players", id)] = nil
		} else {
			fields[joinPath("players", id, "score")] = 0
			fields[joinPath("players", id, "hasSubmitted")] = false
			fields[joinPath("players", id, "submittedRound")] = 0
			fields[joinPath("players", id, "streak")] = Streak{}
		}
	}

	logf(cfg, "GAME: Play again in %s", roomID)
	return st.Patch(roomPath(roomID), fields)
}
