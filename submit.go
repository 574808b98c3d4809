package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errUnansweredPrompts = errors.New("debes responder a todas las preguntas antes de enviar")
	errNoSuchMatch       = errors.New("no existe ese enfrentamiento")
	errOwnMatchVote      = errors.New("no puedes votar en tu propio enfrentamiento")
)

// submitAnswers finalizes a player's round: every assigned prompt must be
// answered, the answers land in their match fields, and the submittedRound
// marker flips to the current round. The marker is what the referee watches
// for early phase advancement, and it makes a repeated submit a no-op.
func submitAnswers(cfg *Config, st StateStore, roomID, playerID string, responses map[int]string) error {
	roomID = strings.ToUpper(roomID)

	var room Room
	exists, err := readAs(st, roomPath(roomID), &room)
	if err != nil {
		return err
	}
	if !exists {
		return errRoomNotFound
	}

	assigned := playerPrompts(playerID, room.Matches)
	for _, pp := range assigned {
		if strings.TrimSpace(responses[pp.PromptIndex]) == "" {
			return errUnansweredPrompts
		}
	}

	if room.Players[playerID].SubmittedRound == room.GameState.CurrentRound {
		return nil
	}

	for _, pp := range assigned {
		if err := writeResponse(st, roomID, pp, responses[pp.PromptIndex]); err != nil {
			return err
		}
	}

	logf(cfg, "GAME: %s submitted round %d in %s", playerID, room.GameState.CurrentRound, roomID)
	return st.Patch(playerPath(roomID, playerID), map[string]any{
		"hasSubmitted":   true,
		"submittedRound": room.GameState.CurrentRound,
	})
}

// autoSubmit flushes whatever partial text a player had when the phase
// flipped to VOTING. Empty fields are skipped for the fill sweep. The
// submittedRound marker guards both re-runs and running after a manual
// submit.
func autoSubmit(cfg *Config, st StateStore, roomID, playerID string, responses map[int]string) error {
	roomID = strings.ToUpper(roomID)

	var room Room
	exists, err := readAs(st, roomPath(roomID), &room)
	if err != nil {
		return err
	}
	if !exists {
		return errRoomNotFound
	}

	if room.Players[playerID].SubmittedRound == room.GameState.CurrentRound {
		return nil
	}

	for _, pp := range playerPrompts(playerID, room.Matches) {
		text := strings.TrimSpace(responses[pp.PromptIndex])
		if text == "" {
			continue
		}
		if err := writeResponse(st, roomID, pp, text); err != nil {
			return err
		}
	}

	logf(cfg, "GAME: %s auto-submitted round %d in %s", playerID, room.GameState.CurrentRound, roomID)
	return st.Patch(playerPath(roomID, playerID), map[string]any{
		"hasSubmitted":   true,
		"submittedRound": room.GameState.CurrentRound,
	})
}

func writeResponse(st StateStore, roomID string, pp PlayerPrompt, text string) error {
	field := "responseB"
	if pp.IsPlayerA {
		field = "responseA"
	}
	path := joinPath(matchesPath(roomID), strconv.Itoa(pp.PromptIndex))
	if err := st.Patch(path, map[string]any{field: text}); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// castVote appends the voter to one side's collection. The whole match node
// is the transaction target: two devices voting in the same instant cannot
// both observe an empty collection, and a voter already present in either
// collection stays where they are, so a duplicate attempt is a silent no-op.
func castVote(cfg *Config, st StateStore, roomID, playerID string, matchIndex int, choice string) error {
	roomID = strings.ToUpper(roomID)
	path := joinPath(matchesPath(roomID), strconv.Itoa(matchIndex))

	return st.AtomicUpdate(path, func(current any) (any, error) {
		var m Match
		ok, err := decodeAs(current, &m)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNoSuchMatch
		}

		if playerID == m.PlayerA || playerID == m.PlayerB {
			return nil, errOwnMatchVote
		}

		for _, id := range m.VotesA {
			if id == playerID {
				return current, nil
			}
		}
		for _, id := range m.VotesB {
			if id == playerID {
				return current, nil
			}
		}

		if choice == "A" {
			m.VotesA = append(m.VotesA, playerID)
		} else {
			m.VotesB = append(m.VotesB, playerID)
		}

		logf(cfg, "GAME: %s voted %s on match %d in %s", playerID, choice, matchIndex, roomID)
		return m, nil
	})
}
