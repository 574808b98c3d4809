package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxNameLength = 15

var (
	errRoomNotFound = errors.New("esta sala no existe")
	errRoomClosed   = errors.New("la sala está cerrada")
	errEmptyName    = errors.New("introduce tu nombre")
	errNameTooLong  = errors.New("el nombre es demasiado largo (máx. 15 caracteres)")
)

// JoinResult tells the joining client who it ended up being. ResolvedID may
// differ from the presented ID when a second human reuses the same session.
type JoinResult struct {
	ResolvedID  string `json:"playerId"`
	IsHost      bool   `json:"isHost"`
	IsSpectator bool   `json:"isSpectator"`
	Reconnected bool   `json:"reconnected"`
}

// joinRoom admits a player, resolving identity per the presented session ID:
// unknown ID creates a record (first joiner becomes host, post-LOBBY joiners
// become spectators); known ID with the same name is a reconnect; known ID
// with a different name is a different human on the same device and gets a
// freshly minted ID. Players never create rooms — only a TV does.
func joinRoom(cfg *Config, st StateStore, roomID, playerID, name, characterID string) (JoinResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return JoinResult{}, errEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return JoinResult{}, errNameTooLong
	}

	roomID = strings.ToUpper(roomID)

	var room Room
	exists, err := readAs(st, roomPath(roomID), &room)
	if err != nil {
		return JoinResult{}, err
	}
	if !exists {
		return JoinResult{}, errRoomNotFound
	}
	if room.IsClosed {
		return JoinResult{}, errRoomClosed
	}

	gameStarted := room.GameState.Status != StatusLobby

	if existing, ok := room.Players[playerID]; ok {
		if existing.Name == displayName(name, characterID) || existing.Name == name {
			logf(cfg, "JOIN: %s reconnected to %s", existing.Name, roomID)
			return JoinResult{
				ResolvedID:  playerID,
				IsHost:      existing.IsHost,
				IsSpectator: existing.IsSpectator,
				Reconnected: true,
			}, nil
		}
		// Same session, different human: mint a fresh globally-random ID.
		playerID = uuid.NewString()
		player := newPlayer(playerID, displayName(name, characterID), false, pickAvatar(characterID), gameStarted)
		if err := st.Write(playerPath(roomID, playerID), player); err != nil {
			return JoinResult{}, fmt.Errorf("joining room: %w", err)
		}
		logf(cfg, "JOIN: %s joined %s with minted ID (spectator=%t)", player.Name, roomID, gameStarted)
		return JoinResult{ResolvedID: playerID, IsSpectator: gameStarted}, nil
	}

	willBeHost := len(room.Players) == 0
	player := newPlayer(playerID, displayName(name, characterID), willBeHost, pickAvatar(characterID), gameStarted)

	if err := st.Write(playerPath(roomID, playerID), player); err != nil {
		return JoinResult{}, fmt.Errorf("joining room: %w", err)
	}
	if willBeHost {
		if err := st.Patch(roomPath(roomID), map[string]any{"hostId": playerID}); err != nil {
			return JoinResult{}, fmt.Errorf("claiming host: %w", err)
		}
	}

	logf(cfg, "JOIN: %s joined %s (host=%t spectator=%t)", player.Name, roomID, willBeHost, gameStarted)
	return JoinResult{ResolvedID: playerID, IsHost: willBeHost, IsSpectator: gameStarted}, nil
}

// displayName appends the chosen character's name, as the original join flow
// did for picked (non-random) avatars.
func displayName(name, characterID string) string {
	if a, ok := avatarByCharacter(characterID); ok {
		return name + " - " + a.CharacterName
	}
	return name
}

func pickAvatar(characterID string) Avatar {
	if a, ok := avatarByCharacter(characterID); ok {
		return a
	}
	return randomAvatar()
}

// leaveRoom removes a player. A departing host hands off in LOBBY, closes
// the room from PODIUM, and mid-game simply leaves (the game continues
// without full host authority).
func leaveRoom(cfg *Config, st StateStore, roomID, playerID string) error {
	roomID = strings.ToUpper(roomID)

	var room Room
	exists, err := readAs(st, roomPath(roomID), &room)
	if err != nil {
		return err
	}
	if !exists {
		return errRoomNotFound
	}

	leaver, ok := room.Players[playerID]
	if !ok {
		return nil
	}

	if leaver.IsHost {
		switch room.GameState.Status {
		case StatusLobby:
			var successor string
			for _, p := range eligiblePlayers(room.Players) {
				if p.ID != playerID {
					successor = p.ID
					break
				}
			}
			if successor != "" {
				// Transfer before removal so there is never a hostless lobby.
				if err := st.Patch(roomPath(roomID), map[string]any{
					"hostId": successor,
					joinPath("players", successor, "isHost"): true,
				}); err != nil {
					return fmt.Errorf("host handoff: %w", err)
				}
				logf(cfg, "JOIN: Host handoff in %s to %s", roomID, successor)
			}
		case StatusPodium:
			logf(cfg, "JOIN: Host left finished room %s, closing", roomID)
			return closeRoom(st, roomID)
		}
	}

	logf(cfg, "JOIN: %s left %s", leaver.Name, roomID)
	return st.Delete(playerPath(roomID, playerID))
}
