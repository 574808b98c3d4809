package main

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

const chatHistory = 10

// ChatMessage is an ephemeral lobby/podium message. Chat lives inside the
// room node so it is recycled along with everything else.
type ChatMessage struct {
	ID       string `json:"id"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	SentAt   int64  `json:"sentAt"`
}

// sendChat appends a message and trims history to the newest entries, all in
// one transaction so subscribers never see the intermediate oversized list.
func sendChat(cfg *Config, st StateStore, roomID, playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runes := []rune(text); len(runes) > 200 {
		text = string(runes[:200])
	}

	roomID = strings.ToUpper(roomID)

	var room Room
	exists, err := readAs(st, roomPath(roomID), &room)
	if err != nil {
		return err
	}
	if !exists {
		return errRoomNotFound
	}
	sender, ok := room.Players[playerID]
	if !ok {
		return nil
	}

	msg := ChatMessage{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Name:     sender.Name,
		Text:     text,
		SentAt:   nowMillis(),
	}

	return st.AtomicUpdate(chatPath(roomID), func(current any) (any, error) {
		var msgs []ChatMessage
		if _, err := decodeAs(current, &msgs); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
		sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt < msgs[j].SentAt })
		if len(msgs) > chatHistory {
			msgs = msgs[len(msgs)-chatHistory:]
		}
		logf(cfg, "CHAT: %s in %s: %s", sender.Name, roomID, text)
		return msgs, nil
	})
}
