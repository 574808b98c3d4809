package main

import (
	"crypto/rand"
	"fmt"
	"time"
)

// roomWords is the fixed room-code vocabulary: short, memorable, all four
// letters. Enough for realistic concurrent room counts; exhaustion falls
// back to forced recycling.
var roomWords = []string{
	"BOLA", "TACO", "GATO", "PATO", "LUNA", "MAGO", "RAYO", "PUMA",
	"NUBE", "FLOR", "ROCA", "SOPA", "MESA", "VINO", "CAFE", "POLO",
	"RATA", "COCO", "FOCA", "LEON", "PERA", "KIWI", "LOBO", "MONO",
	"BUHO", "RANA", "FARO", "NAVE", "DADO", "DEDO", "LAVA", "COPA",
}

// recycleThresholds decide when an existing room's code may be reclaimed.
type recycleThresholds struct {
	finishedGrace time.Duration // terminal phase, nobody came back
	inactive      time.Duration // no heartbeat
	maxAge        time.Duration // hard ceiling regardless of activity
}

func (c *Config) thresholds() recycleThresholds {
	return recycleThresholds{
		finishedGrace: c.finishedGrace,
		inactive:      c.inactiveTimeout,
		maxAge:        c.roomMaxAge,
	}
}

// isRecyclable classifies an existing room against the thresholds.
func isRecyclable(room Room, now int64, th recycleThresholds) bool {
	lastActive := room.LastActive
	if lastActive == 0 {
		lastActive = room.CreatedAt
	}
	sinceActive := time.Duration(now-lastActive) * time.Millisecond
	age := time.Duration(now-room.CreatedAt) * time.Millisecond

	if room.GameState.Status == StatusPodium && sinceActive > th.finishedGrace {
		return true
	}
	if sinceActive > th.inactive {
		return true
	}
	return age > th.maxAge
}

func pickWord(words []string) string {
	buf := make([]byte, 1)
	if _, err := rand.Read(buf); err != nil {
		return words[0]
	}
	return words[int(buf[0])%len(words)]
}

// allocateRoom returns a code the caller can claim as TV. Free codes win;
// otherwise a recyclable room is destroyed and its code reused; under total
// exhaustion the globally oldest-by-activity room is evicted. Two TVs
// allocating in the same instant race, and the last writer wins.
func allocateRoom(cfg *Config, st StateStore) (string, error) {
	raw, err := st.Read("rooms")
	if err != nil {
		return "", fmt.Errorf("listing rooms: %w", err)
	}

	existing := map[string]Room{}
	if rooms, ok := raw.(map[string]any); ok {
		for code, v := range rooms {
			var room Room
			if ok, err := decodeAs(v, &room); err == nil && ok {
				existing[code] = room
			}
		}
	}

	now := nowMillis()
	th := cfg.thresholds()

	var free, recyclable []string
	for _, word := range roomWords {
		room, taken := existing[word]
		if !taken {
			free = append(free, word)
		} else if isRecyclable(room, now, th) {
			recyclable = append(recyclable, word)
		}
	}

	switch {
	case len(free) > 0:
		return pickWord(free), nil

	case len(recyclable) > 0:
		code := pickWord(recyclable)
		// Destroy first so evicted clients see the tree vanish; the new
		// owner rebuilds from scratch.
		if err := st.Delete(roomPath(code)); err != nil {
			return "", fmt.Errorf("recycling room %s: %w", code, err)
		}
		logf(cfg, "ROOMS: Recycled room %s", code)
		return code, nil

	default:
		oldest := roomWords[0]
		oldestTime := int64(1<<63 - 1)
		for _, word := range roomWords {
			room := existing[word]
			t := room.LastActive
			if t == 0 {
				t = room.CreatedAt
			}
			if t < oldestTime {
				oldestTime = t
				oldest = word
			}
		}
		if err := st.Delete(roomPath(oldest)); err != nil {
			return "", fmt.Errorf("force-recycling room %s: %w", oldest, err)
		}
		logf(cfg, "ROOMS: All rooms busy, force-recycled oldest room %s", oldest)
		return oldest, nil
	}
}

// ensureRoom lazily creates the room record for a TV claiming a code. An
// existing room is left alone except for a heartbeat touch, so a TV reload
// reconnects instead of wiping state.
func ensureRoom(cfg *Config, st StateStore, roomID, mode string) error {
	var room Room
	exists, err := readAs(st, roomPath(roomID), &room)
	if err != nil {
		return err
	}

	if exists {
		return st.Patch(roomPath(roomID), map[string]any{"lastActive": nowMillis()})
	}

	logf(cfg, "ROOMS: Creating room %s", roomID)
	return st.Write(roomPath(roomID), Room{
		ID:         roomID,
		CreatedAt:  nowMillis(),
		LastActive: nowMillis(),
		GameState:  newGameState(mode),
		Players:    map[string]Player{},
		Matches:    []Match{},
		Prompts:    []string{},
	})
}

// touchRoom refreshes the activity heartbeat that keeps a live game from
// being classified as abandoned.
func touchRoom(st StateStore, roomID string) error {
	return st.Patch(roomPath(roomID), map[string]any{"lastActive": nowMillis()})
}

// closeRoom flags the room terminal; every client must stop interacting and
// the TV re-homes to a fresh code.
func closeRoom(st StateStore, roomID string) error {
	return st.Patch(roomPath(roomID), map[string]any{"isClosed": true})
}
