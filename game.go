package main

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
	"strings"
	"time"
)

type GameStatus string

const (
	StatusLobby   GameStatus = "LOBBY"
	StatusInput   GameStatus = "INPUT"
	StatusVoting  GameStatus = "VOTING"
	StatusResults GameStatus = "RESULTS"
	StatusPodium  GameStatus = "PODIUM"
)

// Avatar is cosmetic only; the character catalog drives no behavior.
type Avatar struct {
	CharacterID   string `json:"characterId"`
	CharacterName string `json:"characterName"`
	ImageURL      string `json:"imageUrl"`
}

type Streak struct {
	CurrentWins      int `json:"currentWins"`
	CurrentLosses    int `json:"currentLosses"`
	LongestWinStreak int `json:"longestWinStreak"`
}

type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Score          int    `json:"score"`
	IsHost         bool   `json:"isHost"`
	IsSpectator    bool   `json:"isSpectator,omitempty"`
	HasSubmitted   bool   `json:"hasSubmitted"`
	SubmittedRound int    `json:"submittedRound"`
	JoinedAt       int64  `json:"joinedAt"`
	Avatar         Avatar `json:"avatar"`
	Streak         Streak `json:"streak"`
}

type Match struct {
	PromptText  string   `json:"promptText"`
	PromptIndex int      `json:"promptIndex"`
	PlayerA     string   `json:"playerA"`
	PlayerB     string   `json:"playerB"`
	ResponseA   string   `json:"responseA"`
	ResponseB   string   `json:"responseB"`
	VotesA      []string `json:"votesA"`
	VotesB      []string `json:"votesB"`
	Revealed    bool     `json:"revealed"`
}

type GameState struct {
	Status            GameStatus `json:"status"`
	CurrentRound      int        `json:"currentRound"`
	TotalRounds       int        `json:"totalRounds"`
	CurrentMatchIndex int        `json:"currentMatchIndex"`
	InputTimeLimit    int        `json:"inputTimeLimit"`
	VoteTimeLimit     int        `json:"voteTimeLimit"`
	PhaseEndTime      int64      `json:"phaseEndTime,omitempty"`
	GameMode          string     `json:"gameMode,omitempty"`
	LibraryCode       string     `json:"libraryCode,omitempty"`
	FlavorText        string     `json:"flavorText,omitempty"`
}

type Room struct {
	ID         string            `json:"id"`
	CreatedAt  int64             `json:"createdAt"`
	LastActive int64             `json:"lastActive"`
	HostID     string            `json:"hostId"`
	IsClosed   bool              `json:"isClosed,omitempty"`
	GameState  GameState         `json:"gameState"`
	Players    map[string]Player `json:"players"`
	Matches    []Match           `json:"matches"`
	Prompts    []string          `json:"prompts"`
}

// GameModeConfig tunes round count and phase durations per mode.
type GameModeConfig struct {
	Rounds         int
	InputTimeLimit int
	VoteTimeLimit  int
	SpicyPrompts   bool
}

var gameModes = map[string]GameModeConfig{
	"classic": {Rounds: 2, InputTimeLimit: 90, VoteTimeLimit: 20},
	"quick":   {Rounds: 1, InputTimeLimit: 60, VoteTimeLimit: 15},
	"epic":    {Rounds: 5, InputTimeLimit: 90, VoteTimeLimit: 20},
	"family":  {Rounds: 2, InputTimeLimit: 120, VoteTimeLimit: 25},
	"spicy":   {Rounds: 2, InputTimeLimit: 90, VoteTimeLimit: 20, SpicyPrompts: true},
}

func newGameState(mode string) GameState {
	cfg, ok := gameModes[mode]
	if !ok {
		mode = "classic"
		cfg = gameModes[mode]
	}
	return GameState{
		Status:         StatusLobby,
		CurrentRound:   1,
		TotalRounds:    cfg.Rounds,
		InputTimeLimit: cfg.InputTimeLimit,
		VoteTimeLimit:  cfg.VoteTimeLimit,
		GameMode:       mode,
		FlavorText:     phaseFlavor(StatusLobby, 1),
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// newPlayerID mints an opaque per-session identifier. Reconnects within the
// same tab present the same ID; a fresh one is globally random.
func newPlayerID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

var avatarCharacters = []Avatar{
	{CharacterID: "banana-resbalon", CharacterName: `Banana "Resbalón"`, ImageURL: "/avatars/banana-resbalon.png"},
	{CharacterID: "aguacate-el-fit", CharacterName: `Aguacate "El Fit"`, ImageURL: "/avatars/aguacate-el-fit.png"},
	{CharacterID: "don-limon", CharacterName: "Don Limón", ImageURL: "/avatars/don-limon.png"},
	{CharacterID: "pina-punky", CharacterName: "Piña Punky", ImageURL: "/avatars/pina-punky.png"},
	{CharacterID: "coco-loco", CharacterName: "Coco Loco", ImageURL: "/avatars/coco-loco.png"},
	{CharacterID: "fresa-la-influencer", CharacterName: "Fresa La Influencer", ImageURL: "/avatars/fresa-la-influencer.png"},
	{CharacterID: "sandia-la-bomba", CharacterName: `Sandía "La Bomba"`, ImageURL: "/avatars/sandia-la-bomba.png"},
	{CharacterID: "cereza-gemela", CharacterName: "Cereza Gemela", ImageURL: "/avatars/cereza-gemela.png"},
	{CharacterID: "pera-fecto", CharacterName: "Pera-Fecto", ImageURL: "/avatars/pera-fecto.png"},
	{CharacterID: "naranja-mecanica", CharacterName: "Naranja Mecánica", ImageURL: "/avatars/naranja-mecanica.png"},
	{CharacterID: "arandano-el-azul", CharacterName: `Arándano "El Azul"`, ImageURL: "/avatars/arandano-el-azul.png"},
	{CharacterID: "granada-explosiva", CharacterName: "Granada Explosiva", ImageURL: "/avatars/granada-explosiva.png"},
	{CharacterID: "pitaya-mistica", CharacterName: "Pitaya Mística", ImageURL: "/avatars/pitaya-mistica.png"},
	{CharacterID: "higo-el-viejo", CharacterName: "Higo El Viejo", ImageURL: "/avatars/higo-el-viejo.png"},
	{CharacterID: "melocoton-terciopelo", CharacterName: "Melocotón Terciopelo", ImageURL: "/avatars/melocoton-terciopelo.png"},
	{CharacterID: "durian-el-pestes", CharacterName: "Durian El Pestes", ImageURL: "/avatars/durian-el-pestes.png"},
	{CharacterID: "paco-manzana", CharacterName: "Paco Manzana", ImageURL: "/avatars/paco-manzana.png"},
	{CharacterID: "uva-el-peque", CharacterName: `Uva "El Peque"`, ImageURL: "/avatars/uva-el-peque.png"},
	{CharacterID: "kiko-kiwi", CharacterName: "Kiko Kiwi", ImageURL: "/avatars/kiko-kiwi.png"},
	{CharacterID: "china-mandarina", CharacterName: "China Mandarina", ImageURL: "/avatars/china-mandarina.png"},
}

func randomAvatar() Avatar {
	buf := make([]byte, 1)
	if _, err := rand.Read(buf); err != nil {
		return avatarCharacters[0]
	}
	return avatarCharacters[int(buf[0])%len(avatarCharacters)]
}

func avatarByCharacter(characterID string) (Avatar, bool) {
	for _, a := range avatarCharacters {
		if a.CharacterID == characterID {
			return a, true
		}
	}
	return Avatar{}, false
}

func newPlayer(id, name string, isHost bool, avatar Avatar, isSpectator bool) Player {
	return Player{
		ID:          id,
		Name:        name,
		IsHost:      isHost,
		IsSpectator: isSpectator,
		JoinedAt:    nowMillis(),
		Avatar:      avatar,
	}
}

// sortPlayersByJoin orders by join time, ID as tiebreaker, so pairing and
// host handoff are deterministic even though the store holds a map.
func sortPlayersByJoin(players []Player) {
	slices.SortFunc(players, func(a, b Player) int {
		if a.JoinedAt != b.JoinedAt {
			return int(a.JoinedAt - b.JoinedAt)
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Store path helpers.

func roomPath(roomID string) string        { return joinPath("rooms", roomID) }
func gameStatePath(roomID string) string   { return joinPath("rooms", roomID, "gameState") }
func playersPath(roomID string) string     { return joinPath("rooms", roomID, "players") }
func playerPath(roomID, pid string) string { return joinPath("rooms", roomID, "players", pid) }
func matchesPath(roomID string) string     { return joinPath("rooms", roomID, "matches") }
func chatPath(roomID string) string        { return joinPath("rooms", roomID, "chat") }
func libraryPath(code string) string       { return joinPath("libraries", code) }

// eligiblePlayers returns the non-spectator players in stable join order.
func eligiblePlayers(players map[string]Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if !p.IsSpectator {
			out = append(out, p)
		}
	}
	sortPlayersByJoin(out)
	return out
}
