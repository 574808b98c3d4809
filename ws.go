package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Messages coming from clients
type ClientMessage struct {
	Type        string         `json:"type"`                  // "claim", "join", "leave", "start_game", "submit", "auto_submit", "vote", "chat", "play_again", "create_library", "load_library"
	Name        string         `json:"name,omitempty"`        // join / create_library
	CharacterID string         `json:"characterId,omitempty"` // join
	Mode        string         `json:"mode,omitempty"`        // claim
	Responses   map[int]string `json:"responses,omitempty"`   // submit / auto_submit
	MatchIndex  int            `json:"matchIndex"`            // vote
	Choice      string         `json:"choice,omitempty"`      // vote: "A" or "B"
	Text        string         `json:"text,omitempty"`        // chat
	LibraryCode string         `json:"libraryCode,omitempty"` // start_game / load_library
	Prompts     []string       `json:"prompts,omitempty"`     // create_library
	Password    string         `json:"password,omitempty"`    // create_library / load_library
}

// RoomStateMessage carries the full room snapshot; clients render from it
// and nothing else. A nil room means the room was recycled or closed.
type RoomStateMessage struct {
	Type string `json:"type"` // "room_state"
	Room *Room  `json:"room"`
}

// JoinedMessage is sent to the joining client only, with its resolved
// identity.
type JoinedMessage struct {
	Type string     `json:"type"` // "joined"
	Join JoinResult `json:"join"`
}

// ErrorMessage is sent to a single client when its request was rejected.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Op      string `json:"op"`
	Message string `json:"message"`
}

// LibraryMessage answers create_library and load_library.
type LibraryMessage struct {
	Type    string   `json:"type"` // "library"
	Code    string   `json:"code"`
	Name    string   `json:"name,omitempty"`
	Prompts []string `json:"prompts,omitempty"`
}

type wsClient struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	isTV     bool
}

// roomHub fans one room's store subscription out to its websocket clients.
// The first TV to claim the room also owns the referee.
type roomHub struct {
	roomID string

	mu      sync.Mutex
	clients map[*wsClient]bool

	unsubscribe  func()
	refereeStop  context.CancelFunc
	refereeAlive bool
}

// RoomManager holds a hub per room code, created lazily on first connect
// and discarded once the last client leaves.
type RoomManager struct {
	cfg *Config
	st  StateStore
	gen Generator

	mu   sync.Mutex
	hubs map[string]*roomHub
}

func newRoomManager(cfg *Config, st StateStore, gen Generator) *RoomManager {
	return &RoomManager{
		cfg:  cfg,
		st:   st,
		gen:  gen,
		hubs: make(map[string]*roomHub),
	}
}

func (rm *RoomManager) getHub(roomID string) *roomHub {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if hub, ok := rm.hubs[roomID]; ok {
		return hub
	}

	hub := &roomHub{
		roomID:  roomID,
		clients: make(map[*wsClient]bool),
	}
	hub.unsubscribe = rm.st.Subscribe(roomPath(roomID), func(value any) {
		var room *Room
		if value != nil {
			var r Room
			if ok, err := decodeAs(value, &r); err == nil && ok {
				room = &r
			}
		}
		hub.broadcast(RoomStateMessage{Type: "room_state", Room: room})
	})
	rm.hubs[roomID] = hub
	return hub
}

// dropIfEmpty tears the hub down once its last client disconnects, ending
// the subscription and the referee with it.
func (rm *RoomManager) dropIfEmpty(hub *roomHub) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	hub.mu.Lock()
	empty := len(hub.clients) == 0
	hub.mu.Unlock()
	if !empty {
		return
	}

	hub.unsubscribe()
	hub.stopReferee()
	delete(rm.hubs, hub.roomID)
}

func (h *roomHub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *roomHub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast sends to every client, dropping any whose buffer is full.
func (h *roomHub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// startReferee launches the phase driver for this room exactly once per hub.
func (h *roomHub) startReferee(cfg *Config, st StateStore, gen Generator) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.refereeAlive {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.refereeStop = cancel
	h.refereeAlive = true

	ref := newReferee(cfg, st, gen, h.roomID)
	go func() {
		ref.run(ctx)
		h.mu.Lock()
		h.refereeAlive = false
		h.mu.Unlock()
	}()
}

func (h *roomHub) stopReferee() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refereeStop != nil {
		h.refereeStop()
		h.refereeStop = nil
	}
}

const playerCookieName = "sinfiltro_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := newPlayerID()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS upgrades a client (TV or player) into a room's hub.
func serveWS(cfg *Config, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := strings.ToUpper(ps.ByName("room"))
		if roomID == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		isTV := r.URL.Query().Get("role") == "tv"

		hub := rm.getHub(roomID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &wsClient{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
			isTV:     isTV,
		}

		hub.register(client)

		// Fresh connections get the current snapshot immediately rather
		// than waiting for the next commit.
		if raw, err := rm.st.Read(roomPath(roomID)); err == nil {
			var room *Room
			if raw != nil {
				var rr Room
				if ok, err := decodeAs(raw, &rr); err == nil && ok {
					room = &rr
				}
			}
			client.send <- RoomStateMessage{Type: "room_state", Room: room}
		}

		go client.writePump()
		client.readPump(rm, hub)
	}
}

func (c *wsClient) readPump(rm *RoomManager, hub *roomHub) {
	defer func() {
		hub.unregister(c)
		_ = c.conn.Close()
		rm.dropIfEmpty(hub)
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		rm.dispatch(c, hub, msg)
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// reply queues a message for this client only.
func (c *wsClient) reply(msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *wsClient) replyErr(op string, err error) {
	c.reply(ErrorMessage{Type: "error", Op: op, Message: err.Error()})
}

// dispatch routes one client message to the matching operation. Rejections
// go back to the sender only; accepted writes surface to everyone through
// the room subscription.
func (rm *RoomManager) dispatch(c *wsClient, hub *roomHub, msg ClientMessage) {
	cfg, st := rm.cfg, rm.st
	roomID := hub.roomID

	switch msg.Type {
	case "claim":
		// A TV claiming its code creates the room and takes referee duty.
		if !c.isTV {
			return
		}
		mode := msg.Mode
		if mode == "" {
			mode = cfg.defaultMode
		}
		if err := ensureRoom(cfg, st, roomID, mode); err != nil {
			c.replyErr(msg.Type, err)
			return
		}
		hub.startReferee(cfg, st, rm.gen)

	case "join":
		result, err := joinRoom(cfg, st, roomID, c.playerID, msg.Name, msg.CharacterID)
		if err != nil {
			c.replyErr(msg.Type, err)
			return
		}
		c.playerID = result.ResolvedID
		c.reply(JoinedMessage{Type: "joined", Join: result})
		_ = touchRoom(st, roomID)

	case "leave":
		if err := leaveRoom(cfg, st, roomID, c.playerID); err != nil {
			c.replyErr(msg.Type, err)
		}

	case "start_game":
		if err := startGame(cfg, st, roomID, c.playerID, msg.LibraryCode); err != nil {
			c.replyErr(msg.Type, err)
		}

	case "submit":
		if err := submitAnswers(cfg, st, roomID, c.playerID, msg.Responses); err != nil {
			c.replyErr(msg.Type, err)
		}

	case "auto_submit":
		if err := autoSubmit(cfg, st, roomID, c.playerID, msg.Responses); err != nil {
			c.replyErr(msg.Type, err)
		}

	case "vote":
		if msg.Choice != "A" && msg.Choice != "B" {
			return
		}
		if err := castVote(cfg, st, roomID, c.playerID, msg.MatchIndex, msg.Choice); err != nil {
			c.replyErr(msg.Type, err)
		}

	case "chat":
		if err := sendChat(cfg, st, roomID, c.playerID, msg.Text); err != nil {
			c.replyErr(msg.Type, err)
		}

	case "play_again":
		if err := playAgain(cfg, st, roomID, c.playerID); err != nil {
			c.replyErr(msg.Type, err)
		}

	case "create_library":
		code, err := createLibrary(st, msg.Name, msg.Prompts, msg.Password)
		if err != nil {
			c.replyErr(msg.Type, err)
			return
		}
		c.reply(LibraryMessage{Type: "library", Code: code, Name: msg.Name})

	case "load_library":
		lib, err := getLibrary(st, msg.LibraryCode)
		if err != nil {
			c.replyErr(msg.Type, err)
			return
		}
		c.reply(LibraryMessage{Type: "library", Code: lib.ID, Name: lib.Name, Prompts: lib.Prompts})

	default:
		// ignore unknown types
	}
}

// redirectNewRoom handles GET /tv by allocating a room code and redirecting
// the TV to its screen.
func redirectNewRoom(cfg *Config, st StateStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code, err := allocateRoom(cfg, st)
		if err != nil {
			http.Error(w, "no rooms available", http.StatusServiceUnavailable)
			return
		}
		logf(cfg, "ROOMS: Allocated room %s", code)
		http.Redirect(w, r, cfg.prefix+"/tv/"+code, http.StatusTemporaryRedirect)
	}
}
