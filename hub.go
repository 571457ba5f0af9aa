/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan any
	limiter *rate.Limiter
}

type inboundMessage struct {
	client *Client
	msg    ClientMessage
}

// Hub owns the game and every open connection. All game mutations happen
// on the goroutine running run, one event at a time; mu only lets HTTP
// handlers read a consistent snapshot from outside that loop.
type Hub struct {
	cfg     *Config
	game    *Game
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	inbound  chan inboundMessage
	ticks    chan timerTick
	done     chan struct{}

	mu sync.RWMutex
}

func newHub(cfg *Config, rounds []Round) *Hub {
	ticks := make(chan timerTick)

	return &Hub{
		cfg:      cfg,
		game:     newGame(rounds, cfg.roundSeconds, ticks),
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		inbound:  make(chan inboundMessage),
		ticks:    ticks,
		done:     make(chan struct{}),
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unreg:
			h.handleUnregister(c)

		case m := <-h.inbound:
			h.handleMessage(m)

		case t := <-h.ticks:
			h.handleTick(t)
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true

	// New connections get the current state right away so they can render
	// the lobby before joining.
	h.sendLocked(c, h.game.snapshot())
}

func (h *Hub) handleUnregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(c)

	player, err := h.game.Disconnect(c.id)
	if err != nil {
		return
	}

	logf("GAMES: Player %q left", player.Name)

	h.broadcastStateLocked()
}

func (h *Hub) handleMessage(m inboundMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := m.client
	if !h.clients[c] {
		return
	}

	var err error

	switch m.msg.Type {
	case msgJoin:
		h.joinLocked(c, m.msg.Name)
		return
	case msgChat:
		err = h.game.Chat(c.id, m.msg.Text)
	case msgAdminStart:
		err = h.game.Start(c.id)
	case msgAdminNext:
		err = h.game.Next(c.id)
	case msgAdminReveal:
		err = h.game.Reveal(c.id)
	case msgAdminReset:
		err = h.game.Reset(c.id)
	default:
		// ignore unknown types
		return
	}

	if err != nil {
		debugf("GAMES: Ignored %q from %s: %v", m.msg.Type, c.id, err)
		return
	}

	if m.msg.Type != msgChat {
		logf("GAMES: %s by %s (phase %s, round %d)", m.msg.Type, c.id, h.game.phase, h.game.roundIndex+1)
	}

	h.broadcastStateLocked()
}

func (h *Hub) joinLocked(c *Client, name string) {
	player, err := h.game.Join(c.id, name)
	switch {
	case errors.Is(err, ErrNameTaken):
		h.sendLocked(c, JoinErrorMessage{
			Type:    msgJoinError,
			Message: nameTakenMessage,
		})
		return
	case err != nil:
		debugf("GAMES: Ignored join from %s: %v", c.id, err)
		return
	}

	logf("GAMES: Player %q joined (admin: %t, score: %d)", player.Name, player.isAdmin(), player.Score)

	h.sendLocked(c, JoinedMessage{
		Type:    msgJoined,
		Name:    player.Name,
		IsAdmin: player.isAdmin(),
	})

	h.broadcastStateLocked()
}

func (h *Hub) handleTick(t timerTick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	remaining, revealed, err := h.game.Tick(t)
	if err != nil {
		debugf("GAMES: Dropped timer tick: %v", err)
		return
	}

	h.broadcastLocked(TimerTickMessage{
		Type:    msgTimerTick,
		Seconds: remaining,
	})

	if revealed {
		logf("GAMES: Time ran out on round %d", h.game.roundIndex+1)
		h.broadcastStateLocked()
	}
}

func (h *Hub) broadcastStateLocked() {
	h.broadcastLocked(h.game.snapshot())
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

// sendLocked queues msg for c without blocking. A client that cannot keep
// up is dropped; its read loop then reports the disconnect.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		debugf("SERVE: Dropping slow client %s", c.id)
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// state returns the current public snapshot for callers outside run.
func (h *Hub) state() StateMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.game.snapshot()
}

func (h *Hub) connectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// closeAll stops the round timer and disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.game.timer.stop()

	for c := range h.clients {
		h.dropLocked(c)
		_ = c.conn.Close()
	}
}

func (h *Hub) enqueue(ch chan<- *Client, c *Client) bool {
	select {
	case ch <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) submit(m inboundMessage) bool {
	select {
	case h.inbound <- m:
		return true
	case <-h.done:
		return false
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errorf("SERVE: Websocket upgrade failed for %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			id:      uuid.NewString(),
			conn:    conn,
			send:    make(chan any, sendBuffer),
			limiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(cfg.rateLimit)), cfg.rateBurst),
		}

		if !h.enqueue(h.register, client) {
			_ = conn.Close()
			return
		}

		logf("SERVE: Connection %s opened from %s", client.id, realIP(r))

		go client.writePump()
		client.readPump(h)

		logf("SERVE: Connection %s closed", client.id)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.enqueue(h.unreg, c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			debugf("GAMES: Ignored %q from %s: %v", msg.Type, c.id, ErrRateLimited)
			continue
		}

		if !h.submit(inboundMessage{client: c, msg: msg}) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
