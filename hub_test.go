/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	hub *Hub
	srv *httptest.Server
}

func newTestServer(t *testing.T, roundSeconds int, tick time.Duration) *testServer {
	t.Helper()

	cfg := &Config{
		questions:    "questions.json",
		rateBurst:    50,
		rateLimit:    50,
		roundSeconds: roundSeconds,
	}

	h := newHub(cfg, testRounds())
	h.game.timer.interval = tick

	ctx, cancel := context.WithCancel(context.Background())
	go h.run(ctx)

	errs := make(chan error, 16)
	srv := httptest.NewServer(newRouter(cfg, h, errs))

	t.Cleanup(func() {
		cancel()
		<-h.done
		srv.Close()
	})

	return &testServer{hub: h, srv: srv}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// Every connection is greeted with the current state.
	readType(t, conn, msgState)

	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil reads frames until one of type typ satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for {
		var raw json.RawMessage
		require.NoError(t, conn.ReadJSON(&raw))

		var envelope struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &envelope))

		if envelope.Type == typ && (match == nil || match(raw)) {
			return raw
		}
	}
}

func readType(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()

	return readUntil(t, conn, typ, nil)
}

func readState(t *testing.T, conn *websocket.Conn, match func(StateMessage) bool) StateMessage {
	t.Helper()

	var state StateMessage
	readUntil(t, conn, msgState, func(raw json.RawMessage) bool {
		var s StateMessage
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		state = s
		return match(s)
	})

	return state
}

func joinAs(t *testing.T, conn *websocket.Conn, name string) JoinedMessage {
	t.Helper()

	send(t, conn, ClientMessage{Type: msgJoin, Name: name})

	var joined JoinedMessage
	require.NoError(t, json.Unmarshal(readType(t, conn, msgJoined), &joined))

	return joined
}

func hasChat(s StateMessage, text string) bool {
	for _, c := range s.ChatMessages {
		if c.Text == text {
			return true
		}
	}
	return false
}

func inPhase(p Phase) func(StateMessage) bool {
	return func(s StateMessage) bool { return s.Phase == p }
}

func TestHub_JoinAndNameTaken(t *testing.T) {
	ts := newTestServer(t, 0, time.Hour)

	alice := ts.dial(t)
	joined := joinAs(t, alice, "Alice")
	assert.Equal(t, JoinedMessage{Type: msgJoined, Name: "Alice"}, joined)

	imposter := ts.dial(t)
	send(t, imposter, ClientMessage{Type: msgJoin, Name: "alice"})

	var joinErr JoinErrorMessage
	require.NoError(t, json.Unmarshal(readType(t, imposter, msgJoinError), &joinErr))
	assert.Equal(t, nameTakenMessage, joinErr.Message)

	admin := ts.dial(t)
	assert.True(t, joinAs(t, admin, "admin").IsAdmin)

	state := readState(t, alice, func(s StateMessage) bool { return len(s.Players) == 1 })
	assert.Equal(t, "Alice", state.Players[0].Name)
}

func TestHub_RoundFlow(t *testing.T) {
	ts := newTestServer(t, 0, time.Hour)

	admin := ts.dial(t)
	joinAs(t, admin, "ADMIN")

	alice := ts.dial(t)
	joinAs(t, alice, "Alice")

	bob := ts.dial(t)
	joinAs(t, bob, "Bob")

	send(t, admin, ClientMessage{Type: msgAdminStart})
	state := readState(t, alice, inPhase(PhasePlaying))
	assert.Equal(t, 1, state.CurrentRound)
	assert.Len(t, state.Images, imagesPerRound)
	assert.Nil(t, state.RevealedWord)

	send(t, bob, ClientMessage{Type: msgChat, Text: "apple"})
	state = readState(t, alice, func(s StateMessage) bool { return len(s.CorrectOrder) == 1 })
	assert.Equal(t, []CorrectAnswer{{Name: "Bob", Points: 2}}, state.CorrectOrder)
	assert.Equal(t, "Bob", state.Players[0].Name)
	assert.True(t, hasChat(state, "✱✱✱✱✱"))
	assert.False(t, hasChat(state, "apple"))

	// Guessers cannot drive the game.
	send(t, alice, ClientMessage{Type: msgAdminReveal})
	send(t, admin, ClientMessage{Type: msgAdminReveal})
	state = readState(t, alice, func(s StateMessage) bool { return s.Revealed })
	require.NotNil(t, state.RevealedWord)
	assert.Equal(t, "Apple", *state.RevealedWord)

	send(t, admin, ClientMessage{Type: msgAdminNext})
	state = readState(t, alice, func(s StateMessage) bool { return s.CurrentRound == 2 })
	assert.False(t, state.Revealed)
	assert.Empty(t, state.CorrectOrder)

	send(t, admin, ClientMessage{Type: msgAdminReset})
	state = readState(t, alice, inPhase(PhaseLobby))
	assert.Empty(t, state.ChatMessages)
	for _, p := range state.Players {
		assert.Zero(t, p.Score)
	}
}

func TestHub_TimerExpiryRevealsAnswer(t *testing.T) {
	ts := newTestServer(t, 2, 20*time.Millisecond)

	admin := ts.dial(t)
	joinAs(t, admin, "ADMIN")
	alice := ts.dial(t)
	joinAs(t, alice, "Alice")

	send(t, admin, ClientMessage{Type: msgAdminStart})

	var tick TimerTickMessage
	require.NoError(t, json.Unmarshal(readType(t, alice, msgTimerTick), &tick))
	assert.Equal(t, 1, tick.Seconds)

	state := readState(t, alice, func(s StateMessage) bool { return s.Revealed })
	assert.Zero(t, state.Timer)
	assert.True(t, hasChat(state, "Time's up! The answer was: Apple"))
}

func TestHub_DisconnectSavesScore(t *testing.T) {
	ts := newTestServer(t, 0, time.Hour)

	admin := ts.dial(t)
	joinAs(t, admin, "ADMIN")
	dana := ts.dial(t)
	joinAs(t, dana, "Dana")

	send(t, admin, ClientMessage{Type: msgAdminStart})
	readState(t, dana, inPhase(PhasePlaying))
	send(t, dana, ClientMessage{Type: msgChat, Text: "APPLE"})
	readState(t, admin, func(s StateMessage) bool { return len(s.CorrectOrder) == 1 })

	require.NoError(t, dana.Close())
	readState(t, admin, func(s StateMessage) bool { return len(s.Players) == 0 })

	back := ts.dial(t)
	joinAs(t, back, "dana")
	state := readState(t, admin, func(s StateMessage) bool { return len(s.Players) == 1 })
	assert.Equal(t, 1, state.Players[0].Score)
	assert.True(t, hasChat(state, "dana has joined the game! (reconnected — 1 pts restored!)"))
}

func TestHub_HTTPEndpoints(t *testing.T) {
	ts := newTestServer(t, 0, time.Hour)

	conn := ts.dial(t)
	joinAs(t, conn, "Alice")

	resp, err := http.Get(ts.srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var state StateMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, PhaseLobby, state.Phase)
	assert.Equal(t, 3, state.TotalRounds)

	for path, want := range map[string]string{
		"/healthz": "Ok (1 connected)",
		"/version": "picword v" + releaseVersion,
	} {
		resp, err := http.Get(ts.srv.URL + path)
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Contains(t, string(body), want, path)
	}

	resp, err = http.Get(ts.srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestRouter_ProfileHandlers(t *testing.T) {
	cfg := &Config{profile: true, rateBurst: 1, rateLimit: 1}
	mux := newRouter(cfg, newHub(cfg, testRounds()), make(chan error, 1))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pprof/cmdline", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	cfg.profile = false
	mux = newRouter(cfg, newHub(cfg, testRounds()), make(chan error, 1))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pprof/cmdline", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_QRCode(t *testing.T) {
	cfg := &Config{rateBurst: 1, rateLimit: 1}
	mux := newRouter(cfg, newHub(cfg, testRounds()), make(chan error, 1))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/qr", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}
