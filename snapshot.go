/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"slices"
	"unicode/utf8"
)

const snapshotChatLimit = 100

// Message types carried over the websocket, in both directions.
const (
	msgJoin        = "join"
	msgChat        = "chat"
	msgAdminStart  = "admin:start"
	msgAdminNext   = "admin:next"
	msgAdminReveal = "admin:reveal"
	msgAdminReset  = "admin:reset"

	msgJoined    = "joined"
	msgJoinError = "join:error"
	msgState     = "game:state"
	msgTimerTick = "timer:tick"
)

// Messages coming from clients
type ClientMessage struct {
	Type string `json:"type"`           // one of the msgJoin..msgAdminReset values
	Name string `json:"name,omitempty"` // join
	Text string `json:"text,omitempty"` // chat
}

// JoinedMessage confirms a join to the joining client only.
type JoinedMessage struct {
	Type    string `json:"type"` // "joined"
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// Sent to a single client when its name is already in use
type JoinErrorMessage struct {
	Type    string `json:"type"` // "join:error"
	Message string `json:"message"`
}

type TimerTickMessage struct {
	Type    string `json:"type"` // "timer:tick"
	Seconds int    `json:"seconds"`
}

// AdminButtons tells admin clients which controls currently do something.
type AdminButtons struct {
	Start  bool `json:"start"`
	Reveal bool `json:"reveal"`
	Next   bool `json:"next"`
	Reset  bool `json:"reset"`
}

// StateMessage is the public view of the game, broadcast after every change.
// It never carries the secret word unless it has been revealed.
type StateMessage struct {
	Type          string          `json:"type"` // "game:state"
	Phase         Phase           `json:"phase"`
	CurrentRound  int             `json:"currentRound"`
	TotalRounds   int             `json:"totalRounds"`
	Players       []RankedPlayer  `json:"players"`
	Images        []string        `json:"images"`
	WordLength    int             `json:"wordLength"`
	RevealedWord  *string         `json:"revealedWord"`
	ChatMessages  []ChatEvent     `json:"chatMessages"`
	Timer         int             `json:"timer"`
	Revealed      bool            `json:"revealed"`
	CorrectOrder  []CorrectAnswer `json:"correctOrder"`
	NextImages    []string        `json:"nextImages"`
	AdminBtnState AdminButtons    `json:"adminBtnState"`
}

// snapshot projects the game into a StateMessage. The result shares no
// memory with the game, so it can be handed to client writers as-is.
func (g *Game) snapshot() StateMessage {
	msg := StateMessage{
		Type:         msgState,
		Phase:        g.phase,
		CurrentRound: min(g.roundIndex+1, len(g.rounds)),
		TotalRounds:  len(g.rounds),
		Players:      g.registry.rankedGuessers(),
		Images:       []string{},
		ChatMessages: slices.Clone(lastN(g.chat, snapshotChatLimit)),
		Timer:        g.timer.remaining,
		Revealed:     g.revealed,
		CorrectOrder: append([]CorrectAnswer{}, g.correctOrder...),
		NextImages:   []string{},
		AdminBtnState: AdminButtons{
			Start:  g.phase == PhaseLobby,
			Reveal: g.phase == PhasePlaying && !g.revealed,
			Next:   g.phase == PhasePlaying,
			Reset:  true,
		},
	}

	if msg.ChatMessages == nil {
		msg.ChatMessages = []ChatEvent{}
	}

	round, ok := g.currentRound()
	if !ok {
		return msg
	}

	msg.WordLength = utf8.RuneCountInString(round.Word)

	if g.revealed {
		word := round.Word
		msg.RevealedWord = &word
	}

	if g.phase == PhasePlaying {
		msg.Images = slices.Clone(round.Images)

		if next := g.roundIndex + 1; next < len(g.rounds) {
			msg.NextImages = slices.Clone(g.rounds[next].Images)
		}
	}

	return msg
}

func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
