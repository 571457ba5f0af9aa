/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

const nameTakenMessage = "That name is already taken! Try a different one."

const (
	maxChatLength = 200
	chatLogLimit  = 1000
	maskGlyph     = "✱"
)

// Glyphs shown as the sender of system chat entries.
const (
	glyphAnnounce = "📢"
	glyphRound    = "🎮"
	glyphCorrect  = "✅"
	glyphReveal   = "💡"
	glyphTimeUp   = "⏰"
	glyphGameOver = "🏆"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrNotJoined       = errors.New("connection has not joined")
	ErrAlreadyJoined   = errors.New("connection has already joined")
	ErrRateLimited     = errors.New("too many messages")
	ErrNameTaken       = errors.New("name already taken")
	ErrNotAdmin        = errors.New("admin action from a non-admin player")
	ErrWrongPhase      = errors.New("action not allowed in the current phase")
	ErrAlreadyRevealed = errors.New("answer already revealed")
	ErrNoRound         = errors.New("no round in progress")
)

type Phase int

const (
	PhaseLobby Phase = iota
	PhasePlaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return "lobby"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "lobby":
		*p = PhaseLobby
	case "playing":
		*p = PhasePlaying
	case "finished":
		*p = PhaseFinished
	default:
		return fmt.Errorf("unknown phase %q", text)
	}

	return nil
}

// ChatEvent is one line of the shared chat log.
type ChatEvent struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	System  bool   `json:"system"`
	Reveal  bool   `json:"reveal,omitempty"`
	Points  int    `json:"points,omitempty"`
}

// CorrectAnswer records a guesser who solved the current round.
type CorrectAnswer struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Game is the authoritative state of the one game this process runs. It is
// not safe for concurrent use; the hub serializes every call.
type Game struct {
	rounds   []Round
	registry *Registry
	timer    *roundTimer

	phase        Phase
	roundIndex   int
	revealed     bool
	correctOrder []CorrectAnswer
	chat         []ChatEvent
}

func newGame(rounds []Round, roundSeconds int, ticks chan<- timerTick) *Game {
	return &Game{
		rounds:     rounds,
		registry:   newRegistry(),
		timer:      newRoundTimer(roundSeconds, ticks),
		phase:      PhaseLobby,
		roundIndex: -1,
	}
}

func (g *Game) currentRound() (Round, bool) {
	if g.roundIndex < 0 || g.roundIndex >= len(g.rounds) {
		return Round{}, false
	}
	return g.rounds[g.roundIndex], true
}

func (g *Game) appendChat(events ...ChatEvent) {
	g.chat = append(g.chat, events...)
	if over := len(g.chat) - chatLogLimit; over > 0 {
		g.chat = append(g.chat[:0:0], g.chat[over:]...)
	}
}

func (g *Game) announce(glyph, text string) {
	g.appendChat(ChatEvent{
		Name:   glyph,
		Text:   text,
		System: true,
	})
}

func (g *Game) Join(connID, name string) (*Player, error) {
	player, restored, err := g.registry.register(connID, name)
	if err != nil {
		return nil, err
	}

	if !player.isAdmin() {
		text := player.Name + " has joined the game!"
		if restored > 0 {
			text += fmt.Sprintf(" (reconnected — %d pts restored!)", restored)
		}
		g.announce(glyphAnnounce, text)
	}

	return player, nil
}

func (g *Game) Disconnect(connID string) (*Player, error) {
	player, ok := g.registry.unregister(connID)
	if !ok {
		return nil, ErrNotJoined
	}

	if player.isAdmin() {
		return player, nil
	}

	if player.Score > 0 {
		g.registry.saved.save(player.Name, player.Score)
	}

	g.announce(glyphAnnounce, player.Name+" disconnected.")

	return player, nil
}

// Chat records a message from a guesser, scoring it first if it is the
// first correct answer this player gave for the current round.
func (g *Game) Chat(connID, text string) error {
	player, ok := g.registry.get(connID)
	if !ok {
		return ErrNotJoined
	}
	if player.isAdmin() {
		return ErrNotAdmin
	}

	text = truncateRunes(strings.TrimSpace(text), maxChatLength)
	if text == "" {
		return ErrEmptyInput
	}

	if !g.isWinningGuess(player, text) {
		g.appendChat(ChatEvent{
			Name: player.Name,
			Text: text,
		})
		return nil
	}

	position := len(g.correctOrder) + 1
	points := max(1, g.registry.guesserCount()-position+1)

	player.Score += points
	g.correctOrder = append(g.correctOrder, CorrectAnswer{
		Name:   player.Name,
		Points: points,
	})

	g.appendChat(
		ChatEvent{
			Name:    glyphCorrect,
			Text:    fmt.Sprintf("%s got it correct! (+%d pts, %s place)", player.Name, points, ordinal(position)),
			Correct: true,
			System:  true,
			Points:  points,
		},
		ChatEvent{
			Name:    player.Name,
			Text:    strings.Repeat(maskGlyph, utf8.RuneCountInString(text)),
			Correct: true,
		},
	)

	return nil
}

func (g *Game) isWinningGuess(player *Player, text string) bool {
	round, ok := g.currentRound()
	if g.phase != PhasePlaying || !ok || g.revealed {
		return false
	}

	if lo.ContainsBy(g.correctOrder, func(c CorrectAnswer) bool {
		return strings.EqualFold(c.Name, player.Name)
	}) {
		return false
	}

	return strings.EqualFold(text, round.Word)
}

func (g *Game) Start(connID string) error {
	return g.asAdmin(connID, g.start)
}

func (g *Game) Next(connID string) error {
	return g.asAdmin(connID, g.next)
}

func (g *Game) Reveal(connID string) error {
	return g.asAdmin(connID, g.reveal)
}

func (g *Game) Reset(connID string) error {
	return g.asAdmin(connID, g.reset)
}

// asAdmin is the single authorization gate for admin actions.
func (g *Game) asAdmin(connID string, action func() error) error {
	player, ok := g.registry.get(connID)
	if !ok {
		return ErrNotJoined
	}
	if !player.isAdmin() {
		return ErrNotAdmin
	}

	return action()
}

func (g *Game) start() error {
	if g.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(g.rounds) == 0 {
		return ErrNoRound
	}

	g.roundIndex = 0
	g.phase = PhasePlaying
	g.beginRound()

	return nil
}

func (g *Game) next() error {
	if g.phase != PhasePlaying {
		return ErrWrongPhase
	}

	g.timer.stop()
	g.roundIndex++
	g.correctOrder = nil
	g.revealed = false

	if g.roundIndex >= len(g.rounds) {
		g.phase = PhaseFinished
		g.announce(glyphGameOver, "Game Over! Final scores are in!")
		return nil
	}

	g.beginRound()

	return nil
}

func (g *Game) beginRound() {
	g.correctOrder = nil
	g.revealed = false
	g.announce(glyphRound, fmt.Sprintf("Round %d has started! Guess the word!", g.roundIndex+1))
	g.timer.start()
}

func (g *Game) reveal() error {
	return g.revealAnswer(glyphReveal, "The answer was: ")
}

func (g *Game) revealAnswer(glyph, prefix string) error {
	if g.revealed {
		return ErrAlreadyRevealed
	}

	round, ok := g.currentRound()
	if !ok {
		return ErrNoRound
	}

	g.revealed = true
	g.timer.stop()
	g.appendChat(ChatEvent{
		Name:   glyph,
		Text:   prefix + round.Word,
		System: true,
		Reveal: true,
	})

	return nil
}

func (g *Game) reset() error {
	g.timer.stop()
	g.phase = PhaseLobby
	g.roundIndex = -1
	g.correctOrder = nil
	g.chat = nil
	g.revealed = false
	g.registry.resetScores()

	return nil
}

// Tick advances the round timer. revealed reports whether this tick ran the
// clock out and disclosed the answer.
func (g *Game) Tick(tick timerTick) (remaining int, revealed bool, err error) {
	remaining, expired, err := g.timer.advance(tick)
	if err != nil || !expired {
		return remaining, false, err
	}

	if err := g.revealAnswer(glyphTimeUp, "Time's up! The answer was: "); err != nil {
		return remaining, false, nil
	}

	return remaining, true, nil
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}

	return strconv.Itoa(n) + suffix
}
