/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// adminName is the reserved display name that grants control of the game.
const adminName = "ADMIN"

const maxNameLength = 20

type Role int

const (
	RoleGuesser Role = iota
	RoleAdmin
)

// Player is the server-side record for one live connection.
type Player struct {
	ConnID string
	Name   string
	Score  int
	Role   Role
}

func (p *Player) isAdmin() bool {
	return p.Role == RoleAdmin
}

// RankedPlayer is a leaderboard row.
type RankedPlayer struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

func normalizeName(name string) string {
	return strings.ToUpper(name)
}

// reconnectCache keeps the scores of guessers who dropped mid-game,
// keyed by normalized display name.
type reconnectCache map[string]int

func (c reconnectCache) save(name string, score int) {
	c[normalizeName(name)] = score
}

// take returns and forgets the saved score for name.
func (c reconnectCache) take(name string) (int, bool) {
	key := normalizeName(name)

	score, ok := c[key]
	if ok {
		delete(c, key)
	}

	return score, ok
}

func (c reconnectCache) reset() {
	clear(c)
}

// Registry maps connections to players, in join order.
type Registry struct {
	players []*Player
	saved   reconnectCache
}

func newRegistry() *Registry {
	return &Registry{
		saved: make(reconnectCache),
	}
}

func (r *Registry) get(connID string) (*Player, bool) {
	return lo.Find(r.players, func(p *Player) bool {
		return p.ConnID == connID
	})
}

func (r *Registry) nameTaken(name string) bool {
	return lo.ContainsBy(r.players, func(p *Player) bool {
		return !p.isAdmin() && strings.EqualFold(p.Name, name)
	})
}

// register adds a player for connID. The returned restored value is the
// score carried over from the reconnect cache, if any.
func (r *Registry) register(connID, rawName string) (player *Player, restored int, err error) {
	name := truncateRunes(strings.TrimSpace(rawName), maxNameLength)
	if name == "" {
		return nil, 0, ErrEmptyInput
	}

	if _, ok := r.get(connID); ok {
		return nil, 0, ErrAlreadyJoined
	}

	player = &Player{
		ConnID: connID,
		Name:   name,
		Role:   RoleGuesser,
	}

	if strings.EqualFold(name, adminName) {
		player.Role = RoleAdmin
	} else {
		if r.nameTaken(name) {
			return nil, 0, ErrNameTaken
		}

		if score, ok := r.saved.take(name); ok {
			player.Score = score
			restored = score
		}
	}

	r.players = append(r.players, player)

	return player, restored, nil
}

func (r *Registry) unregister(connID string) (*Player, bool) {
	player, i, ok := lo.FindIndexOf(r.players, func(p *Player) bool {
		return p.ConnID == connID
	})
	if !ok {
		return nil, false
	}

	r.players = append(r.players[:i], r.players[i+1:]...)

	return player, true
}

func (r *Registry) guessers() []*Player {
	return lo.Filter(r.players, func(p *Player, _ int) bool {
		return !p.isAdmin()
	})
}

func (r *Registry) guesserCount() int {
	return lo.CountBy(r.players, func(p *Player) bool {
		return !p.isAdmin()
	})
}

// rankedGuessers orders guessers by score, highest first. Ties keep join
// order and still receive distinct consecutive ranks.
func (r *Registry) rankedGuessers() []RankedPlayer {
	guessers := r.guessers()

	sort.SliceStable(guessers, func(i, j int) bool {
		return guessers[i].Score > guessers[j].Score
	})

	ranked := make([]RankedPlayer, 0, len(guessers))
	for i, p := range guessers {
		ranked = append(ranked, RankedPlayer{
			Name:  p.Name,
			Score: p.Score,
			Rank:  i + 1,
		})
	}

	return ranked
}

func (r *Registry) resetScores() {
	for _, p := range r.players {
		p.Score = 0
	}
	r.saved.reset()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
