/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_TrimsAndStoresPlayer(t *testing.T) {
	r := newRegistry()

	p, restored, err := r.register("c1", "  Alice  ")
	require.NoError(t, err)

	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, RoleGuesser, p.Role)
	assert.Equal(t, 0, restored)
	assert.Equal(t, 1, r.guesserCount())
}

func TestRegister_RejectsBlankName(t *testing.T) {
	r := newRegistry()

	_, _, err := r.register("c1", "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, r.players)
}

func TestRegister_TruncatesLongName(t *testing.T) {
	r := newRegistry()

	p, _, err := r.register("c1", "abcdefghijklmnopqrstuvwxyz")
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmnopqrst", p.Name)
}

func TestRegister_NameTakenIsCaseInsensitive(t *testing.T) {
	r := newRegistry()

	_, _, err := r.register("c1", "Bob")
	require.NoError(t, err)

	_, _, err = r.register("c2", "bOB")
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.Len(t, r.players, 1)
}

func TestRegister_AdminsBypassUniqueness(t *testing.T) {
	r := newRegistry()

	for i, name := range []string{"ADMIN", "admin", "Admin"} {
		p, _, err := r.register(string(rune('a'+i)), name)
		require.NoError(t, err)
		assert.True(t, p.isAdmin())
	}

	assert.Len(t, r.players, 3)
	assert.Equal(t, 0, r.guesserCount())
}

func TestRegister_SameConnectionCannotJoinTwice(t *testing.T) {
	r := newRegistry()

	_, _, err := r.register("c1", "Alice")
	require.NoError(t, err)

	_, _, err = r.register("c1", "Someone Else")
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestRegister_RestoresSavedScoreOnce(t *testing.T) {
	r := newRegistry()
	r.saved.save("Carol", 7)

	p, restored, err := r.register("c1", "CAROL")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Score)
	assert.Equal(t, 7, restored)
	assert.Empty(t, r.saved)

	_, ok := r.unregister("c1")
	require.True(t, ok)

	p, restored, err = r.register("c2", "carol")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Score)
	assert.Equal(t, 0, restored)
}

func TestUnregister(t *testing.T) {
	r := newRegistry()
	_, _, _ = r.register("c1", "Alice")
	_, _, _ = r.register("c2", "Bob")

	p, ok := r.unregister("c1")
	require.True(t, ok)
	assert.Equal(t, "Alice", p.Name)

	_, ok = r.unregister("c1")
	assert.False(t, ok)

	_, ok = r.get("c2")
	assert.True(t, ok)
}

func TestRankedGuessers_StableTiesAndDistinctRanks(t *testing.T) {
	r := newRegistry()
	for _, name := range []string{"Alice", "ADMIN", "Bob", "Carol", "Dave"} {
		_, _, err := r.register("conn-"+name, name)
		require.NoError(t, err)
	}

	scores := map[string]int{"Alice": 2, "Bob": 5, "Carol": 2, "Dave": 0}
	for _, p := range r.players {
		p.Score = scores[p.Name]
	}

	ranked := r.rankedGuessers()

	assert.Equal(t, []RankedPlayer{
		{Name: "Bob", Score: 5, Rank: 1},
		{Name: "Alice", Score: 2, Rank: 2},
		{Name: "Carol", Score: 2, Rank: 3},
		{Name: "Dave", Score: 0, Rank: 4},
	}, ranked)

	// Ranking must not reorder the registry itself.
	assert.Equal(t, "Alice", r.players[0].Name)
}

func TestResetScores_ClearsScoresAndCache(t *testing.T) {
	r := newRegistry()
	p, _, _ := r.register("c1", "Alice")
	p.Score = 4
	r.saved.save("Bob", 3)

	r.resetScores()

	assert.Equal(t, 0, p.Score)
	assert.Empty(t, r.saved)
}
