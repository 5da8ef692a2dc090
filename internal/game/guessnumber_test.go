package game

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func targetOf(t *testing.T, d Data) int {
	t.Helper()
	gs, ok := d.(*guessState)
	require.True(t, ok, "setup should return guess state")
	return gs.target
}

func TestGuessNumber_SetupDrawsTargetInRange(t *testing.T) {
	g := GuessNumber{}
	for i := 0; i < 200; i++ {
		target := targetOf(t, g.Setup())
		require.GreaterOrEqual(t, target, 1)
		require.LessOrEqual(t, target, 9)
	}
}

func TestGuessNumber_FirstCorrectSubmitWins(t *testing.T) {
	g := GuessNumber{}
	d := g.Setup()
	target := targetOf(t, d)

	winner, ok := g.Submit(d, "alice", strconv.Itoa(target))
	require.True(t, ok)
	require.Equal(t, "alice", winner)
}

func TestGuessNumber_SecondCorrectSubmitIsNoOp(t *testing.T) {
	g := GuessNumber{}
	d := g.Setup()
	target := targetOf(t, d)

	_, ok := g.Submit(d, "alice", strconv.Itoa(target))
	require.True(t, ok)

	winner, ok := g.Submit(d, "bob", strconv.Itoa(target))
	require.False(t, ok, "a round has at most one winner")
	require.Empty(t, winner)
}

func TestGuessNumber_BadAnswersIgnored(t *testing.T) {
	g := GuessNumber{}
	d := g.Setup()
	target := targetOf(t, d)

	for _, raw := range []string{"", "banana", "3.5", strconv.Itoa(target + 1)} {
		_, ok := g.Submit(d, "alice", raw)
		require.False(t, ok, "raw=%q", raw)
	}

	// whitespace around a correct answer is fine
	winner, ok := g.Submit(d, "alice", " "+strconv.Itoa(target)+" ")
	require.True(t, ok)
	require.Equal(t, "alice", winner)
}

func TestGuessNumber_TimeoutAwardsNothing(t *testing.T) {
	g := GuessNumber{}
	winner, ok := g.OnTimeout(g.Setup())
	require.False(t, ok)
	require.Empty(t, winner)
}

func TestGuessNumber_RevealDisclosesTarget(t *testing.T) {
	g := GuessNumber{}
	d := g.Setup()
	require.Equal(t, targetOf(t, d), g.Reveal(d))
}

func TestRegistry_PreservesConfiguredOrder(t *testing.T) {
	r := DefaultRegistry()
	require.Equal(t, []string{"guess-number"}, r.Options())

	g, ok := r.Lookup("guess-number")
	require.True(t, ok)
	require.Equal(t, 60, g.RoundSeconds())

	_, ok = r.Lookup("no-such-game")
	require.False(t, ok)
}
