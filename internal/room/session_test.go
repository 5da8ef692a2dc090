package room

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionTally_MajorityWins(t *testing.T) {
	s := newSession(3, []string{"alpha", "beta"}, nil)
	s.votes = map[string]string{"p1": "beta", "p2": "beta", "p3": "alpha"}
	require.Equal(t, "beta", s.tally())
}

func TestSessionTally_TieBreaksTowardConfiguredOrder(t *testing.T) {
	s := newSession(3, []string{"alpha", "beta"}, nil)
	s.votes = map[string]string{"p1": "beta", "p2": "alpha"}
	require.Equal(t, "alpha", s.tally())
}

func TestSessionTally_NoVotesPicksFirstOption(t *testing.T) {
	s := newSession(3, []string{"alpha", "beta"}, nil)
	require.Equal(t, "alpha", s.tally())
}

func TestSessionCredit_SnapshotEntry(t *testing.T) {
	players := []*Player{{Identity: "a", Name: "Alice", Coins: 10, Wins: 1}}
	s := newSession(3, []string{"alpha"}, players)

	s.credit("a", "Alice")
	require.Equal(t, 13, s.leaderboard["a"].Coins)
	require.Equal(t, 2, s.leaderboard["a"].Wins)
}

func TestSessionCredit_LatecomerGetsLazyEntry(t *testing.T) {
	s := newSession(3, []string{"alpha"}, nil)

	s.credit("late", "Zoe")
	e, ok := s.leaderboard["late"]
	require.True(t, ok)
	require.Equal(t, "Zoe", e.Name)
	require.Equal(t, rewardCoins, e.Coins)
	require.Equal(t, rewardWins, e.Wins)
}

func TestSessionLeaderboardCopy_Detached(t *testing.T) {
	players := []*Player{{Identity: "a", Name: "Alice"}}
	s := newSession(3, []string{"alpha"}, players)

	snap := s.leaderboardCopy()
	s.credit("a", "Alice")
	require.Equal(t, 0, snap["a"].Coins, "copy must not see later mutation")
}
