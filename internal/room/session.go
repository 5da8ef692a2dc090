package room

import (
	"github.com/acollings/party-rounds-backend/internal/game"
	"github.com/acollings/party-rounds-backend/internal/protocol"
)

type phase string

const (
	phaseVoting  phase = "voting"
	phasePlaying phase = "playing"
	phaseScoring phase = "scoring"
	phaseOver    phase = "over"
)

// Reward for winning a round.
const (
	rewardCoins = 3
	rewardWins  = 1
)

// session is one multi-round game instance. The leaderboard is a snapshot
// taken at session start and mutated in place as rounds resolve, so a
// mid-session leaver still shows historically-correct totals. Players who
// join after the snapshot spectate: they get no entry unless they win a
// round, in which case one is created at credit time.
type session struct {
	phase       phase
	round       int
	totalRounds int
	options     []string
	votes       map[string]string
	active      game.Game
	data        game.Data
	leaderboard map[string]protocol.LeaderboardEntry
}

func newSession(totalRounds int, options []string, players []*Player) *session {
	lb := make(map[string]protocol.LeaderboardEntry, len(players))
	for _, p := range players {
		lb[p.Identity] = protocol.LeaderboardEntry{Name: p.Name, Coins: p.Coins, Wins: p.Wins}
	}
	return &session{
		phase:       phaseVoting,
		round:       1,
		totalRounds: totalRounds,
		options:     options,
		votes:       make(map[string]string),
		leaderboard: lb,
	}
}

func (s *session) resetVotes() {
	s.votes = make(map[string]string)
}

// tally picks the option with the most votes. Ties break toward the
// earlier option in configured order; zero votes selects the first option.
func (s *session) tally() string {
	counts := make(map[string]int, len(s.votes))
	for _, choice := range s.votes {
		counts[choice]++
	}
	best := s.options[0]
	for _, opt := range s.options[1:] {
		if counts[opt] > counts[best] {
			best = opt
		}
	}
	return best
}

func (s *session) legalOption(choice string) bool {
	for _, opt := range s.options {
		if opt == choice {
			return true
		}
	}
	return false
}

func (s *session) credit(identity, fallbackName string) {
	e, ok := s.leaderboard[identity]
	if !ok {
		e = protocol.LeaderboardEntry{Name: fallbackName}
	}
	e.Coins += rewardCoins
	e.Wins += rewardWins
	s.leaderboard[identity] = e
}

// leaderboardCopy detaches the snapshot so a broadcast payload can be
// marshaled off-thread while the session keeps mutating the original.
func (s *session) leaderboardCopy() map[string]protocol.LeaderboardEntry {
	out := make(map[string]protocol.LeaderboardEntry, len(s.leaderboard))
	for k, v := range s.leaderboard {
		out[k] = v
	}
	return out
}

func (s *session) votesCopy() map[string]string {
	out := make(map[string]string, len(s.votes))
	for k, v := range s.votes {
		out[k] = v
	}
	return out
}

func (s *session) state() *protocol.SessionState {
	st := &protocol.SessionState{
		Phase:       string(s.phase),
		Round:       s.round,
		TotalRounds: s.totalRounds,
		Votes:       s.votesCopy(),
		Leaderboard: s.leaderboardCopy(),
	}
	if s.active != nil {
		st.ActiveGame = s.active.ID()
	}
	return st
}
