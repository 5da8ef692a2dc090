package game

import (
	"math/rand"
	"strconv"
	"strings"
)

// GuessNumber: first player to submit the hidden target wins the round.
type GuessNumber struct{}

type guessState struct {
	target int
	winner string
}

func (GuessNumber) ID() string { return "guess-number" }

func (GuessNumber) RoundSeconds() int { return 60 }

func (GuessNumber) Setup() Data {
	return &guessState{target: 1 + rand.Intn(9)}
}

// Submit accepts the first numerically-correct answer and records its
// sender as the winner. Malformed answers and answers after a winner has
// been recorded are ignored, not errors.
func (GuessNumber) Submit(d Data, identity, raw string) (string, bool) {
	gs, ok := d.(*guessState)
	if !ok || gs.winner != "" {
		return "", false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n != gs.target {
		return "", false
	}
	gs.winner = identity
	return identity, true
}

// OnTimeout never awards partial credit.
func (GuessNumber) OnTimeout(d Data) (string, bool) {
	return "", false
}

func (GuessNumber) Reveal(d Data) any {
	gs, ok := d.(*guessState)
	if !ok {
		return nil
	}
	return gs.target
}
