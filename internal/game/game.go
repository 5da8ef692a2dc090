package game

// Data is the per-round state owned by a single game. The room stores it
// opaquely and hands it back on every call.
type Data any

// Game is the contract a round game has to satisfy. Submit and OnTimeout
// report a winner at most once per Data value; later calls are no-ops.
type Game interface {
	ID() string
	RoundSeconds() int
	Setup() Data
	Submit(d Data, identity, raw string) (winner string, ok bool)
	OnTimeout(d Data) (winner string, ok bool)
	// Reveal is what gets disclosed to players when the round ends,
	// e.g. the number everyone was guessing.
	Reveal(d Data) any
}

// Registry holds the configured games in a fixed order. The order matters:
// it is the vote option order, the tie-break order, and the default when
// nobody votes.
type Registry struct {
	order []string
	games map[string]Game
}

func NewRegistry(games ...Game) *Registry {
	r := &Registry{games: make(map[string]Game, len(games))}
	for _, g := range games {
		if _, dup := r.games[g.ID()]; dup {
			continue
		}
		r.order = append(r.order, g.ID())
		r.games[g.ID()] = g
	}
	return r
}

// DefaultRegistry is the shipped game set.
func DefaultRegistry() *Registry {
	return NewRegistry(GuessNumber{})
}

func (r *Registry) Options() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Lookup(id string) (Game, bool) {
	g, ok := r.games[id]
	return g, ok
}
