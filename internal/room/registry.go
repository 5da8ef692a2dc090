package room

import (
	"github.com/acollings/party-rounds-backend/internal/protocol"
)

// Player is one participant. Identity is the persistent client-generated
// id; ConnID is the transient connection currently owned by this player,
// empty while disconnected.
type Player struct {
	Identity string
	ConnID   string
	Name     string
	Avatar   string
	Ready    bool
	Coins    int
	Wins     int
}

// Registry holds a room's players in join order. Join order is the host
// succession order: the longest-tenured survivor inherits the room.
type Registry struct {
	players []*Player
}

// Upsert inserts a new player from the join payload, or, for a known
// identity, updates only the connection id. A reconnect never overwrites
// name, avatar, or totals from the rejoining payload.
func (reg *Registry) Upsert(p protocol.Profile, connID string) (pl *Player, prevConn string) {
	if existing := reg.Find(p.Identity); existing != nil {
		prevConn = existing.ConnID
		existing.ConnID = connID
		return existing, prevConn
	}
	pl = &Player{
		Identity: p.Identity,
		ConnID:   connID,
		Name:     p.Name,
		Avatar:   p.Avatar,
		Coins:    p.Coins,
		Wins:     p.Wins,
	}
	reg.players = append(reg.players, pl)
	return pl, ""
}

func (reg *Registry) Find(identity string) *Player {
	for _, p := range reg.players {
		if p.Identity == identity {
			return p
		}
	}
	return nil
}

// SetReady is a no-op for unknown identities.
func (reg *Registry) SetReady(identity string, ready bool) {
	if p := reg.Find(identity); p != nil {
		p.Ready = ready
	}
}

// RemoveByConnection removes every player bound to connID. One socket can
// end up owning several members (a client re-joining under a fresh
// identity); a disconnect takes all of them out, never leaving a member no
// event can reach.
func (reg *Registry) RemoveByConnection(connID string) []*Player {
	if connID == "" {
		return nil
	}
	var removed []*Player
	kept := reg.players[:0]
	for _, p := range reg.players {
		if p.ConnID == connID {
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	reg.players = kept
	return removed
}

// RemoveByIdentity removes a player on voluntary leave.
func (reg *Registry) RemoveByIdentity(identity string) *Player {
	for i, p := range reg.players {
		if p.Identity == identity {
			reg.players = append(reg.players[:i], reg.players[i+1:]...)
			return p
		}
	}
	return nil
}

// AllReady reports whether the room can auto-start. The two-player floor
// keeps a lone player from starting a session with themselves.
func (reg *Registry) AllReady() bool {
	if len(reg.players) < 2 {
		return false
	}
	for _, p := range reg.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (reg *Registry) Len() int { return len(reg.players) }

// First is the longest-tenured player, nil when empty.
func (reg *Registry) First() *Player {
	if len(reg.players) == 0 {
		return nil
	}
	return reg.players[0]
}

func (reg *Registry) Players() []*Player { return reg.players }

func (reg *Registry) ResetReady() {
	for _, p := range reg.players {
		p.Ready = false
	}
}

// Infos snapshots the roster for a lobby broadcast.
func (reg *Registry) Infos() []protocol.PlayerInfo {
	out := make([]protocol.PlayerInfo, 0, len(reg.players))
	for _, p := range reg.players {
		out = append(out, protocol.PlayerInfo{
			Identity:  p.Identity,
			Name:      p.Name,
			Avatar:    p.Avatar,
			Ready:     p.Ready,
			Coins:     p.Coins,
			Wins:      p.Wins,
			Connected: p.ConnID != "",
		})
	}
	return out
}
