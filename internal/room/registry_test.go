package room

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acollings/party-rounds-backend/internal/protocol"
)

func TestRegistry_UpsertInsertsWithJoinTotals(t *testing.T) {
	var reg Registry
	p, prev := reg.Upsert(protocol.Profile{Identity: "a", Name: "Alice", Coins: 12, Wins: 2}, "conn-1")

	require.Empty(t, prev)
	require.Equal(t, "Alice", p.Name)
	require.Equal(t, 12, p.Coins)
	require.Equal(t, 2, p.Wins)
	require.False(t, p.Ready)
	require.Equal(t, 1, reg.Len())
}

func TestRegistry_ReconnectUpdatesOnlyConnection(t *testing.T) {
	var reg Registry
	reg.Upsert(protocol.Profile{Identity: "a", Name: "Alice", Coins: 5}, "conn-1")
	reg.SetReady("a", true)

	// the rejoining payload claims different everything; none of it sticks
	p, prev := reg.Upsert(protocol.Profile{Identity: "a", Name: "Mallory", Coins: 999, Wins: 50}, "conn-2")

	require.Equal(t, "conn-1", prev)
	require.Equal(t, "conn-2", p.ConnID)
	require.Equal(t, "Alice", p.Name)
	require.Equal(t, 5, p.Coins)
	require.Equal(t, 0, p.Wins)
	require.True(t, p.Ready, "reconnect keeps ready state")
	require.Equal(t, 1, reg.Len())
}

func TestRegistry_SetReadyUnknownIdentityIsNoOp(t *testing.T) {
	var reg Registry
	reg.SetReady("ghost", true) // must not panic or insert
	require.Equal(t, 0, reg.Len())
}

func TestRegistry_AllReadyNeedsTwoPlayers(t *testing.T) {
	var reg Registry
	require.False(t, reg.AllReady())

	reg.Upsert(protocol.Profile{Identity: "a", Name: "Alice"}, "c1")
	reg.SetReady("a", true)
	require.False(t, reg.AllReady(), "a lone player never auto-starts")

	reg.Upsert(protocol.Profile{Identity: "b", Name: "Bob"}, "c2")
	require.False(t, reg.AllReady())

	reg.SetReady("b", true)
	require.True(t, reg.AllReady())
}

func TestRegistry_RemoveByConnection(t *testing.T) {
	var reg Registry
	reg.Upsert(protocol.Profile{Identity: "a", Name: "Alice"}, "c1")
	reg.Upsert(protocol.Profile{Identity: "b", Name: "Bob"}, "c2")

	removed := reg.RemoveByConnection("c1")
	require.Len(t, removed, 1)
	require.Equal(t, "a", removed[0].Identity)
	require.Equal(t, 1, reg.Len())

	require.Empty(t, reg.RemoveByConnection("c1"))
	require.Empty(t, reg.RemoveByConnection("nope"))
}

func TestRegistry_RemoveByConnectionTakesEveryHolder(t *testing.T) {
	var reg Registry
	reg.Upsert(protocol.Profile{Identity: "a", Name: "Alice"}, "c1")
	reg.Upsert(protocol.Profile{Identity: "b", Name: "Bob"}, "c1")
	reg.Upsert(protocol.Profile{Identity: "c", Name: "Cara"}, "c2")

	removed := reg.RemoveByConnection("c1")
	require.Len(t, removed, 2)
	require.Equal(t, "a", removed[0].Identity)
	require.Equal(t, "b", removed[1].Identity)
	require.Equal(t, 1, reg.Len())
	require.Equal(t, "c", reg.First().Identity)
}

func TestRegistry_RemoveByEmptyConnectionIsNoOp(t *testing.T) {
	var reg Registry
	reg.Upsert(protocol.Profile{Identity: "a", Name: "Alice"}, "c1")
	p := reg.Find("a")
	p.ConnID = ""

	require.Empty(t, reg.RemoveByConnection(""), "disconnected members are not matched by an empty id")
	require.Equal(t, 1, reg.Len())
}

func TestRegistry_FirstFollowsJoinOrder(t *testing.T) {
	var reg Registry
	reg.Upsert(protocol.Profile{Identity: "a", Name: "Alice"}, "c1")
	reg.Upsert(protocol.Profile{Identity: "b", Name: "Bob"}, "c2")
	reg.Upsert(protocol.Profile{Identity: "c", Name: "Cara"}, "c3")

	require.Equal(t, "a", reg.First().Identity)
	reg.RemoveByIdentity("a")
	require.Equal(t, "b", reg.First().Identity)
	reg.RemoveByIdentity("b")
	require.Equal(t, "c", reg.First().Identity)
	reg.RemoveByIdentity("c")
	require.Nil(t, reg.First())
}

func TestRegistry_ResetReady(t *testing.T) {
	var reg Registry
	reg.Upsert(protocol.Profile{Identity: "a", Name: "Alice"}, "c1")
	reg.Upsert(protocol.Profile{Identity: "b", Name: "Bob"}, "c2")
	reg.SetReady("a", true)
	reg.SetReady("b", true)

	reg.ResetReady()
	for _, info := range reg.Infos() {
		require.False(t, info.Ready)
	}
}
