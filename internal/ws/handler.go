package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acollings/party-rounds-backend/internal/hub"
	"github.com/acollings/party-rounds-backend/internal/protocol"
	"github.com/acollings/party-rounds-backend/internal/room"
)

const writeTimeout = 3 * time.Second

// stateReplyTimeout bounds the wait for a room's getRoomState reply; a
// room can empty out between delivery and processing, abandoning the
// request. Variable so tests can shorten it.
var stateReplyTimeout = time.Second

// Handler upgrades a connection and pumps messages between it and the
// rooms it joins. Each connection gets one transient id for its lifetime;
// that id is the Player's ConnID in whichever room it currently occupies.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		c := &client{
			conn:   conn,
			connID: connID,
			hub:    h,
			mux:    make(chan protocol.ServerMessage, 32),
			log:    log.With(zap.String("connId", connID)),
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go c.writePump(ctx)
		defer c.drop()

		c.readLoop(ctx)
	}
}

// client is the per-connection gateway state: the single writer pump plus
// the (room, identity) the connection currently belongs to.
type client struct {
	conn   *websocket.Conn
	connID string
	hub    *hub.Hub
	mux    chan protocol.ServerMessage
	log    *zap.Logger

	joined   *room.Room
	identity string
}

func (c *client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				c.log.Debug("read ended", zap.Error(err))
			}
			return
		}

		var cm protocol.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.log.Debug("bad json", zap.Error(err))
			continue
		}
		c.dispatch(ctx, cm)
	}
}

// writePump is the only goroutine writing to the socket. Broadcasts from
// rooms arrive via bridges into mux; gateway-origin replies go to mux
// directly.
func (c *client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.mux:
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *client) dispatch(ctx context.Context, cm protocol.ClientMessage) {
	switch cm.Event {
	case protocol.EvtJoinRoom:
		c.join(ctx, cm)

	case protocol.EvtPlayerReady:
		c.forward(cm.RoomCode, room.SetReady{Identity: cm.Identity, Ready: cm.Ready})

	case protocol.EvtCastVote:
		c.forward(cm.RoomCode, room.CastVote{Identity: cm.Identity, Choice: cm.Choice})

	case protocol.EvtSubmitAnswer:
		c.forward(cm.RoomCode, room.SubmitAnswer{Identity: cm.Identity, Answer: cm.Answer})

	case protocol.EvtSendMessage:
		c.forward(cm.RoomCode, room.Chat{Author: cm.Author, Text: cm.Text})

	case protocol.EvtLeaveRoom:
		if c.joined != nil {
			c.joined.Deliver(room.Leave{Identity: c.identity})
			c.joined = nil
			c.identity = ""
		}

	case protocol.EvtGetRoomState:
		c.roomState(ctx, cm.RoomCode)

	default:
		c.log.Debug("unknown event", zap.String("event", cm.Event))
	}
}

func (c *client) join(ctx context.Context, cm protocol.ClientMessage) {
	if cm.RoomCode == "" || cm.Profile == nil {
		return
	}
	profile := *cm.Profile
	if profile.Identity == "" {
		// first-time guest: mint an identity, echoed back in the joined
		// ack so the client can persist it
		profile.Identity = uuid.NewString()
	}

	// a connection owns at most one player at a time; re-joining the
	// same room is an upsert, not a leave-and-rejoin
	if c.joined != nil && c.joined.Code() != cm.RoomCode {
		c.joined.Deliver(room.Disconnect{ConnID: c.connID})
		c.joined = nil
	}

	out := make(chan protocol.ServerMessage, 16)
	for {
		rm := c.hub.Ensure(cm.RoomCode)
		if rm == nil {
			return
		}
		if rm.Deliver(room.Join{ConnID: c.connID, Profile: profile, Outbox: out}) {
			c.joined = rm
			c.identity = profile.Identity
			break
		}
		// lost a race with the room emptying out; ensure again
	}
	go c.bridge(ctx, out)
}

// bridge relays one room outbox into the connection's writer. The room
// closes the outbox when it drops the client, ending the relay.
func (c *client) bridge(ctx context.Context, out chan protocol.ServerMessage) {
	for msg := range out {
		select {
		case c.mux <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// forward routes an event to the room named in its payload, matching the
// inbound contract: unknown rooms are a silent no-op.
func (c *client) forward(code string, msg room.Msg) {
	rm := c.hub.Get(code)
	if rm == nil {
		return
	}
	rm.Deliver(msg)
}

func (c *client) roomState(ctx context.Context, code string) {
	rm := c.hub.Get(code)
	if rm == nil {
		c.reply(ctx, protocol.ServerMessage{
			Event: protocol.EvtRoomState,
			Data:  protocol.RoomStatePayload{OK: false},
		})
		return
	}
	replyCh := make(chan room.View, 1)
	if !rm.Deliver(room.GetState{Reply: replyCh}) {
		c.reply(ctx, protocol.ServerMessage{
			Event: protocol.EvtRoomState,
			Data:  protocol.RoomStatePayload{OK: false},
		})
		return
	}
	select {
	case v := <-replyCh:
		c.reply(ctx, protocol.ServerMessage{
			Event: protocol.EvtRoomState,
			Data: protocol.RoomStatePayload{
				OK:           true,
				Players:      v.Players,
				HostIdentity: v.HostIdentity,
				Session:      v.Session,
				Chat:         v.Chat,
			},
		})
	case <-time.After(stateReplyTimeout):
		c.reply(ctx, protocol.ServerMessage{
			Event: protocol.EvtRoomState,
			Data:  protocol.RoomStatePayload{OK: false},
		})
	case <-ctx.Done():
	}
}

func (c *client) reply(ctx context.Context, msg protocol.ServerMessage) {
	select {
	case c.mux <- msg:
	case <-ctx.Done():
	}
}

// drop removes the player on socket close; removal is immediate, there is
// no reconnect grace window.
func (c *client) drop() {
	if c.joined != nil {
		c.joined.Deliver(room.Disconnect{ConnID: c.connID})
		c.joined = nil
	}
}
