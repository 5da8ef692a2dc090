package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/acollings/party-rounds-backend/internal/game"
	"github.com/acollings/party-rounds-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

// EnsureRoom returns the room for Code, creating it if this is the first
// join for an unseen code.
type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

// GetRoom never creates; the reply may be nil.
type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom is sent by a room the instant it empties. The pointer guards
// against deleting a newer room that reused the code.
type RemoveRoom struct {
	Code string
	Room *room.Room
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub is the process-wide directory from join code to room. It is the only
// structure touched by multiple rooms' control flows, so it runs as its
// own actor; rooms themselves own disjoint state.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	cfg    room.Config
	games  *game.Registry
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, cfg room.Config, games *game.Registry, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		cfg:    cfg,
		games:  games,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Ensure is the synchronous convenience wrapper the gateway uses on join.
func (h *Hub) Ensure(code string) *room.Room {
	reply := make(chan *room.Room, 1)
	select {
	case h.inbox <- EnsureRoom{Code: code, Reply: reply}:
		return <-reply
	case <-h.ctx.Done():
		return nil
	}
}

// Get looks up a room without creating one.
func (h *Hub) Get(code string) *room.Room {
	reply := make(chan *room.Room, 1)
	select {
	case h.inbox <- GetRoom{Code: code, Reply: reply}:
		return <-reply
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				rm := h.rooms[msg.Code]
				if rm == nil {
					rm = room.New(h.ctx, msg.Code, h.cfg, h.games, h.log, h.dropEmpty)
					h.rooms[msg.Code] = rm
					h.log.Info("room created", zap.String("room", msg.Code))
				}
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				if h.rooms[msg.Code] == msg.Room {
					delete(h.rooms, msg.Code)
					h.log.Info("room removed", zap.String("room", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Deliver(room.Shutdown{})
	}
	clear(h.rooms)
	h.cancel()
}

// dropEmpty runs on the emptied room's goroutine; the buffered inbox keeps
// it from blocking the dying room.
func (h *Hub) dropEmpty(rm *room.Room) {
	select {
	case h.inbox <- RemoveRoom{Code: rm.Code(), Room: rm}:
	case <-h.ctx.Done():
	}
}
