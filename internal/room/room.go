package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/acollings/party-rounds-backend/internal/game"
	"github.com/acollings/party-rounds-backend/internal/protocol"
)

type Msg interface{ isRoomMsg() }

// Join registers a connection and upserts its player. The joined ack goes
// to Outbox only; everyone gets a lobbyUpdate.
type Join struct {
	ConnID  string
	Profile protocol.Profile
	Outbox  chan protocol.ServerMessage
}

type SetReady struct {
	Identity string
	Ready    bool
}

type CastVote struct {
	Identity string
	Choice   string
}

type SubmitAnswer struct {
	Identity string
	Answer   string
}

type Chat struct {
	Author string
	Text   string
}

// Leave is a voluntary exit keyed by the persistent identity.
type Leave struct{ Identity string }

// Disconnect is a dropped connection, keyed by the transient id.
type Disconnect struct{ ConnID string }

type GetState struct{ Reply chan View }

type Shutdown struct{}

func (Join) isRoomMsg()         {}
func (SetReady) isRoomMsg()     {}
func (CastVote) isRoomMsg()     {}
func (SubmitAnswer) isRoomMsg() {}
func (Chat) isRoomMsg()         {}
func (Leave) isRoomMsg()        {}
func (Disconnect) isRoomMsg()   {}
func (GetState) isRoomMsg()     {}
func (Shutdown) isRoomMsg()     {}

// timerFired re-enters the room loop when the armed timer elapses. The
// generation number lets the loop drop fires from a superseded phase.
type timerFired struct{ gen int }

func (timerFired) isRoomMsg() {}

type timerKind int

const (
	timerNone timerKind = iota
	timerReadyCountdown
	timerVote
	timerRound
	timerSettle
)

// Config holds the pacing of a room. Tests compress these; production uses
// DefaultConfig.
type Config struct {
	ReadyCountdownSec int
	VoteSec           int
	SettleDelay       time.Duration
	TickInterval      time.Duration
}

func DefaultConfig() Config {
	return Config{
		ReadyCountdownSec: 15,
		VoteSec:           45,
		SettleDelay:       3500 * time.Millisecond,
		TickInterval:      time.Second,
	}
}

// View reflects internal state without data races, for getRoomState
// replies and tests.
type View struct {
	Code         string
	Players      []protocol.PlayerInfo
	HostIdentity string
	Chat         []protocol.ChatEntry
	NumClients   int
	Session      *protocol.SessionState
	// Answer is the active game's reveal of the in-flight round, nil
	// outside one.
	Answer any
}

// Room owns everything for one join code: the player registry, the chat
// log, the host pointer, and the current session. All mutation happens on
// the loop goroutine; timers re-enter through the inbox, so a tick can
// never race a player action.
type Room struct {
	code  string
	cfg   Config
	games *game.Registry
	log   *zap.Logger

	registry Registry
	hostID   string
	chat     []protocol.ChatEntry
	session  *session

	clients map[string]chan protocol.ServerMessage

	timer       *time.Timer
	timerGen    int
	timerKind   timerKind
	secondsLeft int

	inbox   chan Msg
	ctx     context.Context
	cancel  context.CancelFunc
	onEmpty func(*Room)
}

// New starts a room's loop. onEmpty is invoked (from the loop goroutine)
// the instant the last player is removed, after which no delivery
// succeeds.
func New(parent context.Context, code string, cfg Config, games *game.Registry, log *zap.Logger, onEmpty func(*Room)) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		code:    code,
		cfg:     cfg,
		games:   games,
		log:     log.With(zap.String("room", code)),
		clients: make(map[string]chan protocol.ServerMessage),
		inbox:   make(chan Msg, 64),
		ctx:     ctx,
		cancel:  cancel,
		onEmpty: onEmpty,
	}
	go r.loop()
	return r
}

func (r *Room) Code() string { return r.code }

// Deliver enqueues a message unless the room has shut down.
func (r *Room) Deliver(m Msg) bool {
	select {
	case <-r.ctx.Done():
		// checked first: a buffered inbox would otherwise accept
		// messages for a room whose loop has already exited
		return false
	default:
	}
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case SetReady:
				r.handleReady(msg)
			case CastVote:
				r.handleVote(msg)
			case SubmitAnswer:
				r.handleAnswer(msg)
			case Chat:
				r.handleChat(msg)
			case Leave:
				r.handleLeave(msg.Identity)
			case Disconnect:
				r.handleDisconnect(msg.ConnID)
			case GetState:
				msg.Reply <- r.view()
			case timerFired:
				r.handleTimer(msg)
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) shutdown() {
	r.stopTimer()
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}

// ----- membership -----

func (r *Room) handleJoin(msg Join) {
	p, prevConn := r.registry.Upsert(msg.Profile, msg.ConnID)
	if prevConn != "" && prevConn != msg.ConnID {
		// reconnect: the stale connection's outbox is dead weight
		r.dropClient(prevConn)
	}
	if r.hostID == "" {
		r.hostID = p.Identity
	}
	if old, ok := r.clients[msg.ConnID]; ok && old != msg.Outbox {
		close(old)
	}
	r.clients[msg.ConnID] = msg.Outbox
	r.send(msg.ConnID, protocol.ServerMessage{
		Event: protocol.EvtJoined,
		Data: protocol.JoinedPayload{
			ConnectionID: msg.ConnID,
			Identity:     p.Identity,
			HostIdentity: r.hostID,
		},
	})
	r.broadcastLobby()
	r.log.Debug("player joined",
		zap.String("identity", p.Identity),
		zap.Int("players", r.registry.Len()))
}

func (r *Room) handleReady(msg SetReady) {
	r.registry.SetReady(msg.Identity, msg.Ready)
	r.broadcastLobby()
	r.evalCountdown()
}

func (r *Room) handleLeave(identity string) {
	p := r.registry.RemoveByIdentity(identity)
	if p == nil {
		return
	}
	if p.ConnID != "" {
		r.dropClient(p.ConnID)
	}
	r.afterRemoval(p)
}

func (r *Room) handleDisconnect(connID string) {
	removed := r.registry.RemoveByConnection(connID)
	r.dropClient(connID)
	if len(removed) == 0 {
		return
	}
	r.afterRemoval(removed...)
}

func (r *Room) afterRemoval(removed ...*Player) {
	if r.registry.Len() == 0 {
		r.log.Info("room empty, destroying")
		r.cancel()
		if r.onEmpty != nil {
			r.onEmpty(r)
		}
		return
	}
	for _, p := range removed {
		if p.Identity == r.hostID {
			r.hostID = r.registry.First().Identity
			break
		}
	}
	r.broadcastLobby()
}

// ----- chat -----

func (r *Room) handleChat(msg Chat) {
	r.chat = append(r.chat, protocol.ChatEntry{Author: msg.Author, Text: msg.Text})
	log := make([]protocol.ChatEntry, len(r.chat))
	copy(log, r.chat)
	r.broadcast(protocol.ServerMessage{Event: protocol.EvtChatUpdate, Data: log})
}

// ----- ready countdown -----

// evalCountdown arms the auto-start countdown on the false-to-true edge of
// allReady and tears it down, broadcasting a null countdown, when the
// condition stops holding. Re-arming always restarts at the full duration.
func (r *Room) evalCountdown() {
	if r.session != nil {
		return
	}
	all := r.registry.AllReady()
	switch {
	case all && r.timerKind == timerNone:
		r.secondsLeft = r.cfg.ReadyCountdownSec
		r.broadcast(protocol.ServerMessage{Event: protocol.EvtCountdown, Data: r.secondsLeft})
		r.armTimer(timerReadyCountdown, r.cfg.TickInterval)
	case !all && r.timerKind == timerReadyCountdown:
		r.stopTimer()
		r.broadcast(protocol.ServerMessage{Event: protocol.EvtCountdown, Data: nil})
	}
}

func (r *Room) tickReadyCountdown() {
	if !r.registry.AllReady() {
		r.stopTimer()
		r.broadcast(protocol.ServerMessage{Event: protocol.EvtCountdown, Data: nil})
		return
	}
	r.secondsLeft--
	r.broadcast(protocol.ServerMessage{Event: protocol.EvtCountdown, Data: r.secondsLeft})
	if r.secondsLeft <= 0 {
		r.stopTimer()
		r.startSession()
		return
	}
	r.armTimer(timerReadyCountdown, r.cfg.TickInterval)
}

// ----- session flow -----

func (r *Room) startSession() {
	totalRounds := 3
	if r.registry.Len() > 5 {
		totalRounds = 4
	}
	r.session = newSession(totalRounds, r.games.Options(), r.registry.Players())
	r.broadcast(protocol.ServerMessage{
		Event: protocol.EvtGameStart,
		Data:  protocol.GameStartPayload{RoomCode: r.code, Round: 1},
	})
	r.log.Info("session started", zap.Int("totalRounds", totalRounds))
	r.startVoting()
}

func (r *Room) startVoting() {
	s := r.session
	s.phase = phaseVoting
	s.active = nil
	s.data = nil
	s.resetVotes()
	r.secondsLeft = r.cfg.VoteSec
	r.broadcast(protocol.ServerMessage{
		Event: protocol.EvtVoteStart,
		Data: protocol.VoteStartPayload{
			Seconds:     r.cfg.VoteSec,
			Options:     s.options,
			Round:       s.round,
			TotalRounds: s.totalRounds,
		},
	})
	r.armTimer(timerVote, r.cfg.TickInterval)
}

func (r *Room) handleVote(msg CastVote) {
	s := r.session
	if s == nil || s.phase != phaseVoting {
		r.log.Debug("vote out of phase", zap.String("identity", msg.Identity))
		return
	}
	if !s.legalOption(msg.Choice) {
		r.log.Debug("vote for unknown option", zap.String("choice", msg.Choice))
		return
	}
	s.votes[msg.Identity] = msg.Choice
	r.broadcast(protocol.ServerMessage{Event: protocol.EvtVoteUpdate, Data: s.votesCopy()})
	if len(s.votes) >= r.registry.Len() {
		r.finishVoting()
	}
}

func (r *Room) tickVote() {
	s := r.session
	r.secondsLeft--
	r.broadcast(protocol.ServerMessage{Event: protocol.EvtVoteCountdown, Data: r.secondsLeft})
	if r.secondsLeft <= 0 || len(s.votes) >= r.registry.Len() {
		r.finishVoting()
		return
	}
	r.armTimer(timerVote, r.cfg.TickInterval)
}

func (r *Room) finishVoting() {
	r.stopTimer()
	s := r.session
	chosen := s.tally()
	g, ok := r.games.Lookup(chosen)
	if !ok {
		// options always come from the registry, so this is unreachable
		// unless a game was deregistered mid-session
		g, _ = r.games.Lookup(s.options[0])
	}
	s.active = g
	s.data = g.Setup()
	r.broadcast(protocol.ServerMessage{
		Event: protocol.EvtVoteEnd,
		Data:  protocol.VoteEndPayload{ChosenGame: g.ID()},
	})
	r.startRound()
}

func (r *Room) startRound() {
	s := r.session
	s.phase = phasePlaying
	r.secondsLeft = s.active.RoundSeconds()
	r.broadcast(protocol.ServerMessage{
		Event: protocol.EvtRoundStart,
		Data: protocol.RoundStartPayload{
			Game:        s.active.ID(),
			Seconds:     r.secondsLeft,
			Round:       s.round,
			TotalRounds: s.totalRounds,
		},
	})
	r.armTimer(timerRound, r.cfg.TickInterval)
}

func (r *Room) handleAnswer(msg SubmitAnswer) {
	s := r.session
	if s == nil || s.phase != phasePlaying || s.active == nil {
		r.log.Debug("answer out of phase", zap.String("identity", msg.Identity))
		return
	}
	winner, ok := s.active.Submit(s.data, msg.Identity, msg.Answer)
	if !ok {
		return
	}
	r.endRound(winner)
}

func (r *Room) tickRound() {
	s := r.session
	r.secondsLeft--
	r.broadcast(protocol.ServerMessage{Event: protocol.EvtRoundCountdown, Data: r.secondsLeft})
	if r.secondsLeft <= 0 {
		winner, _ := s.active.OnTimeout(s.data)
		r.endRound(winner)
		return
	}
	r.armTimer(timerRound, r.cfg.TickInterval)
}

// endRound resolves the current round, with or without a winner. The round
// timer is cancelled first so a late fire can never land in a later phase.
func (r *Room) endRound(winner string) {
	r.stopTimer()
	s := r.session
	s.phase = phaseScoring

	if winner != "" {
		name := winner
		if p := r.registry.Find(winner); p != nil {
			p.Coins += rewardCoins
			p.Wins += rewardWins
			name = p.Name
		}
		s.credit(winner, name)
		r.log.Info("round won",
			zap.Int("round", s.round),
			zap.String("winner", winner))
	}

	var winPtr *string
	if winner != "" {
		winPtr = &winner
	}
	r.broadcast(protocol.ServerMessage{
		Event: protocol.EvtRoundResult,
		Data: protocol.RoundResultPayload{
			WinnerIdentity: winPtr,
			Answer:         s.active.Reveal(s.data),
			Leaderboard:    s.leaderboardCopy(),
		},
	})
	r.broadcast(protocol.ServerMessage{
		Event: protocol.EvtLeaderboard,
		Data: protocol.LeaderboardPayload{
			Round:       s.round,
			TotalRounds: s.totalRounds,
			Leaderboard: s.leaderboardCopy(),
		},
	})
	r.armTimer(timerSettle, r.cfg.SettleDelay)
}

func (r *Room) settle() {
	r.stopTimer()
	s := r.session
	if s.round < s.totalRounds {
		s.round++
		r.startVoting()
		return
	}
	s.phase = phaseOver
	r.broadcast(protocol.ServerMessage{
		Event: protocol.EvtGameOver,
		Data:  protocol.GameOverPayload{Leaderboard: s.leaderboardCopy()},
	})
	r.session = nil
	r.registry.ResetReady()
	r.broadcastLobby()
	r.log.Info("session over")
}

// ----- timers -----

// armTimer replaces any outstanding timer. At most one is ever live; a
// phase entry cancels before arming.
func (r *Room) armTimer(kind timerKind, d time.Duration) {
	r.stopTimer()
	r.timerKind = kind
	r.timerGen++
	gen := r.timerGen
	r.timer = time.AfterFunc(d, func() {
		select {
		case r.inbox <- timerFired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	// bump the generation so an already-fired callback gets dropped
	r.timerGen++
	r.timerKind = timerNone
}

func (r *Room) handleTimer(msg timerFired) {
	if msg.gen != r.timerGen || r.timer == nil {
		return
	}
	switch r.timerKind {
	case timerReadyCountdown:
		r.tickReadyCountdown()
	case timerVote:
		r.tickVote()
	case timerRound:
		r.tickRound()
	case timerSettle:
		r.settle()
	}
}

// ----- broadcast -----

func (r *Room) broadcastLobby() {
	r.broadcast(protocol.ServerMessage{
		Event: protocol.EvtLobbyUpdate,
		Data: protocol.LobbyUpdatePayload{
			Players:      r.registry.Infos(),
			HostIdentity: r.hostID,
		},
	})
}

func (r *Room) broadcast(msg protocol.ServerMessage) {
	for id, ch := range r.clients {
		select {
		case ch <- msg:
		default:
			// slow/full client - drop the channel; the reader's own
			// disconnect will remove the player
			close(ch)
			delete(r.clients, id)
		}
	}
}

func (r *Room) send(connID string, msg protocol.ServerMessage) {
	ch, ok := r.clients[connID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		r.dropClient(connID)
	}
}

func (r *Room) dropClient(connID string) {
	if ch, ok := r.clients[connID]; ok {
		close(ch)
		delete(r.clients, connID)
	}
}

func (r *Room) view() View {
	v := View{
		Code:         r.code,
		Players:      r.registry.Infos(),
		HostIdentity: r.hostID,
		NumClients:   len(r.clients),
	}
	v.Chat = make([]protocol.ChatEntry, len(r.chat))
	copy(v.Chat, r.chat)
	if s := r.session; s != nil {
		v.Session = s.state()
		if s.active != nil {
			v.Answer = s.active.Reveal(s.data)
		}
	}
	return v
}
