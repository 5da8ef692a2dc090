package protocol

// ClientMessage is the single inbound envelope. Every event carries the
// room code; the remaining fields are populated per event and ignored
// otherwise, so one flat struct covers the whole inbound surface.
type ClientMessage struct {
	Event    string   `json:"event"`
	RoomCode string   `json:"roomCode,omitempty"`
	Profile  *Profile `json:"profile,omitempty"`
	Identity string   `json:"identity,omitempty"`
	Ready    bool     `json:"ready,omitempty"`
	Choice   string   `json:"choice,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Author   string   `json:"author,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// Inbound event names.
const (
	EvtJoinRoom     = "joinRoom"
	EvtPlayerReady  = "playerReady"
	EvtCastVote     = "castVote"
	EvtSubmitAnswer = "submitAnswer"
	EvtSendMessage  = "sendMessage"
	EvtLeaveRoom    = "leaveRoom"
	EvtGetRoomState = "getRoomState"
)

// Outbound event names.
const (
	EvtJoined         = "joined"
	EvtLobbyUpdate    = "lobbyUpdate"
	EvtCountdown      = "countdown"
	EvtGameStart      = "gameStart"
	EvtVoteStart      = "voteStart"
	EvtVoteUpdate     = "voteUpdate"
	EvtVoteCountdown  = "voteCountdown"
	EvtVoteEnd        = "voteEnd"
	EvtRoundStart     = "roundStart"
	EvtRoundCountdown = "roundCountdown"
	EvtRoundResult    = "roundResult"
	EvtLeaderboard    = "leaderboard"
	EvtGameOver       = "gameOver"
	EvtChatUpdate     = "chatUpdate"
	EvtRoomState      = "roomState"
)

// ServerMessage is the outbound envelope. Data is one of the payload
// structs below (or a bare int for the countdown events, or nil for a
// cancelled countdown).
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Profile is the join payload. Identity is client-generated and persisted
// client-side; Coins/Wins let a returning guest carry prior totals.
type Profile struct {
	Identity string `json:"identity,omitempty"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Coins    int    `json:"coins,omitempty"`
	Wins     int    `json:"wins,omitempty"`
}

type PlayerInfo struct {
	Identity  string `json:"identity"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Ready     bool   `json:"ready"`
	Coins     int    `json:"coins"`
	Wins      int    `json:"wins"`
	Connected bool   `json:"connected"`
}

type JoinedPayload struct {
	ConnectionID string `json:"connectionId"`
	Identity     string `json:"identity"`
	HostIdentity string `json:"hostIdentity"`
}

type LobbyUpdatePayload struct {
	Players      []PlayerInfo `json:"players"`
	HostIdentity string       `json:"hostIdentity"`
}

type GameStartPayload struct {
	RoomCode string `json:"roomCode"`
	Round    int    `json:"round"`
}

type VoteStartPayload struct {
	Seconds     int      `json:"seconds"`
	Options     []string `json:"options"`
	Round       int      `json:"round"`
	TotalRounds int      `json:"totalRounds"`
}

type VoteEndPayload struct {
	ChosenGame string `json:"chosenGame"`
}

type RoundStartPayload struct {
	Game        string `json:"game"`
	Seconds     int    `json:"seconds"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
}

type LeaderboardEntry struct {
	Name  string `json:"name"`
	Coins int    `json:"coins"`
	Wins  int    `json:"wins"`
}

type RoundResultPayload struct {
	WinnerIdentity *string                     `json:"winnerIdentity"`
	Answer         any                         `json:"answer"`
	Leaderboard    map[string]LeaderboardEntry `json:"leaderboard"`
}

type LeaderboardPayload struct {
	Round       int                         `json:"round"`
	TotalRounds int                         `json:"totalRounds"`
	Leaderboard map[string]LeaderboardEntry `json:"leaderboard"`
}

type GameOverPayload struct {
	Leaderboard map[string]LeaderboardEntry `json:"leaderboard"`
}

type ChatEntry struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// SessionState is the session portion of a roomState reply.
type SessionState struct {
	Phase       string                      `json:"phase"`
	Round       int                         `json:"round"`
	TotalRounds int                         `json:"totalRounds"`
	ActiveGame  string                      `json:"activeGame,omitempty"`
	Votes       map[string]string           `json:"votes"`
	Leaderboard map[string]LeaderboardEntry `json:"leaderboard"`
}

type RoomStatePayload struct {
	OK           bool          `json:"ok"`
	Players      []PlayerInfo  `json:"players,omitempty"`
	HostIdentity string        `json:"hostIdentity,omitempty"`
	Session      *SessionState `json:"session,omitempty"`
	Chat         []ChatEntry   `json:"chat,omitempty"`
}
