package game

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// ClientCommand is an inbound frame. Type selects the action; the other
// fields are read per type.
type ClientCommand struct {
	Type string `json:"type"`
	Word string `json:"word,omitempty"`
	Text string `json:"text,omitempty"`
}

// Inbound command types.
const (
	CmdReady       = "ready"
	CmdUnready     = "unready"
	CmdGuess       = "guess"
	CmdSkip        = "skip"
	CmdTyping      = "typing"
	CmdClearTyping = "clear-typing"
	CmdReset       = "reset"
	CmdLeave       = "leave"
)

type PlayerStatus struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// ServerMessage is an outbound frame. Only the fields relevant to Type
// are populated.
type ServerMessage struct {
	Type       string         `json:"type"`
	Room       string         `json:"room,omitempty"`
	Players    []PlayerStatus `json:"players,omitempty"`
	Letters    string         `json:"letters,omitempty"`
	Scores     map[string]int `json:"scores,omitempty"`
	Lives      map[string]int `json:"lives,omitempty"`
	InProgress bool           `json:"inProgress,omitempty"`
	Turn       string         `json:"turn,omitempty"`
	Seconds    int            `json:"seconds,omitempty"`
	Name       string         `json:"name,omitempty"`
	Text       string         `json:"text,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Winner     string         `json:"winner,omitempty"`
}

// Outbound event types. Names follow the original client protocol.
const (
	EventRoomCreated   = "room-created"
	EventPlayerStatus  = "player-status"
	EventGameUpdate    = "game-update"
	EventTurnUpdate    = "turn-update"
	EventCountdown     = "countdown"
	EventPlayerTyping  = "player-typing"
	EventTypingCleared = "typing-cleared"
	EventNotice        = "notice"
	EventGameOver      = "game-over"
	EventGameWin       = "game-win"
	EventGameReset     = "game-reset"
)

// Notice reasons for rejected actions, reported to the originator only.
const (
	NoticeNotYourTurn    = "not-your-turn"
	NoticeNoLives        = "no-lives"
	NoticeEmptyGuess     = "empty-guess"
	NoticeGuessPending   = "guess-pending"
	NoticeGameNotStarted = "game-not-started"
	NoticeGameInProgress = "game-in-progress"
	NoticeSkipUsed       = "skip-used"
	NoticeNoReset        = "game-not-finished"
	NoticeAllEliminated  = "all-eliminated"
)

func makeRoomCreated(roomID string) ServerMessage {
	return ServerMessage{Type: EventRoomCreated, Room: roomID}
}

func makeNotice(reason string) ServerMessage {
	return ServerMessage{Type: EventNotice, Reason: reason}
}

func makeTurnUpdate(name string) ServerMessage {
	return ServerMessage{Type: EventTurnUpdate, Turn: name}
}

func makeCountdown(seconds int) ServerMessage {
	return ServerMessage{Type: EventCountdown, Seconds: seconds}
}

func makeTyping(name, text string) ServerMessage {
	return ServerMessage{Type: EventPlayerTyping, Name: name, Text: text}
}

func makeTypingCleared() ServerMessage {
	return ServerMessage{Type: EventTypingCleared}
}

func makeGameOver() ServerMessage {
	return ServerMessage{Type: EventGameOver}
}

func makeGameWin(winner string) ServerMessage {
	return ServerMessage{Type: EventGameWin, Winner: winner}
}

func makeGameReset() ServerMessage {
	return ServerMessage{Type: EventGameReset}
}

func encode(msg ServerMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("failed to marshal server message")
		return nil
	}
	return data
}
