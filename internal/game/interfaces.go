package game

import (
	"context"
	"time"
)

// NetworkSession is the transport a player talks through. The only real
// implementation wraps a gorilla websocket; tests substitute their own.
type NetworkSession interface {
	Close(reason string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type Player interface {
	ID() string
	Name() string
	Identity() Identity
	// Send queues a frame for delivery. It never blocks the caller.
	Send(data []byte)
	Ping()
	SetRoom(r Room)
	// Alive reports whether the underlying transport is still usable.
	// It goes false the moment either pump observes a transport error,
	// which may be well before any removal request is processed.
	Alive() bool
	CancelAndRelease()
}

type Room interface {
	Send(ctx context.Context, env CommandEnvelope)
	RequestJoin(req RoomJoinRequest)
	RemovePlayer(ctx context.Context, p Player)
	Tick(now time.Time)
	PingPlayers()
	GameLoop()
	CloseAndRelease()
	Description() RoomDescription
	SetID(id string)
	SetParentLobby(l Lobby)
}

type Lobby interface {
	RequestUpdateDescription(desc RoomDescription)
	RemoveRoom(roomID string)
	TrackConnection(connID, roomID string)
	ForgetConnection(connID string)
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// WordChecker answers whether a dictionary recognizes the word. It must
// return within a bounded time even when the backing service does not.
type WordChecker interface {
	Check(ctx context.Context, word string) bool
}

// LetterGenerator produces the two-letter round constraint.
type LetterGenerator interface {
	Pair() string
}

// WinRecorder persists a win for an authenticated user. Callers treat it
// as fire-and-forget: errors are logged, never surfaced into game state.
type WinRecorder interface {
	RecordWin(ctx context.Context, userID string) error
}

// NopWinRecorder is used when the server runs without storage.
type NopWinRecorder struct{}

func (NopWinRecorder) RecordWin(ctx context.Context, userID string) error { return nil }
