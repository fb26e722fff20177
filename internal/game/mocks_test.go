package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- fakePlayer ---

// fakePlayer records everything the room sends it. A stub rather than a
// testify mock: scenario tests assert on the recorded frames, and wiring
// .On(...) for every broadcast would drown the scenarios in noise.
type fakePlayer struct {
	id       string
	name     string
	identity Identity
	alive    bool
	released bool
	room     Room
	sent     [][]byte
	pings    int
}

func newFakePlayer(name string) *fakePlayer {
	return &fakePlayer{
		id:       "conn-" + name,
		name:     name,
		identity: GuestIdentity{Name: name},
		alive:    true,
	}
}

func (p *fakePlayer) ID() string         { return p.id }
func (p *fakePlayer) Name() string       { return p.name }
func (p *fakePlayer) Identity() Identity { return p.identity }
func (p *fakePlayer) Alive() bool        { return p.alive }
func (p *fakePlayer) SetRoom(r Room)     { p.room = r }
func (p *fakePlayer) Ping()              { p.pings++ }
func (p *fakePlayer) CancelAndRelease()  { p.released = true }
func (p *fakePlayer) Send(data []byte)   { p.sent = append(p.sent, data) }

func (p *fakePlayer) messages() []ServerMessage {
	msgs := make([]ServerMessage, 0, len(p.sent))
	for _, data := range p.sent {
		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (p *fakePlayer) messagesOfType(t string) []ServerMessage {
	var out []ServerMessage
	for _, msg := range p.messages() {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

func (p *fakePlayer) lastOfType(t string) (ServerMessage, bool) {
	msgs := p.messagesOfType(t)
	if len(msgs) == 0 {
		return ServerMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

// --- fakeLobby ---

type fakeLobby struct {
	mu           sync.Mutex
	removedRooms []string
	tracked      map[string]string
	descriptions []RoomDescription
}

func newFakeLobby() *fakeLobby {
	return &fakeLobby{tracked: map[string]string{}}
}

func (l *fakeLobby) RequestUpdateDescription(desc RoomDescription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.descriptions = append(l.descriptions, desc)
}

func (l *fakeLobby) RemoveRoom(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removedRooms = append(l.removedRooms, roomID)
}

func (l *fakeLobby) TrackConnection(connID, roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracked[connID] = roomID
}

func (l *fakeLobby) ForgetConnection(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tracked, connID)
}

// --- stub letter generator ---

// stubLetters cycles through a scripted sequence of pairs.
type stubLetters struct {
	pairs []string
	calls int
}

func (g *stubLetters) Pair() string {
	pair := g.pairs[g.calls%len(g.pairs)]
	g.calls++
	return pair
}

// --- stub word checker ---

type stubChecker struct {
	mu     sync.Mutex
	result bool
	calls  []string
}

func (c *stubChecker) Check(ctx context.Context, word string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, word)
	return c.result
}

func (c *stubChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// --- testify mocks ---

type MockWinRecorder struct {
	mock.Mock
}

func (m *MockWinRecorder) RecordWin(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockRoom struct {
	mock.Mock
}

func (m *MockRoom) Send(ctx context.Context, env CommandEnvelope) {
	m.Called(ctx, env)
}

func (m *MockRoom) RequestJoin(req RoomJoinRequest) {
	m.Called(req)
}

func (m *MockRoom) RemovePlayer(ctx context.Context, p Player) {
	m.Called(ctx, p)
}

func (m *MockRoom) Tick(now time.Time) {
	m.Called(now)
}

func (m *MockRoom) PingPlayers() {
	m.Called()
}

func (m *MockRoom) GameLoop() {
	m.Called()
}

func (m *MockRoom) CloseAndRelease() {
	m.Called()
}

func (m *MockRoom) Description() RoomDescription {
	args := m.Called()
	return args.Get(0).(RoomDescription)
}

func (m *MockRoom) SetID(id string) {
	m.Called(id)
}

func (m *MockRoom) SetParentLobby(l Lobby) {
	m.Called(l)
}

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}
