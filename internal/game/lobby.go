package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type connTrack struct {
	connID string
	roomID string
}

// lobby is the process-wide room registry. A single goroutine (LobbyActor)
// owns the room map and the connection reverse map; everything reaches it
// through channels. Rooms are independent of each other, so the lobby never
// blocks on a room: it only forwards.
type lobby struct {
	rooms            map[string]Room
	pubRoomDescs     map[string]RoomDescription
	connRooms        map[string]string
	addAndRunChan    chan Room
	removeRoomChan   chan string
	roomDescUpdates  chan RoomDescription
	pubRoomsRequests chan chan []RoomDescription
	roomJoinReqs     chan RoomJoinRequest
	trackConns       chan connTrack
	forgetConns      chan string
	idGenerator      UniqueIdGenerator
	tickerCreator    PeriodicTickerChannelCreator
}

func NewLobby(idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator) *lobby {
	return &lobby{
		rooms:            map[string]Room{},
		pubRoomDescs:     map[string]RoomDescription{},
		connRooms:        map[string]string{},
		addAndRunChan:    make(chan Room, 32),
		removeRoomChan:   make(chan string, 32),
		roomDescUpdates:  make(chan RoomDescription, 256),
		pubRoomsRequests: make(chan chan []RoomDescription, 64),
		roomJoinReqs:     make(chan RoomJoinRequest, 256),
		trackConns:       make(chan connTrack, 256),
		forgetConns:      make(chan string, 256),
		idGenerator:      idgen,
		tickerCreator:    tickerCreator,
	}
}

func (l *lobby) RequestAddAndRunRoom(ctx context.Context, r Room) {
	select {
	case l.addAndRunChan <- r:
	case <-ctx.Done():
	}
}

func (l *lobby) ForwardPlayerJoinRequest(ctx context.Context, req RoomJoinRequest) {
	select {
	case l.roomJoinReqs <- req:
	case <-ctx.Done():
	}
}

func (l *lobby) RemoveRoom(roomID string) {
	l.removeRoomChan <- roomID
}

func (l *lobby) RequestUpdateDescription(desc RoomDescription) {
	select {
	case l.roomDescUpdates <- desc:
	default:
	}
}

func (l *lobby) TrackConnection(connID, roomID string) {
	select {
	case l.trackConns <- connTrack{connID: connID, roomID: roomID}:
	default:
	}
}

func (l *lobby) ForgetConnection(connID string) {
	select {
	case l.forgetConns <- connID:
	default:
	}
}

func (l *lobby) GetPublicRooms(ctx context.Context) []RoomDescription {
	respChan := make(chan []RoomDescription, 1)
	select {
	case l.pubRoomsRequests <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(time.Second)
	pingTicker := l.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}
		case room := <-l.addAndRunChan:
			l.handleAddAndRunRoom(room)
		case roomID := <-l.removeRoomChan:
			l.handleRemoveRoom(roomID)
		case desc := <-l.roomDescUpdates:
			l.handleDescUpdate(desc)
		case req := <-l.pubRoomsRequests:
			l.handleGetPublicRooms(req)
		case joinReq := <-l.roomJoinReqs:
			l.handleJoinReq(joinReq)
		case track := <-l.trackConns:
			l.connRooms[track.connID] = track.roomID
		case connID := <-l.forgetConns:
			delete(l.connRooms, connID)
		}
	}
}

func (l *lobby) handleAddAndRunRoom(r Room) {
	id := l.idGenerator.Generate()
	r.SetParentLobby(l)
	r.SetID(id)
	l.rooms[id] = r

	desc := r.Description()
	go r.GameLoop()
	log.Info().Str("room", id).Msg("room registered")

	if desc.Private {
		return
	}
	l.pubRoomDescs[id] = desc
}

func (l *lobby) handleRemoveRoom(roomID string) {
	room, ok := l.rooms[roomID]
	if !ok {
		log.Warn().Str("room", roomID).Msg("removal requested for unknown room")
		return
	}
	delete(l.rooms, roomID)
	delete(l.pubRoomDescs, roomID)
	for connID, rID := range l.connRooms {
		if rID == roomID {
			delete(l.connRooms, connID)
		}
	}
	room.CloseAndRelease()
	l.idGenerator.Dispose(roomID)
	log.Info().Str("room", roomID).Msg("room removed")
}

func (l *lobby) handleDescUpdate(desc RoomDescription) {
	if desc.Private {
		return
	}
	if _, exists := l.rooms[desc.ID]; !exists {
		return
	}
	l.pubRoomDescs[desc.ID] = desc
}

func (l *lobby) handleGetPublicRooms(req chan []RoomDescription) {
	descs := make([]RoomDescription, 0, len(l.pubRoomDescs))
	for _, desc := range l.pubRoomDescs {
		descs = append(descs, desc)
	}
	req <- descs
}

func (l *lobby) handleJoinReq(req RoomJoinRequest) {
	if _, inRoom := l.connRooms[req.Player.ID()]; inRoom {
		req.ErrChan <- ErrAlreadyInRoom
		return
	}
	room, ok := l.rooms[req.RoomID]
	if !ok {
		req.ErrChan <- ErrRoomNotFound
		return
	}
	room.RequestJoin(req)
}
