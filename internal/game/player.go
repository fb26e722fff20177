package game

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type playerActor struct {
	id       string
	name     string
	identity Identity
	session  NetworkSession
	limiter  *rate.Limiter
	inbox    chan []byte
	pingChan chan struct{}
	alive    atomic.Bool
	room     Room
}

func NewPlayer(id string, identity Identity, session NetworkSession) *playerActor {
	p := &playerActor{
		id:       id,
		name:     identity.DisplayName(),
		identity: identity,
		session:  session,
		limiter:  rate.NewLimiter(4, 10),
		inbox:    make(chan []byte, 256),
		pingChan: make(chan struct{}, 1),
	}
	p.alive.Store(true)
	return p
}

func (p *playerActor) ID() string         { return p.id }
func (p *playerActor) Name() string       { return p.name }
func (p *playerActor) Identity() Identity { return p.identity }
func (p *playerActor) Alive() bool        { return p.alive.Load() }

// SetRoom is called by the room while handling the join request, before the
// pumps start; the join reply channel orders it ahead of any pump read.
func (p *playerActor) SetRoom(r Room) { p.room = r }

// Send queues a frame without blocking the room goroutine. A client too slow
// to drain its buffer loses frames rather than stalling everyone else.
func (p *playerActor) Send(data []byte) {
	if data == nil {
		return
	}
	select {
	case p.inbox <- data:
	default:
		log.Warn().Str("player", p.name).Msg("outbound buffer full, dropping frame")
	}
}

func (p *playerActor) Ping() {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// CancelAndRelease detaches the player from its room. Only the room
// goroutine calls it, and never sends to this player afterwards.
func (p *playerActor) CancelAndRelease() {
	p.alive.Store(false)
	close(p.inbox)
	close(p.pingChan)
}

func (p *playerActor) ReadPump() {
	defer func() {
		p.alive.Store(false)
		if p.room != nil {
			p.room.RemovePlayer(context.Background(), p)
		}
	}()

	for {
		data, err := p.session.Read()
		if err != nil {
			return
		}

		if !p.limiter.Allow() {
			continue
		}

		var cmd ClientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Debug().Str("player", p.name).Msg("dropping malformed frame")
			continue
		}

		p.room.Send(context.Background(), CommandEnvelope{from: p, cmd: &cmd})

		if cmd.Type == CmdLeave {
			return
		}
	}
}

func (p *playerActor) WritePump() {
	defer p.session.Close("")

	for {
		select {
		case data, ok := <-p.inbox:
			if !ok {
				return
			}
			if err := p.session.Write(data); err != nil {
				p.alive.Store(false)
				return
			}
		case _, ok := <-p.pingChan:
			if !ok {
				return
			}
			if err := p.session.Ping(); err != nil {
				p.alive.Store(false)
				return
			}
		}
	}
}
