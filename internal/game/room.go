package game

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseInProgress
	PhaseWon
	PhaseEliminated
)

const (
	startingLives          = 3
	defaultMaxPlayers      = 8
	defaultTurnDuration    = 30 * time.Second
	defaultSummaryDuration = 15 * time.Second
)

type RoomConfig struct {
	MaxPlayers   int
	TurnDuration time.Duration
}

type RoomDeps struct {
	Letters LetterGenerator
	Checker WordChecker
	Wins    WinRecorder
}

type RoomDescription struct {
	ID           string
	Private      bool
	PlayersCount int
	MaxPlayers   int
	InProgress   bool
}

type RoomJoinRequest struct {
	RoomID  string
	Player  Player
	ErrChan chan error
}

func NewRoomJoinRequest(roomID string, p Player) RoomJoinRequest {
	return RoomJoinRequest{RoomID: roomID, Player: p, ErrChan: make(chan error, 1)}
}

// CommandEnvelope carries either a decoded client command or an internal
// word-validation result back into the room goroutine.
type CommandEnvelope struct {
	from   Player
	cmd    *ClientCommand
	result *guessResult
}

type guessResult struct {
	playerID string
	word     string
	epoch    uint64
	valid    bool
}

// seat is a roster entry. Slice order is turn order.
type seat struct {
	player   Player
	lives    int
	score    int
	ready    bool
	skipUsed bool
}

type room struct {
	id          string
	private     bool
	parentLobby Lobby
	deps        RoomDeps

	maxPlayers      int
	turnDuration    time.Duration
	summaryDuration time.Duration

	phase   Phase
	letters string
	players []*seat
	turnIdx int

	// turnEpoch identifies the current turn attempt. Every timer start,
	// accepted guess, reset and forced advance bumps it; an async validation
	// result is only applied if its stamped epoch still matches.
	turnEpoch    uint64
	pendingEpoch uint64
	timer        turnTimer
	nextPhaseAt  time.Time

	inbox    chan CommandEnvelope
	ticks    chan time.Time
	joinReqs chan RoomJoinRequest
	removals chan Player
	pingReqs chan struct{}
	closed   chan struct{}
	stopOnce sync.Once

	rng *rand.Rand
	now func() time.Time
}

func NewRoom(host Player, private bool, cfg RoomConfig, deps RoomDeps) *room {
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = defaultMaxPlayers
	}
	if cfg.TurnDuration <= 0 {
		cfg.TurnDuration = defaultTurnDuration
	}
	r := &room{
		private:         private,
		deps:            deps,
		maxPlayers:      cfg.MaxPlayers,
		turnDuration:    cfg.TurnDuration,
		summaryDuration: defaultSummaryDuration,
		phase:           PhaseWaiting,
		letters:         deps.Letters.Pair(),
		players:         make([]*seat, 0, cfg.MaxPlayers),
		inbox:           make(chan CommandEnvelope, 256),
		ticks:           make(chan time.Time, 8),
		joinReqs:        make(chan RoomJoinRequest, 16),
		removals:        make(chan Player, 16),
		pingReqs:        make(chan struct{}, 1),
		closed:          make(chan struct{}),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		now:             time.Now,
	}
	r.players = append(r.players, &seat{player: host, lives: startingLives})
	host.SetRoom(r)
	return r
}

func (r *room) SetID(id string)        { r.id = id }
func (r *room) SetParentLobby(l Lobby) { r.parentLobby = l }

func (r *room) Description() RoomDescription {
	return RoomDescription{
		ID:           r.id,
		Private:      r.private,
		PlayersCount: len(r.players),
		MaxPlayers:   r.maxPlayers,
		InProgress:   r.phase != PhaseWaiting,
	}
}

func (r *room) logger() *zerolog.Logger {
	l := log.With().Str("room", r.id).Logger()
	return &l
}

// --- channel facade, callable from any goroutine ---

func (r *room) Send(ctx context.Context, env CommandEnvelope) {
	select {
	case r.inbox <- env:
	case <-r.closed:
	case <-ctx.Done():
	}
}

func (r *room) RequestJoin(req RoomJoinRequest) {
	select {
	case r.joinReqs <- req:
	case <-r.closed:
		req.ErrChan <- ErrRoomNotFound
	}
}

func (r *room) RemovePlayer(ctx context.Context, p Player) {
	select {
	case r.removals <- p:
	case <-r.closed:
	case <-ctx.Done():
	}
}

func (r *room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pingReqs <- struct{}{}:
	default:
	}
}

func (r *room) CloseAndRelease() {
	r.stopOnce.Do(func() { close(r.closed) })
}

// GameLoop owns all room state. Nothing outside it touches the roster, the
// phase or the timer, so handlers only ever interleave at the channel
// boundary, never run concurrently.
func (r *room) GameLoop() {
	r.logger().Info().Int("players", len(r.players)).Msg("room running")
	r.broadcast(makeRoomCreated(r.id))
	r.broadcast(r.makePlayerStatus())

	for {
		select {
		case <-r.closed:
			r.logger().Info().Msg("room released")
			return
		case env := <-r.inbox:
			r.handleEnvelope(env)
		case now := <-r.ticks:
			r.handleTick(now)
		case req := <-r.joinReqs:
			r.handleJoinRequest(req)
		case p := <-r.removals:
			r.handleRemovePlayer(p)
		case <-r.pingReqs:
			r.handlePing()
		}
	}
}

// --- dispatch ---

func (r *room) handleEnvelope(env CommandEnvelope) {
	if env.result != nil {
		r.handleGuessResult(*env.result)
		return
	}
	if env.cmd == nil {
		return
	}
	s := r.seatOf(env.from)
	if s == nil {
		// sender raced with its own removal
		return
	}

	switch env.cmd.Type {
	case CmdReady:
		r.handleReady(s, true)
	case CmdUnready:
		r.handleReady(s, false)
	case CmdGuess:
		r.handleGuess(s, env.cmd.Word)
	case CmdSkip:
		r.handleSkip(s)
	case CmdTyping:
		r.broadcast(makeTyping(s.player.Name(), env.cmd.Text))
	case CmdClearTyping:
		r.broadcast(makeTypingCleared())
	case CmdReset:
		r.handleResetRequest(s)
	case CmdLeave:
		r.handleRemovePlayer(env.from)
	default:
		r.logger().Debug().Str("type", env.cmd.Type).Msg("unknown command")
	}
}

// --- joining and leaving ---

func (r *room) handleJoinRequest(req RoomJoinRequest) {
	if r.phase != PhaseWaiting {
		req.ErrChan <- ErrRoomInProgress
		return
	}
	if len(r.players) >= r.maxPlayers {
		req.ErrChan <- ErrRoomFull
		return
	}

	name := req.Player.Name()
	var stale *seat
	for _, s := range r.players {
		if s.player.Name() != name {
			continue
		}
		if s.player.Alive() {
			req.ErrChan <- ErrNameTaken
			return
		}
		stale = s
		break
	}
	if stale != nil {
		// The previous holder of this name is gone but its disconnect never
		// reached us. Evict the stale seat so the rejoin can proceed.
		r.logger().Info().Str("name", name).Msg("evicting stale session on name reclaim")
		r.dropSeat(stale.player)
	}

	r.players = append(r.players, &seat{player: req.Player, lives: startingLives})
	req.Player.SetRoom(r)
	if r.parentLobby != nil {
		r.parentLobby.TrackConnection(req.Player.ID(), r.id)
	}
	req.ErrChan <- nil

	r.sendTo(req.Player, makeRoomCreated(r.id))
	r.sendTo(req.Player, r.makeGameUpdate())
	r.broadcast(r.makePlayerStatus())
	r.updateDescription()
	r.logger().Info().Str("name", name).Msg("player joined")
}

// dropSeat removes a roster entry without any turn accounting. Callers that
// may be removing the turn holder must go through handleRemovePlayer.
func (r *room) dropSeat(p Player) {
	for i, s := range r.players {
		if s.player.ID() == p.ID() {
			r.players = append(r.players[:i], r.players[i+1:]...)
			if i < r.turnIdx {
				r.turnIdx--
			}
			break
		}
	}
	p.CancelAndRelease()
	if r.parentLobby != nil {
		r.parentLobby.ForgetConnection(p.ID())
	}
}

func (r *room) handleRemovePlayer(p Player) {
	idx := -1
	for i, s := range r.players {
		if s.player.ID() == p.ID() {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	wasHolder := r.phase == PhaseInProgress && idx == r.turnIdx
	name := r.players[idx].player.Name()

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	p.CancelAndRelease()
	if r.parentLobby != nil {
		r.parentLobby.ForgetConnection(p.ID())
	}
	r.logger().Info().Str("name", name).Msg("player left")

	if len(r.players) == 0 {
		if r.parentLobby != nil {
			r.parentLobby.RemoveRoom(r.id)
		}
		return
	}

	if idx < r.turnIdx {
		r.turnIdx--
	}

	r.broadcast(r.makePlayerStatus())

	switch r.phase {
	case PhaseWaiting:
		r.maybeStart()
	case PhaseInProgress:
		r.broadcast(r.makeGameUpdate())
		if wasHolder {
			// The departed player held the turn: any pending validation for
			// them is void, and the round must advance or end before this
			// removal settles.
			r.timer.Cancel()
			r.pendingEpoch = 0
			r.turnEpoch++
		}
		switch alive := r.aliveSeats(); len(alive) {
		case 0:
			r.endAllEliminated()
		case 1:
			r.declareWinner(alive[0])
		default:
			if wasHolder {
				// the seat now at idx is the next in rotation
				r.turnIdx = (idx - 1 + len(r.players)) % len(r.players)
				r.advanceTurn()
			}
		}
	}
	r.updateDescription()
}

// --- readiness and round start ---

func (r *room) handleReady(s *seat, ready bool) {
	if r.phase != PhaseWaiting {
		r.sendTo(s.player, makeNotice(NoticeGameInProgress))
		return
	}
	s.ready = ready
	r.broadcast(r.makePlayerStatus())
	if ready {
		r.maybeStart()
	}
}

func (r *room) maybeStart() {
	if r.phase != PhaseWaiting || len(r.players) < 2 {
		return
	}
	for _, s := range r.players {
		if !s.ready {
			return
		}
	}
	r.startRound()
}

func (r *room) startRound() {
	r.phase = PhaseInProgress
	r.letters = r.deps.Letters.Pair()
	for _, s := range r.players {
		s.ready = false
	}
	r.logger().Info().Str("letters", r.letters).Msg("round started")
	r.broadcast(r.makeGameUpdate())
	r.broadcast(r.makePlayerStatus())
	r.startTurn(r.rng.Intn(len(r.players)))
	r.updateDescription()
}

func (r *room) startTurn(idx int) {
	r.turnIdx = idx
	r.turnEpoch++
	holder := r.players[idx]
	r.timer.Start(holder.player.ID(), r.turnDuration, r.now())
	r.broadcast(makeTurnUpdate(holder.player.Name()))
}

// --- guessing ---

func (r *room) handleGuess(s *seat, word string) {
	if r.phase != PhaseInProgress {
		r.sendTo(s.player, makeNotice(NoticeGameNotStarted))
		return
	}
	if s != r.players[r.turnIdx] {
		r.sendTo(s.player, makeNotice(NoticeNotYourTurn))
		return
	}
	if s.lives <= 0 {
		r.sendTo(s.player, makeNotice(NoticeNoLives))
		return
	}
	if r.pendingEpoch != 0 && r.pendingEpoch == r.turnEpoch {
		r.sendTo(s.player, makeNotice(NoticeGuessPending))
		return
	}
	word = strings.TrimSpace(word)
	if word == "" {
		r.sendTo(s.player, makeNotice(NoticeEmptyGuess))
		return
	}

	// Cancel the countdown before anything can suspend: once we are past
	// this line the timer cannot expire the turn we are resolving.
	r.timer.Cancel()
	r.turnEpoch++
	epoch := r.turnEpoch
	r.broadcast(makeTypingCleared())

	if !containsBoth(word, r.letters) {
		r.applyGuessOutcome(s, false)
		return
	}

	r.pendingEpoch = epoch
	checker := r.deps.Checker
	playerID := s.player.ID()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dictionaryTimeout+time.Second)
		defer cancel()
		valid := checker.Check(ctx, word)
		r.Send(context.Background(), CommandEnvelope{result: &guessResult{
			playerID: playerID,
			word:     word,
			epoch:    epoch,
			valid:    valid,
		}})
	}()
}

func (r *room) handleGuessResult(res guessResult) {
	if r.pendingEpoch == res.epoch {
		r.pendingEpoch = 0
	}
	if r.phase != PhaseInProgress || res.epoch != r.turnEpoch {
		r.logger().Debug().Str("word", res.word).Msg("discarding stale validation result")
		return
	}
	s := r.seatByID(res.playerID)
	if s == nil {
		// the guesser vanished mid-validation; the removal path already
		// advanced the turn, so there is nothing left to apply
		r.logger().Debug().Str("word", res.word).Msg("validation result for departed player")
		return
	}
	r.applyGuessOutcome(s, res.valid)
}

func (r *room) applyGuessOutcome(s *seat, success bool) {
	if success {
		s.score++
		r.letters = r.deps.Letters.Pair()
	} else {
		s.lives--
		if s.lives <= 0 {
			r.sendTo(s.player, makeGameOver())
		}
	}
	r.broadcast(r.makeGameUpdate())
	r.settleTurn()
}

func (r *room) settleTurn() {
	switch alive := r.aliveSeats(); len(alive) {
	case 0:
		r.endAllEliminated()
	case 1:
		r.declareWinner(alive[0])
	default:
		r.advanceTurn()
	}
}

func (r *room) advanceTurn() {
	n := len(r.players)
	for i := 1; i <= n; i++ {
		idx := (r.turnIdx + i) % n
		if r.players[idx].lives > 0 {
			r.startTurn(idx)
			return
		}
	}
	r.logger().Error().Msg("no live player to advance to")
}

func (r *room) declareWinner(s *seat) {
	r.phase = PhaseWon
	r.timer.Cancel()
	r.pendingEpoch = 0
	r.nextPhaseAt = r.now().Add(r.summaryDuration)
	r.logger().Info().Str("winner", s.player.Name()).Msg("game won")
	r.broadcast(makeGameWin(s.player.Name()))
	r.updateDescription()

	auth, ok := s.player.Identity().(AuthenticatedIdentity)
	if !ok {
		return
	}
	wins := r.deps.Wins
	logger := r.logger()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := wins.RecordWin(ctx, auth.UserID); err != nil {
			logger.Warn().Err(err).Str("user", auth.UserID).Msg("failed to record win")
		}
	}()
}

func (r *room) endAllEliminated() {
	r.phase = PhaseEliminated
	r.timer.Cancel()
	r.pendingEpoch = 0
	r.logger().Info().Msg("all players eliminated")
	r.broadcast(makeNotice(NoticeAllEliminated))
	r.updateDescription()
}

// --- skip and reset ---

func (r *room) handleSkip(s *seat) {
	if r.phase != PhaseInProgress {
		r.sendTo(s.player, makeNotice(NoticeGameNotStarted))
		return
	}
	if s != r.players[r.turnIdx] {
		r.sendTo(s.player, makeNotice(NoticeNotYourTurn))
		return
	}
	if r.pendingEpoch != 0 && r.pendingEpoch == r.turnEpoch {
		r.sendTo(s.player, makeNotice(NoticeGuessPending))
		return
	}
	if s.skipUsed {
		r.sendTo(s.player, makeNotice(NoticeSkipUsed))
		return
	}
	s.skipUsed = true
	r.timer.Cancel()
	r.turnEpoch++
	r.letters = r.deps.Letters.Pair()
	r.broadcast(r.makeGameUpdate())
	r.advanceTurn()
}

func (r *room) handleResetRequest(s *seat) {
	if r.phase != PhaseWon && r.phase != PhaseEliminated {
		r.sendTo(s.player, makeNotice(NoticeNoReset))
		return
	}
	r.resetGame()
}

func (r *room) resetGame() {
	r.phase = PhaseWaiting
	r.timer.Cancel()
	r.pendingEpoch = 0
	r.turnEpoch++
	r.nextPhaseAt = time.Time{}
	r.letters = r.deps.Letters.Pair()
	for _, s := range r.players {
		s.lives = startingLives
		s.score = 0
		s.ready = false
		s.skipUsed = false
	}
	r.logger().Info().Msg("game reset")
	r.broadcast(makeGameReset())
	r.broadcast(r.makePlayerStatus())
	r.broadcast(r.makeGameUpdate())
	r.updateDescription()
}

// --- timing ---

func (r *room) handleTick(now time.Time) {
	switch r.phase {
	case PhaseInProgress:
		remaining, announce, expired := r.timer.Tick(now)
		if expired {
			r.handleTurnExpiry()
			return
		}
		if announce {
			r.broadcast(makeCountdown(remaining))
		}
	case PhaseWon:
		if !r.nextPhaseAt.IsZero() && !now.Before(r.nextPhaseAt) {
			r.resetGame()
		}
	}
}

// handleTurnExpiry treats a timed-out turn exactly like an incorrect guess,
// minus the dictionary lookup.
func (r *room) handleTurnExpiry() {
	if r.turnIdx < 0 || r.turnIdx >= len(r.players) {
		r.logger().Error().Int("turnIdx", r.turnIdx).Msg("timer expired with no turn holder")
		return
	}
	holder := r.players[r.turnIdx]
	r.turnEpoch++
	r.logger().Info().Str("name", holder.player.Name()).Msg("turn timed out")
	r.applyGuessOutcome(holder, false)
}

func (r *room) handlePing() {
	var stale []Player
	for _, s := range r.players {
		if !s.player.Alive() {
			stale = append(stale, s.player)
			continue
		}
		s.player.Ping()
	}
	for _, p := range stale {
		r.handleRemovePlayer(p)
	}
}

// --- helpers ---

func (r *room) seatOf(p Player) *seat {
	if p == nil {
		return nil
	}
	return r.seatByID(p.ID())
}

func (r *room) seatByID(id string) *seat {
	for _, s := range r.players {
		if s.player.ID() == id {
			return s
		}
	}
	return nil
}

func (r *room) aliveSeats() []*seat {
	alive := make([]*seat, 0, len(r.players))
	for _, s := range r.players {
		if s.lives > 0 {
			alive = append(alive, s)
		}
	}
	return alive
}

func (r *room) broadcast(msg ServerMessage) {
	data := encode(msg)
	if data == nil {
		return
	}
	for _, s := range r.players {
		s.player.Send(data)
	}
}

func (r *room) sendTo(p Player, msg ServerMessage) {
	if data := encode(msg); data != nil {
		p.Send(data)
	}
}

func (r *room) updateDescription() {
	if r.parentLobby != nil {
		r.parentLobby.RequestUpdateDescription(r.Description())
	}
}

func (r *room) makePlayerStatus() ServerMessage {
	players := make([]PlayerStatus, 0, len(r.players))
	for _, s := range r.players {
		players = append(players, PlayerStatus{Name: s.player.Name(), Ready: s.ready})
	}
	return ServerMessage{Type: EventPlayerStatus, Players: players}
}

func (r *room) makeGameUpdate() ServerMessage {
	scores := make(map[string]int, len(r.players))
	lives := make(map[string]int, len(r.players))
	for _, s := range r.players {
		scores[s.player.Name()] = s.score
		lives[s.player.Name()] = s.lives
	}
	return ServerMessage{
		Type:       EventGameUpdate,
		Letters:    r.letters,
		Scores:     scores,
		Lives:      lives,
		InProgress: r.phase == PhaseInProgress,
	}
}

func containsBoth(word, letters string) bool {
	upper := strings.ToUpper(word)
	for _, l := range letters {
		if !strings.ContainsRune(upper, l) {
			return false
		}
	}
	return true
}
