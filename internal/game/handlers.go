package game

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/moe10k/word-game/internal/domain"
)

const joinReplyTimeout = 5 * time.Second

// LobbyService is the slice of the lobby the HTTP layer needs.
type LobbyService interface {
	RequestAddAndRunRoom(ctx context.Context, r Room)
	ForwardPlayerJoinRequest(ctx context.Context, req RoomJoinRequest)
	GetPublicRooms(ctx context.Context) []RoomDescription
}

// TokenVerifier resolves a session token to a user id. Optional: without it
// every player is a guest.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// LeaderboardSource reads persisted win counts. Optional.
type LeaderboardSource interface {
	TopWinners(ctx context.Context, limit int) ([]domain.WinCount, error)
}

type GameHandler struct {
	lobby       LobbyService
	verifier    TokenVerifier
	leaderboard LeaderboardSource
	deps        RoomDeps
}

func NewGameHandler(lobby LobbyService, verifier TokenVerifier, leaderboard LeaderboardSource, deps RoomDeps) *GameHandler {
	return &GameHandler{lobby: lobby, verifier: verifier, leaderboard: leaderboard, deps: deps}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func validateName(name string) string {
	switch n := utf8.RuneCountInString(name); {
	case n < 3:
		return "name-too-short"
	case n > 20:
		return "name-too-long"
	}
	return ""
}

func parseRoomConfig(ctx *gin.Context) (RoomConfig, string) {
	cfg := RoomConfig{MaxPlayers: defaultMaxPlayers, TurnDuration: defaultTurnDuration}

	if raw := ctx.Query("max"); raw != "" {
		max, err := strconv.Atoi(raw)
		if err != nil || max < 2 || max > 20 {
			return cfg, "max must be between 2 and 20"
		}
		cfg.MaxPlayers = max
	}
	if raw := ctx.Query("turn"); raw != "" {
		turn, err := strconv.Atoi(raw)
		if err != nil || turn < 5 || turn > 120 {
			return cfg, "turn must be between 5 and 120 seconds"
		}
		cfg.TurnDuration = time.Duration(turn) * time.Second
	}
	return cfg, ""
}

func (h *GameHandler) resolveIdentity(ctx *gin.Context, name string) Identity {
	if h.verifier == nil {
		return GuestIdentity{Name: name}
	}
	token, err := ctx.Cookie("token")
	if err != nil || token == "" {
		return GuestIdentity{Name: name}
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring invalid session token, joining as guest")
		return GuestIdentity{Name: name}
	}
	return AuthenticatedIdentity{Name: name, UserID: userID}
}

// CreateGameHandler upgrades the connection, creates a room with the caller
// as its first player and registers it with the lobby.
func (h *GameHandler) CreateGameHandler(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.Query("name"))
	if reason := validateName(name); reason != "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": reason})
		return
	}

	cfg, reason := parseRoomConfig(ctx)
	if reason != "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": reason})
		return
	}
	private := ctx.Query("private") == "true"

	identity := h.resolveIdentity(ctx, name)

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	player := NewPlayer(uuid.NewString(), identity, NewWebsocketConnection(conn))
	room := NewRoom(player, private, cfg, h.deps)
	h.lobby.RequestAddAndRunRoom(ctx.Request.Context(), room)

	go player.ReadPump()
	go player.WritePump()
}

// JoinGameHandler upgrades the connection and forwards a join request for an
// existing room. Rejections reach the client as the websocket close reason.
func (h *GameHandler) JoinGameHandler(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.Query("name"))
	if reason := validateName(name); reason != "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": reason})
		return
	}

	roomID := strings.ToUpper(strings.TrimSpace(ctx.Param("roomid")))
	if roomID == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing-room-id"})
		return
	}

	identity := h.resolveIdentity(ctx, name)

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	session := NewWebsocketConnection(conn)
	player := NewPlayer(uuid.NewString(), identity, session)
	req := NewRoomJoinRequest(roomID, player)
	h.lobby.ForwardPlayerJoinRequest(ctx.Request.Context(), req)

	select {
	case err := <-req.ErrChan:
		if err != nil {
			session.Close(err.Error())
			return
		}
	case <-time.After(joinReplyTimeout):
		session.Close("join-timeout")
		return
	}

	go player.ReadPump()
	go player.WritePump()
}

func (h *GameHandler) GetPublicRoomsHandler(ctx *gin.Context) {
	type roomSummary struct {
		ID         string `json:"id"`
		Players    int    `json:"players"`
		MaxPlayers int    `json:"maxPlayers"`
		InProgress bool   `json:"inProgress"`
	}

	descs := h.lobby.GetPublicRooms(ctx.Request.Context())
	rooms := make([]roomSummary, 0, len(descs))
	for _, d := range descs {
		rooms = append(rooms, roomSummary{
			ID:         d.ID,
			Players:    d.PlayersCount,
			MaxPlayers: d.MaxPlayers,
			InProgress: d.InProgress,
		})
	}
	ctx.JSON(http.StatusOK, rooms)
}

func (h *GameHandler) LeaderboardHandler(ctx *gin.Context) {
	if h.leaderboard == nil {
		ctx.JSON(http.StatusOK, []domain.WinCount{})
		return
	}
	winners, err := h.leaderboard.TopWinners(ctx.Request.Context(), 10)
	if err != nil {
		log.Error().Err(err).Msg("failed to read leaderboard")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	ctx.JSON(http.StatusOK, winners)
}
