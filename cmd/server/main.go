package main

import (
	"context"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moe10k/word-game/internal/auth"
	"github.com/moe10k/word-game/internal/crypto"
	"github.com/moe10k/word-game/internal/game"
	"github.com/moe10k/word-game/internal/storage"
	"github.com/moe10k/word-game/migrations"
)

const defaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	if len(allowedOrigins) == 0 {
		return r
	}

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	_ = godotenv.Load()

	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	var allowedOrigins []string
	if raw, exists := os.LookupEnv("ALLOWED_ORIGINS"); exists {
		allowedOrigins = strings.Split(raw, ",")
	}

	r := CreateServer(allowedOrigins)

	// Accounts and win persistence are optional: without a database every
	// player is a guest and the leaderboard is empty.
	var winRecorder game.WinRecorder = game.NopWinRecorder{}
	var verifier game.TokenVerifier
	var leaderboard game.LeaderboardSource

	if pgURL, exists := os.LookupEnv("POSTGRES_URL"); exists {
		if err := migrations.Migrate(pgURL); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		repo, err := storage.NewPostgresRepo(context.Background(), pgURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		winRecorder = repo
		leaderboard = repo

		jwtKey, exists := os.LookupEnv("JWT_KEY")
		if !exists {
			log.Fatal().Msg("POSTGRES_URL is set but JWT_KEY is missing")
		}

		tokenAge := time.Hour * 24 * 7 // 7 days
		passwordHasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
		tokenManager := crypto.NewJWTManager(jwtKey, tokenAge)
		verifier = tokenManager

		authService := auth.NewService(repo, passwordHasher, tokenManager)
		authHandler := auth.NewAuthHandler(authService, tokenAge)

		authGroup := r.Group("/auth")
		authGroup.POST("/signup", authHandler.SignupHandler)
		authGroup.POST("/login", authHandler.LoginHandler)
		authGroup.POST("/logout", authHandler.LogoutHandler)
		authGroup.GET("/refresh", authHandler.RefreshSessionHandler)
	} else {
		log.Info().Msg("running without storage, all players are guests")
	}

	idGen := game.NewIdGen(time.Now().UnixNano())
	tickerGen := game.NewTickerGen()
	lobby := game.NewLobby(idGen, tickerGen)

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	deps := game.RoomDeps{
		Letters: game.NewLetterGenerator(time.Now().UnixNano()),
		Checker: game.NewDictionaryChecker(getEnv("DICTIONARY_URL", defaultDictionaryURL)),
		Wins:    winRecorder,
	}
	gameHandler := game.NewGameHandler(lobby, verifier, leaderboard, deps)

	gameGroup := r.Group("/game")
	gameGroup.GET("/create", gameHandler.CreateGameHandler)
	gameGroup.GET("/join/:roomid", gameHandler.JoinGameHandler)
	gameGroup.GET("/rooms", gameHandler.GetPublicRoomsHandler)
	gameGroup.GET("/leaderboard", gameHandler.LeaderboardHandler)

	port := getEnv("PORT", "5000")
	log.Info().Str("port", port).Msg("starting server")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
