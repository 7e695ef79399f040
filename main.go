package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/CUknot/arena_backend/chat"
	"github.com/CUknot/arena_backend/config"
	"github.com/CUknot/arena_backend/controllers"
	"github.com/CUknot/arena_backend/database"
	"github.com/CUknot/arena_backend/events"
	"github.com/CUknot/arena_backend/game"
	"github.com/CUknot/arena_backend/middleware"
	"github.com/CUknot/arena_backend/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	// Initialize database
	db, err := database.Connect(cfg.DB, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, logger); err != nil {
		return err
	}
	store := database.NewStore(db)

	bus, err := newBus(cfg, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	hub := websocket.NewHub(logger)
	bus.Subscribe(hub.Deliver)

	chatCoord := chat.NewCoordinator(store, store, store, bus, logger,
		chat.WithInviteTTL(cfg.InviteTTL))
	gameCoord := game.NewCoordinator(hub, hub, store, store, logger,
		game.WithTick(cfg.GameTick),
		game.WithReconnectGrace(cfg.ReconnectGrace))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	ws := websocket.NewRouter(hub, chatCoord, gameCoord, store, cfg.JWTSecret, cfg.OriginAllowed, logger)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS(cfg.OriginAllowed))

	auth := controllers.NewAuthController(store, cfg.JWTSecret, cfg.TokenTTL)
	rooms := controllers.NewRoomController(store)
	games := controllers.NewGameController(gameCoord, store)

	// Authentication routes
	public := router.Group("/api")
	{
		public.POST("/register", auth.Register)
		public.POST("/login", auth.Login)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		api.GET("/rooms", rooms.GetRooms)
		api.GET("/rooms/:name/messages", rooms.GetMessages)
		api.GET("/games", games.GetGames)
		api.GET("/games/history", games.GetHistory)
	}

	// WebSocket route
	router.GET("/ws", ws.HandleConnection(ctx))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := gameCoord.Shutdown(shutdownCtx); err != nil {
			logger.Warn("game shutdown", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newBus connects to NATS when configured so several instances share chat
// events. Otherwise events stay in process.
func newBus(cfg *config.Config, logger *slog.Logger) (events.Bus, error) {
	if cfg.NATSURL == "" {
		return events.NewLocalBus(), nil
	}
	return events.NewNATSBus(cfg.NATSURL, cfg.NATSSubject, logger)
}
