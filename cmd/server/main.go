package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yunko006/blindotesto/internal/auth"
	"github.com/yunko006/blindotesto/internal/chat"
	"github.com/yunko006/blindotesto/internal/config"
	"github.com/yunko006/blindotesto/internal/database"
	"github.com/yunko006/blindotesto/internal/handler"
	"github.com/yunko006/blindotesto/internal/hub"
	"github.com/yunko006/blindotesto/internal/protocol"
	"github.com/yunko006/blindotesto/internal/room"

	// Swagger imports
	_ "github.com/yunko006/blindotesto/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Blindotesto API
// @version         1.0
// @description     Room coordination service for the blindotesto music quiz.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	chatLog := chat.NewLog()
	conns := hub.New()

	// The store's buzzer-reset hook needs the protocol handler, which in
	// turn needs the store; the closure resolves the cycle.
	var proto *protocol.Handler
	store := room.NewStore(room.StoreOptions{
		GracePeriod:   time.Duration(config.AppConfig.EmptyRoomGraceSeconds) * time.Second,
		SweepInterval: time.Duration(config.AppConfig.SweepIntervalSeconds) * time.Second,
		ResetPolicy:   room.ResetPolicy(config.AppConfig.BuzzerReset),
		OnBuzzerReset: func(roomID string, _ room.State) { proto.BroadcastState(roomID) },
		OnRemove:      func(roomID string) { chatLog.Drop(roomID) },
	})
	proto = protocol.NewHandler(store, conns, chatLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go store.Run(ctx)

	roomHandler := &handler.RoomHandler{Rooms: store, Chat: chatLog}
	wsHandler := &handler.WSHandler{Rooms: store, Protocol: proto}

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Hub stats, handy when checking what the server is holding open.
	router.GET("/stats", func(c *gin.Context) {
		rooms, clients := conns.Stats()
		c.JSON(http.StatusOK, gin.H{"rooms": rooms, "clients": clients})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/session", handler.CreateSession)

		roomRoutes := apiV1.Group("/rooms")
		{
			roomRoutes.POST("", roomHandler.CreateRoom)
			roomRoutes.GET("", roomHandler.GetRooms)
			roomRoutes.GET("/:id", roomHandler.GetRoomByID)
			roomRoutes.GET("/:id/chat", roomHandler.GetRoomChat)
		}

		playlistRoutes := apiV1.Group("/playlists")
		{
			playlistRoutes.GET("", handler.GetPlaylists)
			playlistRoutes.GET("/:id", handler.GetPlaylistByID)
			playlistRoutes.POST("", auth.AuthMiddleware(), handler.CreatePlaylist)
		}
	}

	// Room websocket endpoint; the session token is optional here because
	// clients may join with a bare client_id query parameter.
	router.GET("/ws/:id", auth.OptionalAuthMiddleware(), wsHandler.ServeWS)

	server := &http.Server{
		Addr:    ":" + config.AppConfig.Port,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "port", config.AppConfig.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
