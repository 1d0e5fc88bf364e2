package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/rocketscienceinc/darts-backend/internal/usecase"
)

type uMatch interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)

	StartMatch(ctx context.Context, playerID, name1, name2 string) (*usecase.MatchState, error)
	JoinMatch(ctx context.Context, matchID, playerID string) (*usecase.MatchState, error)
	RecordThrow(ctx context.Context, playerID, raw string) (*usecase.MatchState, error)
	GetMatch(ctx context.Context, matchID string) (*usecase.MatchState, error)
	GetPlayerMatch(ctx context.Context, playerID string) (*usecase.MatchState, error)
}

type Server struct {
	logger *slog.Logger
	uMatch uMatch
	router *gin.Engine
}

func New(logger *slog.Logger, uMatch uMatch) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		uMatch: uMatch,
		router: gin.New(),
	}

	server.router.Use(gin.Recovery(), server.requestLogger)

	server.router.GET("/ping", server.ping)

	matches := server.router.Group("/matches")
	matches.POST("", server.createMatch)
	matches.GET("/:id", server.getMatch)
	matches.POST("/:id/join", server.joinMatch)
	matches.POST("/:id/throws", server.recordThrow)

	return server
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - starts HTTP server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) requestLogger(c *gin.Context) {
	start := time.Now()

	c.Next()

	that.logger.Info("request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}
