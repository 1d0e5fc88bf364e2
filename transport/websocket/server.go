package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/rocketscienceinc/darts-backend/internal/pkg"
	"github.com/rocketscienceinc/darts-backend/internal/usecase"
)

const sessionCookie = "user_session"

type uMatch interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)

	StartMatch(ctx context.Context, playerID, name1, name2 string) (*usecase.MatchState, error)
	JoinMatch(ctx context.Context, matchID, playerID string) (*usecase.MatchState, error)
	RecordThrow(ctx context.Context, playerID, raw string) (*usecase.MatchState, error)
	NewGame(ctx context.Context, playerID string) (*usecase.MatchState, error)
	GetPlayerMatch(ctx context.Context, playerID string) (*usecase.MatchState, error)
	LeaveMatch(ctx context.Context, playerID string) (*usecase.MatchState, error)
}

type handler func(ctx context.Context, msg *Message, c *client) error

type Server struct {
	logger   *slog.Logger
	uMatch   uMatch
	upgrader websocket.Upgrader

	handlers map[string]handler

	connections      map[string]*client
	connectionsMutex sync.RWMutex
}

func New(logger *slog.Logger, uMatch uMatch) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uMatch: uMatch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers:    make(map[string]handler),
		connections: make(map[string]*client),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["match:start"] = server.handleStartMatch
	server.handlers["match:join"] = server.handleJoinMatch
	server.handlers["match:throw"] = server.handleThrow
	server.handlers["match:state"] = server.handleState
	server.handlers["match:new"] = server.handleNewGame
	server.handlers["match:leave"] = server.handleLeave

	return server
}

// Handler serves the websocket endpoint on /ws.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWS(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
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

func (that *Server) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(w, r, that.sessionHeader(r))
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer conn.Close()

	log.Info("WebSocket connection established")

	c := &client{conn: conn}
	defer that.handleDisconnect(c)

	if err = that.handleMessages(ctx, c); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("failed to read message: %w", err)
			}

			return nil
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(c, "", "malformed message")
			continue
		}

		handle, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(c, message.Action, "unknown action")
			continue
		}

		if err = handle(ctx, &message, c); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// sessionHeader sets the session cookie when the client has none yet.
func (that *Server) sessionHeader(req *http.Request) http.Header {
	if _, err := req.Cookie(sessionCookie); err == nil {
		return nil
	}

	cookie := &http.Cookie{
		Name:    sessionCookie,
		Value:   pkg.GenerateNewSessionID(),
		Expires: time.Now().Add(24 * time.Hour),
		Path:    "/ws",
	}

	header := http.Header{}
	header.Add("Set-Cookie", cookie.String())

	return header
}

func (that *Server) register(playerID string, c *client) {
	that.connectionsMutex.Lock()
	that.connections[playerID] = c
	that.connectionsMutex.Unlock()
}

func (that *Server) handleDisconnect(c *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	for playerID, conn := range that.connections {
		if conn == c {
			delete(that.connections, playerID)
			that.logger.Info("player disconnected", "playerID", playerID)
		}
	}
}
