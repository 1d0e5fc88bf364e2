package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/repository"
	"github.com/rocketscienceinc/darts-backend/internal/usecase"
)

func (that *Server) handleConnect(ctx context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, ok := that.decode(msg, c)
	if !ok {
		return nil
	}

	player, err := that.uMatch.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
	if err != nil {
		that.sendError(c, msg.Action, "failed to create a new player")
		return fmt.Errorf("failed to get or create player: %w", err)
	}

	that.register(player.ID, c)

	payloadResp := Payload{Player: player}

	if player.InMatch() {
		state, err := that.uMatch.GetPlayerMatch(ctx, player.ID)
		if err != nil {
			log.Warn("failed to restore match", "matchID", player.MatchID, "error", err)
		} else {
			payloadResp.Match = &state.Snapshot
			payloadResp.Log = state.Log
		}
	}

	if err = c.send(msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

func (that *Server) handleStartMatch(ctx context.Context, msg *Message, c *client) error {
	payloadReq, ok := that.decode(msg, c)
	if !ok {
		return nil
	}

	that.register(payloadReq.Player.ID, c)

	state, err := that.uMatch.StartMatch(ctx, payloadReq.Player.ID, payloadReq.PlayerOne, payloadReq.PlayerTwo)
	if err != nil {
		return that.fail(c, msg.Action, err)
	}

	that.broadcast(msg.Action, state)

	return nil
}

func (that *Server) handleJoinMatch(ctx context.Context, msg *Message, c *client) error {
	payloadReq, ok := that.decode(msg, c)
	if !ok {
		return nil
	}

	if payloadReq.MatchID == "" {
		that.sendError(c, msg.Action, "match_id is required")
		return nil
	}

	that.register(payloadReq.Player.ID, c)

	state, err := that.uMatch.JoinMatch(ctx, payloadReq.MatchID, payloadReq.Player.ID)
	if err != nil {
		return that.fail(c, msg.Action, err)
	}

	that.broadcast(msg.Action, state)

	return nil
}

func (that *Server) handleThrow(ctx context.Context, msg *Message, c *client) error {
	payloadReq, ok := that.decode(msg, c)
	if !ok {
		return nil
	}

	that.register(payloadReq.Player.ID, c)

	state, err := that.uMatch.RecordThrow(ctx, payloadReq.Player.ID, payloadReq.RawThrow())
	if err != nil {
		return that.fail(c, msg.Action, err)
	}

	that.broadcast(msg.Action, state)

	return nil
}

func (that *Server) handleState(ctx context.Context, msg *Message, c *client) error {
	payloadReq, ok := that.decode(msg, c)
	if !ok {
		return nil
	}

	state, err := that.uMatch.GetPlayerMatch(ctx, payloadReq.Player.ID)
	if err != nil {
		return that.fail(c, msg.Action, err)
	}

	return c.send(msg.Action, Payload{Match: &state.Snapshot, Log: state.Log})
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, c *client) error {
	payloadReq, ok := that.decode(msg, c)
	if !ok {
		return nil
	}

	state, err := that.uMatch.NewGame(ctx, payloadReq.Player.ID)
	if err != nil {
		return that.fail(c, msg.Action, err)
	}

	that.broadcast(msg.Action, state)

	return nil
}

func (that *Server) handleLeave(ctx context.Context, msg *Message, c *client) error {
	payloadReq, ok := that.decode(msg, c)
	if !ok {
		return nil
	}

	state, err := that.uMatch.LeaveMatch(ctx, payloadReq.Player.ID)
	if err != nil {
		return that.fail(c, msg.Action, err)
	}

	that.broadcast(msg.Action, state)

	return nil
}

// decode reads the request payload. Every action needs the player.
func (that *Server) decode(msg *Message, c *client) (*Payload, bool) {
	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.sendError(c, msg.Action, "malformed payload")
		return nil, false
	}

	if payloadReq.Player == nil || (payloadReq.Player.ID == "" && msg.Action != "connect") {
		that.sendError(c, msg.Action, "Player is required")
		return nil, false
	}

	return &payloadReq, true
}

// broadcast sends the new state to every connected seat of the match.
func (that *Server) broadcast(action string, state *usecase.MatchState) {
	log := that.logger.With("method", "broadcast", "matchID", state.Snapshot.ID)

	payloadResp := Payload{
		Match:  &state.Snapshot,
		Events: state.Events,
		Log:    state.Log,
	}

	for _, playerID := range state.Match.Seats {
		if playerID == "" {
			continue
		}

		that.connectionsMutex.RLock()
		conn, ok := that.connections[playerID]
		that.connectionsMutex.RUnlock()

		if !ok {
			log.Warn("connection not found for player", "playerID", playerID)
			continue
		}

		if err := conn.send(action, payloadResp); err != nil {
			log.Error("failed to send match update", "playerID", playerID, "error", err)
		}
	}
}

// fail answers the caller with a readable error. Rule violations are expected
// and are not reported back to the message loop.
func (that *Server) fail(c *client, action string, err error) error {
	if text, ok := apperror.Public(err); ok {
		that.sendError(c, action, text)
		return nil
	}

	if errors.Is(err, repository.ErrMatchNotFound) {
		that.sendError(c, action, repository.ErrMatchNotFound.Error())
		return nil
	}

	that.sendError(c, action, "internal error")

	return err
}

func (that *Server) sendError(c *client, action, text string) {
	if err := c.send(action, Payload{Error: text}); err != nil {
		that.logger.Error("failed to send error response", "action", action, "error", err)
	}
}
