package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/rocketscienceinc/darts-backend/internal/repository"
	"github.com/rocketscienceinc/darts-backend/internal/usecase"
)

var errNotSeated = errors.New("player is not seated in this match")

type matchRequest struct {
	PlayerID  string `json:"player_id"`
	PlayerOne string `json:"player_one"`
	PlayerTwo string `json:"player_two"`
}

type throwRequest struct {
	PlayerID string          `json:"player_id" binding:"required"`
	Throw    json.RawMessage `json:"throw"`
}

type matchResponse struct {
	Player *entity.Player  `json:"player,omitempty"`
	Match  entity.Snapshot `json:"match"`
	Events []entity.Event  `json:"events,omitempty"`
	Log    []entity.Event  `json:"log,omitempty"`
}

func newMatchResponse(player *entity.Player, state *usecase.MatchState) matchResponse {
	return matchResponse{
		Player: player,
		Match:  state.Snapshot,
		Events: state.Events,
		Log:    state.Log,
	}
}

// createMatch starts a match hosted by the caller. A caller without a session gets one.
func (that *Server) createMatch(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	ctx := c.Request.Context()

	player, err := that.uMatch.GetOrCreatePlayer(ctx, req.PlayerID)
	if err != nil {
		that.writeError(c, err)
		return
	}

	state, err := that.uMatch.StartMatch(ctx, player.ID, req.PlayerOne, req.PlayerTwo)
	if err != nil {
		that.writeError(c, err)
		return
	}

	player.MatchID = state.Snapshot.ID
	player.Seat = 0

	c.JSON(http.StatusCreated, newMatchResponse(player, state))
}

func (that *Server) getMatch(c *gin.Context) {
	state, err := that.uMatch.GetMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMatchResponse(nil, state))
}

func (that *Server) joinMatch(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	ctx := c.Request.Context()

	player, err := that.uMatch.GetOrCreatePlayer(ctx, req.PlayerID)
	if err != nil {
		that.writeError(c, err)
		return
	}

	state, err := that.uMatch.JoinMatch(ctx, c.Param("id"), player.ID)
	if err != nil {
		that.writeError(c, err)
		return
	}

	player.MatchID = state.Snapshot.ID
	player.Seat = state.Match.SeatOf(player.ID)

	c.JSON(http.StatusOK, newMatchResponse(player, state))
}

func (that *Server) recordThrow(c *gin.Context) {
	var req throwRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
		return
	}

	ctx := c.Request.Context()

	current, err := that.uMatch.GetPlayerMatch(ctx, req.PlayerID)
	if err != nil {
		that.writeError(c, err)
		return
	}

	if current.Snapshot.ID != c.Param("id") {
		that.writeError(c, errNotSeated)
		return
	}

	state, err := that.uMatch.RecordThrow(ctx, req.PlayerID, rawThrow(req.Throw))
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMatchResponse(nil, state))
}

func (that *Server) writeError(c *gin.Context, err error) {
	status, text := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, apperror.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotYourTurn), errors.Is(err, apperror.ErrMatchFull):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrNoActiveMatch):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrMatchNotFound):
		status, text = http.StatusNotFound, repository.ErrMatchNotFound.Error()
	case errors.Is(err, repository.ErrPlayerNotFound):
		status, text = http.StatusNotFound, repository.ErrPlayerNotFound.Error()
	case errors.Is(err, errNotSeated):
		status, text = http.StatusNotFound, errNotSeated.Error()
	default:
		that.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}

	if public, ok := apperror.Public(err); ok {
		text = public
	}

	c.JSON(status, gin.H{"error": text})
}

// rawThrow accepts the throw as a JSON string or a bare number.
func rawThrow(throw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(throw, &text); err == nil {
		return text
	}

	return strings.TrimSpace(string(throw))
}
