package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/rocketscienceinc/darts-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMatchUseCase struct {
	mock.Mock
}

func (that *mockMatchUseCase) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockMatchUseCase) state(args mock.Arguments) (*usecase.MatchState, error) {
	state, _ := args.Get(0).(*usecase.MatchState)
	return state, args.Error(1)
}

func (that *mockMatchUseCase) StartMatch(ctx context.Context, playerID, name1, name2 string) (*usecase.MatchState, error) {
	return that.state(that.Called(ctx, playerID, name1, name2))
}

func (that *mockMatchUseCase) JoinMatch(ctx context.Context, matchID, playerID string) (*usecase.MatchState, error) {
	return that.state(that.Called(ctx, matchID, playerID))
}

func (that *mockMatchUseCase) RecordThrow(ctx context.Context, playerID, raw string) (*usecase.MatchState, error) {
	return that.state(that.Called(ctx, playerID, raw))
}

func (that *mockMatchUseCase) NewGame(ctx context.Context, playerID string) (*usecase.MatchState, error) {
	return that.state(that.Called(ctx, playerID))
}

func (that *mockMatchUseCase) GetPlayerMatch(ctx context.Context, playerID string) (*usecase.MatchState, error) {
	return that.state(that.Called(ctx, playerID))
}

func (that *mockMatchUseCase) LeaveMatch(ctx context.Context, playerID string) (*usecase.MatchState, error) {
	return that.state(that.Called(ctx, playerID))
}

func dial(t *testing.T, uc *mockMatchUseCase) *websocket.Conn {
	t.Helper()

	server := New(slog.New(slog.NewTextHandler(io.Discard, nil)), uc)
	ts := httptest.NewServer(server.Handler(context.Background()))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)

	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, action, payload string) (string, Payload) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: json.RawMessage(payload)}))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	var resp Payload
	require.NoError(t, json.Unmarshal(msg.Payload, &resp))

	return msg.Action, resp
}

func TestServer_Connect(t *testing.T) {
	// Given: a new client
	uc := &mockMatchUseCase{}
	uc.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()

	conn := dial(t, uc)

	// When: it connects without a session
	action, resp := roundTrip(t, conn, "connect", `{"player":{"id":""}}`)

	// Then: a player session is issued
	assert.Equal(t, "connect", action)
	require.NotNil(t, resp.Player)
	assert.Equal(t, "p1", resp.Player.ID)
	assert.Nil(t, resp.Match)
	uc.AssertExpectations(t)
}

func TestServer_Throw(t *testing.T) {
	t.Run("Broadcasts the new state", func(t *testing.T) {
		// Given: a connected host of a hotseat match
		match := &entity.Match{
			ID:             "m1",
			Players:        [2]string{"A", "B"},
			Scores:         [2]int{101, 101},
			TurnStartScore: 101,
			TurnTotal:      20,
			DartNumber:     2,
			DartsPerTurn:   6,
			MaxThrow:       60,
			Seats:          [2]string{"p1", ""},
		}
		events := []entity.Event{{Kind: entity.EventThrow, Player: "A", Dart: 1, Value: 20, Remaining: 81, Message: "A dart 1: 20 -> remaining 81"}}

		uc := &mockMatchUseCase{}
		uc.On("RecordThrow", mock.Anything, "p1", "20").
			Return(&usecase.MatchState{Match: match, Snapshot: match.Snapshot(), Events: events}, nil).Once()

		conn := dial(t, uc)

		// When: the host throws a bare number
		action, resp := roundTrip(t, conn, "match:throw", `{"player":{"id":"p1"},"throw":20}`)

		// Then: the snapshot and events come back
		assert.Equal(t, "match:throw", action)
		assert.Empty(t, resp.Error)
		require.NotNil(t, resp.Match)
		assert.Equal(t, 20, resp.Match.TurnTotal)
		assert.Equal(t, events, resp.Events)
		uc.AssertExpectations(t)
	})

	t.Run("Reports invalid input to the thrower", func(t *testing.T) {
		uc := &mockMatchUseCase{}
		uc.On("RecordThrow", mock.Anything, "p1", "abc").
			Return(nil, fmt.Errorf("failed to record throw: %w", fmt.Errorf("%w: %q", apperror.ErrNotWholeNumber, "abc"))).Once()

		conn := dial(t, uc)

		_, resp := roundTrip(t, conn, "match:throw", `{"player":{"id":"p1"},"throw":"abc"}`)

		assert.Equal(t, apperror.ErrNotWholeNumber.Error(), resp.Error)
		assert.Nil(t, resp.Match)
		uc.AssertExpectations(t)
	})

	t.Run("Reports turn violations", func(t *testing.T) {
		uc := &mockMatchUseCase{}
		uc.On("RecordThrow", mock.Anything, "p2", "5").
			Return(nil, fmt.Errorf("failed to record throw: %w", apperror.ErrNotYourTurn)).Once()

		conn := dial(t, uc)

		_, resp := roundTrip(t, conn, "match:throw", `{"player":{"id":"p2"},"throw":"5"}`)

		assert.Equal(t, apperror.ErrNotYourTurn.Error(), resp.Error)
		uc.AssertExpectations(t)
	})
}

func TestServer_BadMessages(t *testing.T) {
	uc := &mockMatchUseCase{}
	conn := dial(t, uc)

	t.Run("Unknown action", func(t *testing.T) {
		action, resp := roundTrip(t, conn, "match:undo", `{}`)

		assert.Equal(t, "match:undo", action)
		assert.Equal(t, "unknown action", resp.Error)
	})

	t.Run("Missing player", func(t *testing.T) {
		_, resp := roundTrip(t, conn, "match:throw", `{"throw":"20"}`)

		assert.Equal(t, "Player is required", resp.Error)
	})

	uc.AssertExpectations(t)
}

func TestPayload_RawThrow(t *testing.T) {
	tests := []struct {
		name  string
		throw string
		want  string
	}{
		{name: "String", throw: `"20"`, want: "20"},
		{name: "Number", throw: `20`, want: "20"},
		{name: "Fraction", throw: `12.5`, want: "12.5"},
		{name: "Missing", throw: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := Payload{Throw: json.RawMessage(tt.throw)}
			assert.Equal(t, tt.want, payload.RawThrow())
		})
	}
}
