package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/launcher"
	"github.com/rocketscienceinc/gamelauncher/internal/repository"
)

type mockPlayers struct {
	mock.Mock
}

func (that *mockPlayers) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

func (that *mockPlayers) Settings(ctx context.Context, playerID string) (entity.Settings, error) {
	args := that.Called(ctx, playerID)
	return args.Get(0).(entity.Settings), args.Error(1)
}

func (that *mockPlayers) SaveSettings(ctx context.Context, playerID string, settings entity.Settings) (entity.Settings, error) {
	args := that.Called(ctx, playerID, settings)
	return args.Get(0).(entity.Settings), args.Error(1)
}

func (that *mockPlayers) Stats(ctx context.Context, playerID string) (entity.Stats, error) {
	args := that.Called(ctx, playerID)
	return args.Get(0).(entity.Stats), args.Error(1)
}

func (that *mockPlayers) History(ctx context.Context, playerID string, limit int) ([]entity.MatchRecord, error) {
	args := that.Called(ctx, playerID, limit)
	records, _ := args.Get(0).([]entity.MatchRecord)

	return records, args.Error(1)
}

func newTestServer(t *testing.T) (*Server, *mockPlayers) {
	t.Helper()

	catalog, err := launcher.Default()
	require.NoError(t, err)

	players := &mockPlayers{}
	t.Cleanup(func() { players.AssertExpectations(t) })

	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), catalog, players), players
}

func serve(server *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	return rec
}

func TestServer_Ping(t *testing.T) {
	server, _ := newTestServer(t)

	rec := serve(server, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_Games(t *testing.T) {
	t.Run("Lists the catalogue", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := serve(server, http.MethodGet, "/games", "")

		require.Equal(t, http.StatusOK, rec.Code)

		var games []entity.GameItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
		assert.Len(t, games, 6)
	})

	t.Run("Finds a game by name", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := serve(server, http.MethodGet, "/games/tictactoe", "")

		require.Equal(t, http.StatusOK, rec.Code)

		var game entity.GameItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &game))
		assert.True(t, game.Playable)
	})

	t.Run("Unknown game is 404", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := serve(server, http.MethodGet, "/games/chess", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Settings(t *testing.T) {
	player := &entity.Player{ID: "p1"}

	t.Run("Get returns the stored settings", func(t *testing.T) {
		server, players := newTestServer(t)
		players.On("GetOrCreatePlayer", mock.Anything, "p1").Return(player, nil)
		players.On("Settings", mock.Anything, "p1").Return(entity.DefaultSettings(), nil)

		rec := serve(server, http.MethodGet, "/players/p1/settings", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"difficulty":"invincible","sound_effect":false}`, rec.Body.String())
	})

	t.Run("Put merges the body into the current settings", func(t *testing.T) {
		// Given: a player with default settings
		server, players := newTestServer(t)
		players.On("GetOrCreatePlayer", mock.Anything, "p1").Return(player, nil)
		players.On("Settings", mock.Anything, "p1").Return(entity.DefaultSettings(), nil)

		expected := entity.Settings{Difficulty: entity.Invincible, SoundEffect: true}
		players.On("SaveSettings", mock.Anything, "p1", expected).Return(expected, nil).Once()

		// When: only the sound flag is sent
		rec := serve(server, http.MethodPut, "/players/p1/settings", `{"sound_effect":true}`)

		// Then: the difficulty is kept
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"difficulty":"invincible","sound_effect":true}`, rec.Body.String())
	})

	t.Run("Put rejects an unknown difficulty", func(t *testing.T) {
		server, players := newTestServer(t)
		players.On("GetOrCreatePlayer", mock.Anything, "p1").Return(player, nil)
		players.On("Settings", mock.Anything, "p1").Return(entity.DefaultSettings(), nil)

		rec := serve(server, http.MethodPut, "/players/p1/settings", `{"difficulty":"impossible"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown player is 404", func(t *testing.T) {
		server, players := newTestServer(t)
		players.On("GetOrCreatePlayer", mock.Anything, "ghost").Return(nil, repository.ErrPlayerNotFound)

		rec := serve(server, http.MethodGet, "/players/ghost/settings", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Stats(t *testing.T) {
	server, players := newTestServer(t)
	players.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1"}, nil)
	players.On("Stats", mock.Anything, "p1").Return(entity.Stats{Wins: 2, Losses: 1, Draws: 4}, nil)

	rec := serve(server, http.MethodGet, "/players/p1/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"wins":2,"losses":1,"draws":4}`, rec.Body.String())
}

func TestServer_History(t *testing.T) {
	t.Run("Lists the latest matches", func(t *testing.T) {
		// Given: a player with one recorded win
		server, players := newTestServer(t)
		players.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1"}, nil)
		players.On("History", mock.Anything, "p1", 5).Return([]entity.MatchRecord{{
			PlayerID:    "p1",
			MatchNumber: 3,
			Winner:      entity.MarkX,
			HumanMark:   entity.MarkX,
			Line:        entity.Diagonal1,
			Difficulty:  entity.Hard,
		}}, nil)

		// When: the history is requested with a limit
		rec := serve(server, http.MethodGet, "/players/p1/history?limit=5", "")

		// Then: the records are returned as JSON
		require.Equal(t, http.StatusOK, rec.Code)

		var records []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		require.Len(t, records, 1)
		assert.Equal(t, "diagonal_1", records[0]["line"])
		assert.Equal(t, "hard", records[0]["difficulty"])
	})

	t.Run("Empty history is an empty list", func(t *testing.T) {
		server, players := newTestServer(t)
		players.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1"}, nil)
		players.On("History", mock.Anything, "p1", 0).Return(nil, nil)

		rec := serve(server, http.MethodGet, "/players/p1/history", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("Bad limit is 400", func(t *testing.T) {
		server, players := newTestServer(t)
		players.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1"}, nil)

		rec := serve(server, http.MethodGet, "/players/p1/history?limit=many", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
