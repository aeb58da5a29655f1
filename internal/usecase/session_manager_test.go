package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gamelauncher/internal/apperror"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/repository"
	"github.com/rocketscienceinc/gamelauncher/internal/tictactoe"
)

var errStorageIsFull = errors.New("storage is full")

type mockPlayerRepo struct {
	mock.Mock
}

func (that *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	args := that.Called(ctx, player)
	return args.Error(0)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]entity.Session
}

func (that *memorySessions) CreateOrUpdate(_ context.Context, session *entity.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessions[session.PlayerID] = *session

	return nil
}

func (that *memorySessions) GetByPlayerID(_ context.Context, playerID string) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[playerID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	return &session, nil
}

func (that *memorySessions) DeleteByPlayerID(_ context.Context, playerID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[playerID]; !ok {
		return repository.ErrSessionNotFound
	}

	delete(that.sessions, playerID)

	return nil
}

type memorySettings struct {
	mu       sync.Mutex
	settings map[string]entity.Settings
}

func (that *memorySettings) Get(_ context.Context, playerID string) (entity.Settings, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	settings, ok := that.settings[playerID]
	if !ok {
		return entity.DefaultSettings(), nil
	}

	return settings, nil
}

func (that *memorySettings) Save(_ context.Context, playerID string, settings entity.Settings) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.settings[playerID] = settings

	return nil
}

type memoryHistory struct {
	mu      sync.Mutex
	records []entity.MatchRecord
}

func (that *memoryHistory) Save(_ context.Context, record *entity.MatchRecord) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.records = append(that.records, *record)

	return nil
}

func (that *memoryHistory) ListByPlayer(_ context.Context, playerID string, limit int) ([]entity.MatchRecord, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var records []entity.MatchRecord
	for i := len(that.records) - 1; i >= 0 && len(records) < limit; i-- {
		if that.records[i].PlayerID == playerID {
			records = append(records, that.records[i])
		}
	}

	return records, nil
}

func (that *memoryHistory) Stats(_ context.Context, playerID string) (entity.Stats, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var stats entity.Stats
	for _, record := range that.records {
		if record.PlayerID != playerID {
			continue
		}

		switch record.Winner {
		case entity.Tie:
			stats.Draws++
		case record.HumanMark:
			stats.Wins++
		default:
			stats.Losses++
		}
	}

	return stats, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []entity.Event
}

func (that *recordingNotifier) Publish(_ string, event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, event)
}

func (that *recordingNotifier) types() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	types := make([]string, 0, len(that.events))
	for _, event := range that.events {
		types = append(types, event.Type)
	}

	return types
}

func (that *recordingNotifier) last() entity.Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.events[len(that.events)-1]
}

func (that *recordingNotifier) reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = nil
}

type testManager struct {
	*SessionManager
	clock    *quartz.Mock
	players  *mockPlayerRepo
	sessions *memorySessions
	settings *memorySettings
	history  *memoryHistory
	notifier *recordingNotifier
}

func newTestManager(t *testing.T) *testManager {
	t.Helper()

	tm := &testManager{
		clock:    quartz.NewMock(t),
		players:  &mockPlayerRepo{},
		sessions: &memorySessions{sessions: make(map[string]entity.Session)},
		settings: &memorySettings{settings: make(map[string]entity.Settings)},
		history:  &memoryHistory{},
		notifier: &recordingNotifier{},
	}

	tm.SessionManager = NewSessionManager(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		DefaultTiming(),
		tm.players, tm.sessions, tm.settings, tm.history,
		WithClock(tm.clock),
		WithNotifier(tm.notifier),
		WithBotOptions(tictactoe.WithSeed(42)),
	)

	return tm
}

func (that *testManager) advance(t *testing.T, d time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	that.clock.Advance(d).MustWait(ctx)
}

const (
	x = entity.MarkX
	o = entity.MarkO
	e = entity.EmptyCell
)

// storeSession puts a session in the repository as if a previous connection had left it.
func (that *testManager) storeSession(playerID string, board entity.Board, turn entity.Mark) {
	that.sessions.sessions[playerID] = entity.Session{
		PlayerID:    playerID,
		Board:       board,
		Turn:        turn,
		HumanMark:   x,
		BotMark:     o,
		Difficulty:  entity.Invincible,
		MatchNumber: 1,
		Status:      entity.StatusOngoing,
	}
}

func TestSessionManager_GetOrCreatePlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a new player when id is empty", func(t *testing.T) {
		// Given: a repository that accepts the new player
		tm := newTestManager(t)
		tm.players.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Player")).Return(nil).Once()

		// When: GetOrCreatePlayer is called with an empty id
		player, err := tm.GetOrCreatePlayer(ctx, "")

		// Then: a player with a generated id is returned
		require.NoError(t, err)
		assert.Len(t, player.ID, 36)
		tm.players.AssertExpectations(t)
	})

	t.Run("Returns the existing player", func(t *testing.T) {
		tm := newTestManager(t)
		existing := &entity.Player{ID: "player123"}
		tm.players.On("GetByID", mock.Anything, "player123").Return(existing, nil).Once()

		player, err := tm.GetOrCreatePlayer(ctx, "player123")

		require.NoError(t, err)
		assert.Equal(t, existing, player)
	})

	t.Run("Returns error if the repository fails", func(t *testing.T) {
		tm := newTestManager(t)
		tm.players.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(errStorageIsFull).Once()

		player, err := tm.GetOrCreatePlayer(ctx, "")

		require.ErrorIs(t, err, errStorageIsFull)
		assert.Nil(t, player)
	})
}

func TestSessionManager_StartSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Starts the first match", func(t *testing.T) {
		tm := newTestManager(t)

		// When: a new player starts a session
		session, err := tm.StartSession(ctx, "p1")

		// Then: match 1 is open with the human to move, and the session is stored
		require.NoError(t, err)
		assert.Equal(t, 1, session.MatchNumber)
		assert.Equal(t, x, session.Turn)
		assert.True(t, session.IsHumanTurn())
		assert.Equal(t, entity.Invincible, session.Difficulty)
		assert.Equal(t, entity.Board{}, session.Board)

		stored, err := tm.sessions.GetByPlayerID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, session, stored)
	})

	t.Run("Returns the running game on reconnect", func(t *testing.T) {
		tm := newTestManager(t)

		_, err := tm.StartSession(ctx, "p1")
		require.NoError(t, err)
		_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 0, Column: 0})
		require.NoError(t, err)

		session, err := tm.StartSession(ctx, "p1")

		require.NoError(t, err)
		assert.Len(t, session.Board.EmptyCells(), 7)
	})

	t.Run("Restores a stored session and lets the bot move", func(t *testing.T) {
		// Given: a stored session where the bot is to move
		tm := newTestManager(t)
		tm.storeSession("p1", entity.Board{x, e, e, e, e, e, e, e, e}, o)

		// When: the session starts
		session, err := tm.StartSession(ctx, "p1")

		// Then: the bot has answered in the centre
		require.NoError(t, err)
		assert.Equal(t, o, session.Board.At(entity.CellPosition{Line: 1, Column: 1}))
		assert.True(t, session.IsHumanTurn())
	})

	t.Run("Uses the stored difficulty", func(t *testing.T) {
		tm := newTestManager(t)
		require.NoError(t, tm.settings.Save(ctx, "p1", entity.Settings{Difficulty: entity.Hard}))

		session, err := tm.StartSession(ctx, "p1")

		require.NoError(t, err)
		assert.Equal(t, entity.Hard, session.Difficulty)
	})
}

func TestSessionManager_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Human move is answered by the bot", func(t *testing.T) {
		tm := newTestManager(t)
		_, err := tm.StartSession(ctx, "p1")
		require.NoError(t, err)

		// When: the human takes a corner
		session, err := tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 0, Column: 0})

		// Then: the bot took the centre and it is the human's turn again
		require.NoError(t, err)
		assert.Equal(t, x, session.Board.At(entity.CellPosition{Line: 0, Column: 0}))
		assert.Equal(t, o, session.Board.At(entity.CellPosition{Line: 1, Column: 1}))
		assert.True(t, session.IsHumanTurn())
		assert.Equal(t, []string{entity.EventMove}, tm.notifier.types())
		assert.Empty(t, tm.notifier.last().Sound)
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		tm := newTestManager(t)
		_, err := tm.StartSession(ctx, "p1")
		require.NoError(t, err)
		_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 0, Column: 0})
		require.NoError(t, err)

		_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 1, Column: 1})

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
	})

	t.Run("Error on invalid cell", func(t *testing.T) {
		tm := newTestManager(t)
		_, err := tm.StartSession(ctx, "p1")
		require.NoError(t, err)

		_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: -1, Column: 0})

		require.ErrorIs(t, err, entity.ErrInvalidCell)
	})

	t.Run("Error without a session", func(t *testing.T) {
		tm := newTestManager(t)

		_, err := tm.MakeTurn(ctx, "p1", entity.CellPosition{})

		require.ErrorIs(t, err, apperror.ErrNoActiveSession)
	})

	t.Run("Error on a game that is being closed", func(t *testing.T) {
		// Given: a running game that was already marked closed
		tm := newTestManager(t)
		_, err := tm.StartSession(ctx, "p1")
		require.NoError(t, err)

		g, err := tm.getGame("p1")
		require.NoError(t, err)
		g.mu.Lock()
		g.closed = true
		g.mu.Unlock()

		// When: a turn reaches it
		session, err := tm.MakeTurn(ctx, "p1", entity.CellPosition{})

		// Then: the turn is rejected and the board is untouched
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.True(t, session.IsFinished())
		assert.Equal(t, entity.Board{}, session.Board)
	})
}

// playSeveralMatches drives one player through a turn, a difficulty change and a turn in the new match.
func playSeveralMatches(ctx context.Context, tm *testManager, playerID string) error {
	if _, err := tm.StartSession(ctx, playerID); err != nil {
		return err
	}

	if _, err := tm.MakeTurn(ctx, playerID, entity.CellPosition{Line: 0, Column: 0}); err != nil {
		return err
	}

	session, err := tm.ChangeDifficulty(ctx, playerID, entity.Normal)
	if err != nil {
		return err
	}

	_, err = tm.MakeTurn(ctx, playerID, session.Board.EmptyCells()[0])

	return err
}

func TestSessionManager_ConcurrentPlayers(t *testing.T) {
	ctx := context.Background()

	t.Run("Players do not share bot state", func(t *testing.T) {
		// Given: one manager whose bots all get the same seed option
		tm := newTestManager(t)
		players := 4

		// When: several players play at the same time
		var wg sync.WaitGroup
		errs := make(chan error, players)

		for i := range players {
			playerID := fmt.Sprintf("p%d", i)

			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- playSeveralMatches(ctx, tm, playerID)
			}()
		}

		wg.Wait()
		close(errs)

		// Then: every game reached its second match
		for err := range errs {
			require.NoError(t, err)
		}

		for i := range players {
			session, err := tm.Session(ctx, fmt.Sprintf("p%d", i))
			require.NoError(t, err)
			assert.Equal(t, 2, session.MatchNumber)
			assert.Equal(t, entity.Normal, session.Difficulty)
		}
	})

	t.Run("Simultaneous starts share one game", func(t *testing.T) {
		tm := newTestManager(t)

		var wg sync.WaitGroup
		sessions := make([]*entity.Session, 2)
		errs := make([]error, 2)

		for i := range sessions {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sessions[i], errs[i] = tm.StartSession(ctx, "p1")
			}()
		}

		wg.Wait()

		for i := range sessions {
			require.NoError(t, errs[i])
			assert.Equal(t, 1, sessions[i].MatchNumber)
		}

		tm.mu.Lock()
		assert.Len(t, tm.games, 1)
		tm.mu.Unlock()
	})
}

func TestSessionManager_History(t *testing.T) {
	ctx := context.Background()

	// Given: three recorded matches of two players
	tm := newTestManager(t)
	for i, playerID := range []string{"p1", "p2", "p1"} {
		require.NoError(t, tm.history.Save(ctx, &entity.MatchRecord{PlayerID: playerID, MatchNumber: i + 1, Winner: x, HumanMark: x}))
	}

	t.Run("Returns the player's matches newest first", func(t *testing.T) {
		records, err := tm.History(ctx, "p1", 10)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 3, records[0].MatchNumber)
		assert.Equal(t, 1, records[1].MatchNumber)
	})

	t.Run("Non-positive limit means the maximum", func(t *testing.T) {
		records, err := tm.History(ctx, "p1", 0)

		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestSessionManager_Win(t *testing.T) {
	ctx := context.Background()

	// Given: sound is on and the human is one move away from the top row
	tm := newTestManager(t)
	require.NoError(t, tm.settings.Save(ctx, "p1", entity.Settings{Difficulty: entity.Invincible, SoundEffect: true}))
	tm.storeSession("p1", entity.Board{x, x, e, o, o, e, e, e, e}, x)
	_, err := tm.StartSession(ctx, "p1")
	require.NoError(t, err)

	// When: the human completes the row
	session, err := tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 0, Column: 2})

	// Then: the match is blocked, scored and recorded, and the first blink is immediate
	require.NoError(t, err)
	assert.True(t, session.Blocked)
	assert.Equal(t, 1, session.HumanScore)
	assert.Equal(t, entity.Horizontal1, session.WinLine)
	assert.Equal(t, []string{entity.EventMatchWin, entity.EventMatchBlink}, tm.notifier.types())
	assert.Equal(t, entity.SoundWin, tm.notifier.events[0].Sound)
	assert.True(t, tm.notifier.last().Highlight)

	stats, err := tm.Stats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, entity.Stats{Wins: 1}, stats)

	_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 2, Column: 2})
	require.ErrorIs(t, err, apperror.ErrMatchBlocked)

	// And: the line blinks nine times in total, alternating
	for i := 1; i < 9; i++ {
		tm.advance(t, 500*time.Millisecond)

		assert.Equal(t, entity.EventMatchBlink, tm.notifier.last().Type)
		assert.Equal(t, i%2 == 0, tm.notifier.last().Highlight, "blink %d", i)
	}

	assert.Len(t, tm.notifier.types(), 10)

	// And: the next match starts with the bot, scores kept
	tm.advance(t, 500*time.Millisecond)

	event := tm.notifier.last()
	assert.Equal(t, entity.EventMatchNew, event.Type)
	assert.Equal(t, entity.SoundStart, event.Sound)
	assert.Equal(t, 2, event.Session.MatchNumber)
	assert.Equal(t, 1, event.Session.HumanScore)
	assert.Len(t, event.Session.Board.EmptyCells(), 8)
	assert.True(t, event.Session.IsHumanTurn())

	stored, err := tm.sessions.GetByPlayerID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.MatchNumber)
}

func TestSessionManager_Draw(t *testing.T) {
	ctx := context.Background()

	// Given: one empty cell left that cannot complete a line
	tm := newTestManager(t)
	tm.storeSession("p1", entity.Board{x, o, x, x, o, o, o, x, e}, x)
	_, err := tm.StartSession(ctx, "p1")
	require.NoError(t, err)

	// When: the human fills the board
	session, err := tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 2, Column: 2})

	// Then: the draw is announced and recorded without scores
	require.NoError(t, err)
	assert.True(t, session.Blocked)
	assert.Equal(t, entity.Tie, session.Winner)
	assert.Equal(t, 0, session.HumanScore+session.BotScore)
	assert.Equal(t, []string{entity.EventMatchDraw}, tm.notifier.types())

	stats, err := tm.Stats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, entity.Stats{Draws: 1}, stats)

	// And: a new match starts one second later
	tm.advance(t, time.Second)

	assert.Equal(t, []string{entity.EventMatchDraw, entity.EventMatchNew}, tm.notifier.types())
	assert.Equal(t, 2, tm.notifier.last().Session.MatchNumber)
}

func TestSessionManager_ChangeDifficulty(t *testing.T) {
	ctx := context.Background()

	// Given: a match in progress
	tm := newTestManager(t)
	_, err := tm.StartSession(ctx, "p1")
	require.NoError(t, err)
	_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 0, Column: 0})
	require.NoError(t, err)

	// When: the difficulty changes to normal
	session, err := tm.ChangeDifficulty(ctx, "p1", entity.Normal)

	// Then: the setting is stored and a fresh match starts against the normal bot
	require.NoError(t, err)
	assert.Equal(t, entity.Normal, session.Difficulty)
	assert.Equal(t, 2, session.MatchNumber)
	assert.Len(t, session.Board.EmptyCells(), 8)

	settings, err := tm.Settings(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, entity.Normal, settings.Difficulty)
}

func TestSessionManager_SaveSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("Without a running game", func(t *testing.T) {
		tm := newTestManager(t)

		settings, err := tm.SaveSettings(ctx, "p1", entity.Settings{Difficulty: entity.Hard, SoundEffect: true})

		require.NoError(t, err)
		assert.Equal(t, entity.Settings{Difficulty: entity.Hard, SoundEffect: true}, settings)
	})

	t.Run("Sound flag reaches the running game", func(t *testing.T) {
		tm := newTestManager(t)
		_, err := tm.StartSession(ctx, "p1")
		require.NoError(t, err)

		_, err = tm.SetSoundEffect(ctx, "p1", true)
		require.NoError(t, err)
		_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 0, Column: 0})
		require.NoError(t, err)

		assert.Equal(t, entity.SoundMove, tm.notifier.last().Sound)
	})
}

func TestSessionManager_CloseSession(t *testing.T) {
	ctx := context.Background()

	// Given: a won match with the blink animation pending
	tm := newTestManager(t)
	tm.storeSession("p1", entity.Board{x, x, e, o, o, e, e, e, e}, x)
	_, err := tm.StartSession(ctx, "p1")
	require.NoError(t, err)
	_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 0, Column: 2})
	require.NoError(t, err)
	tm.notifier.reset()

	// When: the session is closed
	session, err := tm.CloseSession(ctx, "p1")

	// Then: the final state is returned and nothing fires afterwards
	require.NoError(t, err)
	assert.True(t, session.IsFinished())
	assert.Equal(t, 1, session.HumanScore)

	tm.advance(t, 500*time.Millisecond)
	assert.Empty(t, tm.notifier.types())

	_, err = tm.Session(ctx, "p1")
	require.ErrorIs(t, err, apperror.ErrNoActiveSession)

	_, err = tm.CloseSession(ctx, "p1")
	require.ErrorIs(t, err, apperror.ErrNoActiveSession)
}

func TestSessionManager_Disconnect(t *testing.T) {
	ctx := context.Background()

	// Given: a game with one move each
	tm := newTestManager(t)
	_, err := tm.StartSession(ctx, "p1")
	require.NoError(t, err)
	_, err = tm.MakeTurn(ctx, "p1", entity.CellPosition{Line: 0, Column: 0})
	require.NoError(t, err)

	// When: the player disconnects and comes back
	tm.Disconnect("p1")

	stored, err := tm.Session(ctx, "p1")
	require.NoError(t, err)

	session, err := tm.StartSession(ctx, "p1")

	// Then: the stored game is resumed
	require.NoError(t, err)
	assert.Equal(t, stored.Board, session.Board)
}
