package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rocketscienceinc/gamelauncher/internal/apperror"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/repository"
	"github.com/rocketscienceinc/gamelauncher/internal/tictactoe"
)

const (
	storeTimeout = 5 * time.Second
	maxHistory   = 100
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByPlayerID(ctx context.Context, playerID string) (*entity.Session, error)
	DeleteByPlayerID(ctx context.Context, playerID string) error
}

type settingsRepo interface {
	Get(ctx context.Context, playerID string) (entity.Settings, error)
	Save(ctx context.Context, playerID string, settings entity.Settings) error
}

type historyRepo interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]entity.MatchRecord, error)
	Stats(ctx context.Context, playerID string) (entity.Stats, error)
}

// Notifier delivers events to the player's client.
type Notifier interface {
	Publish(playerID string, event entity.Event)
}

type NotifierFunc func(playerID string, event entity.Event)

func (that NotifierFunc) Publish(playerID string, event entity.Event) {
	that(playerID, event)
}

// Timing - delays of the end of match animation.
type Timing struct {
	BlinkInterval    time.Duration
	BlinkCount       int
	DrawRestartDelay time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		BlinkInterval:    500 * time.Millisecond,
		BlinkCount:       9,
		DrawRestartDelay: time.Second,
	}
}

type Option func(*SessionManager)

func WithClock(clock quartz.Clock) Option {
	return func(manager *SessionManager) {
		manager.clock = clock
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(manager *SessionManager) {
		manager.notifier = notifier
	}
}

// WithBotOptions is applied to every bot the manager creates.
func WithBotOptions(opts ...tictactoe.BotOption) Option {
	return func(manager *SessionManager) {
		manager.botOptions = append(manager.botOptions, opts...)
	}
}

// SessionManager - runs one tic-tac-toe game against the bot per player.
type SessionManager struct {
	logger   *slog.Logger
	clock    quartz.Clock
	notifier Notifier
	timing   Timing

	playerRepo   playerRepo
	sessionRepo  sessionRepo
	settingsRepo settingsRepo
	historyRepo  historyRepo

	botOptions []tictactoe.BotOption

	mu    sync.Mutex
	games map[string]*game
}

func NewSessionManager(
	logger *slog.Logger,
	timing Timing,
	playerRepo playerRepo,
	sessionRepo sessionRepo,
	settingsRepo settingsRepo,
	historyRepo historyRepo,
	opts ...Option,
) *SessionManager {
	manager := &SessionManager{
		logger:       logger,
		clock:        quartz.NewReal(),
		notifier:     NotifierFunc(func(string, entity.Event) {}),
		timing:       timing,
		playerRepo:   playerRepo,
		sessionRepo:  sessionRepo,
		settingsRepo: settingsRepo,
		historyRepo:  historyRepo,
		games:        make(map[string]*game),
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

func (that *SessionManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		player, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player: %w", err)
		}

		return player, nil
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

func (that *SessionManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	player := &entity.Player{
		ID:        uuid.NewString(),
		CreatedAt: that.clock.Now().UTC(),
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

// StartSession resumes the player's game or starts the first match.
func (that *SessionManager) StartSession(ctx context.Context, playerID string) (*entity.Session, error) {
	log := that.logger.With("method", "StartSession", "player_id", playerID)

	if existing, err := that.getGame(playerID); err == nil {
		return existing.snapshot(), nil
	}

	settings, err := that.settingsRepo.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	g := that.newGame(playerID, settings)

	g.mu.Lock()
	defer g.mu.Unlock()

	stored, err := that.sessionRepo.GetByPlayerID(ctx, playerID)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		g.controller.StartNewMatch()
		log.Info("new session")
	case err != nil:
		return nil, fmt.Errorf("failed to get session: %w", err)
	default:
		if err = g.restore(stored); err != nil {
			return nil, fmt.Errorf("failed to restore session: %w", err)
		}

		// the end of match animation does not survive a restart
		if g.controller.IsBlocked() {
			g.controller.StartNewMatch()
		}

		log.Info("session restored", "match", g.controller.MatchNumber())
	}

	if err = that.playBot(g); err != nil {
		return nil, err
	}

	that.mu.Lock()
	existing, ok := that.games[playerID]
	if !ok {
		that.games[playerID] = g
	}
	that.mu.Unlock()

	if ok {
		// a concurrent call registered its game first
		g.closed = true
		g.cancelTimer()

		return existing.snapshot(), nil
	}

	session := g.session()
	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// MakeTurn plays the human move and the bot's answer.
func (that *SessionManager) MakeTurn(ctx context.Context, playerID string, position entity.CellPosition) (*entity.Session, error) {
	g, err := that.getGame(playerID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.session()
	if err = current.ConfirmOngoingState(); err != nil {
		return current, err
	}

	if !current.IsHumanTurn() {
		return current, apperror.ErrNotYourTurn
	}

	if !position.Valid() {
		return current, fmt.Errorf("%w: %s", entity.ErrInvalidCell, position)
	}

	if !g.controller.IsEmptyBoardPosition(position) {
		return current, apperror.ErrCellOccupied
	}

	g.human.SetPosition(position)
	if _, err = g.controller.MakeTheMove(g.human); err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	if err = that.playBot(g); err != nil {
		return nil, err
	}

	session := g.session()
	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if !session.Blocked {
		g.publish(entity.Event{Type: entity.EventMove, Session: session}, entity.SoundMove)
	}

	return session, nil
}

// ChangeDifficulty stores the level and restarts the match against the new bot, keeping the scores.
func (that *SessionManager) ChangeDifficulty(ctx context.Context, playerID string, level entity.DifficultyLevel) (*entity.Session, error) {
	settings, err := that.settingsRepo.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	settings.Difficulty = level
	if err = that.settingsRepo.Save(ctx, playerID, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	g, err := that.getGame(playerID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.controller.Block()
	g.cancelTimer()
	g.bot.ChangeDifficultyLevel(level)

	session, err := that.startNewMatch(ctx, g)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (that *SessionManager) SetSoundEffect(ctx context.Context, playerID string, on bool) (entity.Settings, error) {
	settings, err := that.settingsRepo.Get(ctx, playerID)
	if err != nil {
		return settings, fmt.Errorf("failed to get settings: %w", err)
	}

	settings.SoundEffect = on
	if err = that.settingsRepo.Save(ctx, playerID, settings); err != nil {
		return settings, fmt.Errorf("failed to save settings: %w", err)
	}

	if g, err := that.getGame(playerID); err == nil {
		g.mu.Lock()
		g.sound = on
		g.mu.Unlock()
	}

	return settings, nil
}

func (that *SessionManager) Settings(ctx context.Context, playerID string) (entity.Settings, error) {
	settings, err := that.settingsRepo.Get(ctx, playerID)
	if err != nil {
		return settings, fmt.Errorf("failed to get settings: %w", err)
	}

	return settings, nil
}

// SaveSettings replaces both settings at once and applies them to a running game.
func (that *SessionManager) SaveSettings(ctx context.Context, playerID string, settings entity.Settings) (entity.Settings, error) {
	current, err := that.Settings(ctx, playerID)
	if err != nil {
		return current, err
	}

	if current.Difficulty != settings.Difficulty {
		if _, err = that.ChangeDifficulty(ctx, playerID, settings.Difficulty); err != nil && !errors.Is(err, apperror.ErrNoActiveSession) {
			return current, err
		}
	}

	return that.SetSoundEffect(ctx, playerID, settings.SoundEffect)
}

// Session returns the running game, or the stored one when the player is not connected.
func (that *SessionManager) Session(ctx context.Context, playerID string) (*entity.Session, error) {
	if g, err := that.getGame(playerID); err == nil {
		return g.snapshot(), nil
	}

	session, err := that.sessionRepo.GetByPlayerID(ctx, playerID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, apperror.ErrNoActiveSession
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// CloseSession stops pending timers and forgets the game.
func (that *SessionManager) CloseSession(ctx context.Context, playerID string) (*entity.Session, error) {
	log := that.logger.With("method", "CloseSession", "player_id", playerID)

	that.mu.Lock()
	g, ok := that.games[playerID]
	delete(that.games, playerID)
	that.mu.Unlock()

	if !ok {
		return nil, apperror.ErrNoActiveSession
	}

	g.mu.Lock()
	g.closed = true
	g.cancelTimer()
	session := g.session()
	g.mu.Unlock()

	if err := that.sessionRepo.DeleteByPlayerID(ctx, playerID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	log.Info("session closed", "human_score", session.HumanScore, "bot_score", session.BotScore)

	return session, nil
}

// Disconnect forgets the running game but keeps it stored, so StartSession can resume it.
func (that *SessionManager) Disconnect(playerID string) {
	that.mu.Lock()
	g, ok := that.games[playerID]
	delete(that.games, playerID)
	that.mu.Unlock()

	if !ok {
		return
	}

	g.mu.Lock()
	g.closed = true
	g.cancelTimer()
	g.mu.Unlock()
}

func (that *SessionManager) Stats(ctx context.Context, playerID string) (entity.Stats, error) {
	stats, err := that.historyRepo.Stats(ctx, playerID)
	if err != nil {
		return stats, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}

// History returns the player's latest finished matches, newest first.
func (that *SessionManager) History(ctx context.Context, playerID string, limit int) ([]entity.MatchRecord, error) {
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}

	records, err := that.historyRepo.ListByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	return records, nil
}

func (that *SessionManager) getGame(playerID string) (*game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	g, ok := that.games[playerID]
	if !ok {
		return nil, apperror.ErrNoActiveSession
	}

	return g, nil
}

func (that *SessionManager) newGame(playerID string, settings entity.Settings) *game {
	humanMark := entity.MarkX

	g := &game{
		manager:  that,
		playerID: playerID,
		sound:    settings.SoundEffect,
		human:    tictactoe.NewHumanPlayer(humanMark),
		bot:      tictactoe.NewBot(humanMark.Opponent(), humanMark, settings.Difficulty, that.botOptions...),
	}
	g.controller = tictactoe.NewGameController(g.human, g.bot, g)

	return g
}

// playBot lets the bot move while it holds the turn. g.mu must be held.
func (that *SessionManager) playBot(g *game) error {
	if g.controller.IsBlocked() || g.controller.CurrentPlayer() != g.bot {
		return nil
	}

	if _, err := g.controller.MakeTheMove(g.bot); err != nil {
		return fmt.Errorf("failed to make bot turn: %w", err)
	}

	return nil
}

// startNewMatch clears the board, lets the bot open when it is its turn and stores the result. g.mu must be held.
func (that *SessionManager) startNewMatch(ctx context.Context, g *game) (*entity.Session, error) {
	g.controller.StartNewMatch()

	if err := that.playBot(g); err != nil {
		return nil, err
	}

	session := g.session()
	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	g.publish(entity.Event{Type: entity.EventMatchNew, Session: session}, entity.SoundStart)

	return session, nil
}

func (that *SessionManager) recordMatch(g *game, winner entity.Mark, line entity.BoardLine) {
	log := that.logger.With("method", "recordMatch", "player_id", g.playerID)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	record := &entity.MatchRecord{
		PlayerID:    g.playerID,
		MatchNumber: g.controller.MatchNumber(),
		Winner:      winner,
		HumanMark:   g.human.Label(),
		Line:        line,
		Difficulty:  g.bot.DifficultyLevel(),
		FinishedAt:  that.clock.Now().UTC(),
	}

	if err := that.historyRepo.Save(ctx, record); err != nil {
		log.Error("failed to save match", "error", err)
	}
}
