package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/tictactoe"
)

// game - a player's controller with its bot and the pending end of match timer.
type game struct {
	manager  *SessionManager
	playerID string

	mu         sync.Mutex
	controller *tictactoe.GameController
	human      *tictactoe.HumanPlayer
	bot        *tictactoe.Bot
	sound      bool
	closed     bool

	timer *quartz.Timer
	// epoch invalidates timers that were already firing when they got cancelled.
	epoch int
}

// session builds the player's view of the game. g.mu must be held.
func (that *game) session() *entity.Session {
	state := that.controller.Snapshot()

	status := entity.StatusOngoing
	if that.closed {
		status = entity.StatusFinished
	}

	return &entity.Session{
		PlayerID:    that.playerID,
		Board:       state.Board,
		Turn:        state.Turn,
		HumanMark:   that.human.Label(),
		BotMark:     that.bot.Label(),
		Difficulty:  that.bot.DifficultyLevel(),
		HumanScore:  state.Player1Score,
		BotScore:    state.Player2Score,
		MatchNumber: state.MatchNumber,
		Blocked:     state.Blocked,
		Status:      status,
		Winner:      state.Winner,
		WinLine:     state.WinLine,
	}
}

func (that *game) snapshot() *entity.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.session()
}

func (that *game) restore(session *entity.Session) error {
	return that.controller.Restore(tictactoe.State{
		Board:        session.Board,
		Turn:         session.Turn,
		Player1Score: session.HumanScore,
		Player2Score: session.BotScore,
		MatchNumber:  session.MatchNumber,
		Blocked:      session.Blocked,
		Winner:       session.Winner,
		WinLine:      session.WinLine,
	})
}

func (that *game) publish(event entity.Event, sound string) {
	if that.sound {
		event.Sound = sound
	}

	that.manager.notifier.Publish(that.playerID, event)
}

// OnWinning runs inside MakeTheMove, so g.mu is already held by the caller.
func (that *game) OnWinning(winner tictactoe.Player, line entity.BoardLine) {
	that.manager.recordMatch(that, winner.Label(), line)

	that.publish(entity.Event{Type: entity.EventMatchWin, Session: that.session()}, entity.SoundWin)
	that.blink(0)
}

// OnFillingBoard runs inside MakeTheMove, so g.mu is already held by the caller.
func (that *game) OnFillingBoard() {
	that.manager.recordMatch(that, entity.Tie, entity.NoLine)

	that.publish(entity.Event{Type: entity.EventMatchDraw, Session: that.session()}, "")
	that.schedule(that.manager.timing.DrawRestartDelay, "draw", that.restart)
}

// blink shows and hides the winning line, then starts the next match.
func (that *game) blink(step int) {
	if step >= that.manager.timing.BlinkCount {
		that.restart()
		return
	}

	that.publish(entity.Event{
		Type:      entity.EventMatchBlink,
		Session:   that.session(),
		Highlight: step%2 == 0,
	}, "")

	that.schedule(that.manager.timing.BlinkInterval, "blink", func() {
		that.blink(step + 1)
	})
}

func (that *game) restart() {
	log := that.manager.logger.With("method", "restart", "player_id", that.playerID)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if _, err := that.manager.startNewMatch(ctx, that); err != nil {
		log.Error("failed to start new match", "error", err)
	}
}

// schedule replaces the pending timer. fn runs with g.mu held.
func (that *game) schedule(delay time.Duration, tag string, fn func()) {
	that.cancelTimer()

	epoch := that.epoch
	that.timer = that.manager.clock.AfterFunc(delay, func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		if that.closed || that.epoch != epoch {
			return
		}

		that.timer = nil
		fn()
	}, "session", tag)
}

func (that *game) cancelTimer() {
	that.epoch++

	if that.timer != nil {
		that.timer.Stop()
		that.timer = nil
	}
}
