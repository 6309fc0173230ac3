package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand"
	"spy-game/internal/api"
	"spy-game/internal/config"
	"spy-game/internal/constants"
	"spy-game/internal/domain"
	"spy-game/internal/events"
	"spy-game/internal/game"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrWrongPassphrase = errors.New("wrong passphrase")
)

// Timing controls the background schedule of every session.
type Timing struct {
	WheelSpin    time.Duration
	TickInterval time.Duration
}

// SessionView is a session snapshot tagged with its id.
type SessionView struct {
	ID string `json:"id"`
	game.Snapshot
	LastResult *RoundResult `json:"last_result,omitempty"`
}

// DeclareResult carries the settled round. PersistError is set when the
// round ended but writing it to the store failed.
type DeclareResult struct {
	Session      SessionView   `json:"session"`
	Outcome      *game.Outcome `json:"outcome"`
	Result       *RoundResult  `json:"result,omitempty"`
	PersistError string        `json:"persist_error,omitempty"`
}

type sessionEntry struct {
	mu         sync.Mutex
	id         string
	game       *game.Session
	wheel      *time.Timer
	ticking    bool
	lastActive time.Time
	lastResult *RoundResult
	pending    *pendingResult
}

// pendingResult is a settled round whose store writes did not finish.
type pendingResult struct {
	outcome *game.Outcome
	result  *RoundResult
}

type GameService struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	categories *CategoryService
	results    *ResultService
	generator  api.Generator
	hub        *events.Hub
	cfg        *config.Config

	timing  Timing
	newRand func() *rand.Rand
	done    chan struct{}
	wg      sync.WaitGroup
	logger  zerolog.Logger
}

func NewGameService(
	categories *CategoryService,
	results *ResultService,
	generator api.Generator,
	hub *events.Hub,
	cfg *config.Config,
	logger zerolog.Logger,
) *GameService {
	return &GameService{
		sessions:   make(map[string]*sessionEntry),
		categories: categories,
		results:    results,
		generator:  generator,
		hub:        hub,
		cfg:        cfg,
		timing: Timing{
			WheelSpin:    constants.WheelSpinDuration,
			TickInterval: constants.TimerTickInterval,
		},
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (s *GameService) SetTiming(t Timing) {
	s.timing = t
}

// SetRandSource makes new sessions draw from seeded sources.
func (s *GameService) SetRandSource(seed int64) {
	var mu sync.Mutex
	s.newRand = func() *rand.Rand {
		mu.Lock()
		defer mu.Unlock()
		seed++
		return rand.New(rand.NewSource(seed))
	}
}

// Close stops every pending wheel and countdown and waits for background
// work to drain.
func (s *GameService) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)

	s.mu.RLock()
	for _, e := range s.sessions {
		e.mu.Lock()
		s.stopWheel(e)
		e.mu.Unlock()
	}
	s.mu.RUnlock()

	s.wg.Wait()
	s.logger.Info().Msg("game service stopped")
}

func (s *GameService) Create(ctx context.Context) (*SessionView, error) {
	id, err := gonanoid.New(constants.SessionIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	e := &sessionEntry{
		id:         id,
		game:       game.NewSession(s.newRand()),
		lastActive: time.Now(),
	}

	s.mu.Lock()
	s.pruneLocked(e.lastActive)
	s.sessions[id] = e
	total := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info().Str("session_id", id).Int("sessions", total).Msg("session created")

	view := s.view(e)
	return &view, nil
}

// pruneLocked drops sessions idle for longer than the retention window.
func (s *GameService) pruneLocked(now time.Time) {
	for id, e := range s.sessions {
		e.mu.Lock()
		idle := now.Sub(e.lastActive)
		e.mu.Unlock()
		if idle > constants.SessionIdleRetention {
			delete(s.sessions, id)
			s.hub.Close(id)
			s.logger.Debug().Str("session_id", id).Dur("idle", idle).Msg("session pruned")
		}
	}
}

func (s *GameService) Exists(sessionID string) bool {
	_, err := s.lookup(sessionID)
	return err == nil
}

func (s *GameService) lookup(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return e, nil
}

// do runs fn under the session lock and announces a phase change.
func (s *GameService) do(sessionID string, fn func(e *sessionEntry) error) (*SessionView, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastActive = time.Now()
	before := e.game.Phase()

	if err := fn(e); err != nil {
		s.logger.Debug().Err(err).Str("session_id", sessionID).Str("phase", string(before)).Msg("session operation rejected")
		return nil, err
	}

	if after := e.game.Phase(); after != before {
		s.logger.Info().
			Str("session_id", sessionID).
			Str("from", string(before)).
			Str("to", string(after)).
			Msg("phase changed")
		s.publish(e, events.TypePhase, nil)
	}

	view := s.view(e)
	return &view, nil
}

// publish must be called with e.mu held.
func (s *GameService) publish(e *sessionEntry, typ events.Type, data any) {
	s.hub.Publish(events.Event{
		Type:      typ,
		SessionID: e.id,
		Round:     e.game.Round(),
		Phase:     string(e.game.Phase()),
		TimeLeft:  e.game.TimeLeft(),
		Data:      data,
	})
}

func (s *GameService) view(e *sessionEntry) SessionView {
	v := SessionView{ID: e.id, Snapshot: e.game.Snapshot()}
	if e.game.Phase() == game.PhaseEnd {
		v.LastResult = e.lastResult
	}
	return v
}

func (s *GameService) Get(sessionID string) (*SessionView, error) {
	return s.do(sessionID, func(*sessionEntry) error { return nil })
}

func (s *GameService) Navigate(sessionID string, target game.Phase) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		return e.game.Navigate(target)
	})
}

func (s *GameService) ReturnToMenu(sessionID string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		if err := e.game.ReturnToMenu(); err != nil {
			return err
		}
		s.stopWheel(e)
		return nil
	})
}

// AdminLogin checks the history passphrase from ADMIN_LOGIN. A wrong
// passphrase leaves the session where it was.
func (s *GameService) AdminLogin(sessionID, passphrase string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		if e.game.Phase() != game.PhaseAdminLogin {
			return fmt.Errorf("%w: admin login in %s", game.ErrInvalidTransition, e.game.Phase())
		}
		if subtle.ConstantTimeCompare([]byte(passphrase), []byte(s.cfg.AdminPassphrase)) != 1 {
			s.logger.Warn().Str("session_id", sessionID).Msg("admin login rejected")
			return ErrWrongPassphrase
		}
		return e.game.UnlockHistory()
	})
}

func (s *GameService) AddPlayer(sessionID, name string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		return e.game.AddPlayer(name)
	})
}

func (s *GameService) RemovePlayer(sessionID string, index int) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		return e.game.RemovePlayer(index)
	})
}

func (s *GameService) CycleAvatar(sessionID string, index int) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		_, err := e.game.CycleAvatar(index)
		return err
	})
}

// Configure applies setup choices. An unknown category or difficulty is
// rejected before anything changes. The recorded difficulty always follows
// the selected category.
func (s *GameService) Configure(ctx context.Context, sessionID string, settings game.Settings) (*SessionView, error) {
	if settings.Difficulty != "" && !settings.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: got %q", game.ErrInvalidDifficulty, settings.Difficulty)
	}
	settings.Difficulty = ""
	if settings.Category != "" {
		info, err := s.categories.Resolve(ctx, settings.Category)
		if err != nil {
			return nil, err
		}
		settings.Difficulty = info.Difficulty
	}
	return s.do(sessionID, func(e *sessionEntry) error {
		return e.game.Configure(settings)
	})
}

// StartGame deals a round from the selected category and starts map
// generation in the background.
func (s *GameService) StartGame(ctx context.Context, sessionID string) (*SessionView, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	category := e.game.Settings().Category
	e.mu.Unlock()

	words, err := s.categories.Words(ctx, category)
	if err != nil {
		return nil, err
	}

	var round int
	var word string
	view, err := s.do(sessionID, func(e *sessionEntry) error {
		if err := e.game.StartGame(words); err != nil {
			return err
		}
		e.lastResult = nil
		e.pending = nil
		round, word = e.game.Round(), e.game.Word()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("round", round).
		Str("category", category).
		Int("players", len(view.Seats)).
		Msg("game started")

	s.wg.Add(1)
	go s.generateMap(e, round, word)

	return view, nil
}

func (s *GameService) generateMap(e *sessionEntry, round int, word string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), constants.GenerationTimeout)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	zones, err := s.generator.GenerateMapZones(ctx, word)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", e.id).Int("round", round).Msg("map generation failed, using fallback zones")
		zones = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.game.ApplyMapZones(round, zones) {
		s.logger.Debug().Str("session_id", e.id).Int("round", round).Msg("discarding map zones for stale round")
		return
	}
	applied, _ := e.game.MapZones()
	s.publish(e, events.TypeMapReady, map[string]any{"zones": len(applied)})
}

func (s *GameService) RevealRole(sessionID string) (*game.RoleCard, error) {
	var card game.RoleCard
	_, err := s.do(sessionID, func(e *sessionEntry) error {
		var err error
		card, err = e.game.RevealRole()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// NextReveal passes the device on. Once everyone has seen their role the
// wheel spins and stops by itself after the spin duration.
func (s *GameService) NextReveal(sessionID string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		phase, err := e.game.NextReveal()
		if err != nil {
			return err
		}
		if phase == game.PhaseWheel {
			s.spinWheel(e)
		}
		return nil
	})
}

// spinWheel must be called with e.mu held.
func (s *GameService) spinWheel(e *sessionEntry) {
	round := e.game.Round()
	s.stopWheel(e)
	s.wg.Add(1)
	e.wheel = time.AfterFunc(s.timing.WheelSpin, func() {
		defer s.wg.Done()
		s.finishWheel(e, round)
	})
}

// stopWheel must be called with e.mu held.
func (s *GameService) stopWheel(e *sessionEntry) {
	if e.wheel != nil && e.wheel.Stop() {
		s.wg.Done()
	}
	e.wheel = nil
}

func (s *GameService) finishWheel(e *sessionEntry, round int) {
	select {
	case <-s.done:
		return
	default:
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.game.Round() != round || !e.game.WheelSpinning() {
		return
	}
	starter, err := e.game.FinishWheel()
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", e.id).Msg("failed to stop wheel")
		return
	}

	s.logger.Info().Str("session_id", e.id).Str("starter", starter.Name).Msg("wheel stopped")
	s.publish(e, events.TypeWheelStopped, map[string]any{"starter_id": starter.ID, "starter": starter.Name})
	s.startTicker(e)
}

// startTicker must be called with e.mu held. At most one countdown runs
// per session.
func (s *GameService) startTicker(e *sessionEntry) {
	if e.ticking || !e.game.TimerActive() {
		return
	}
	e.ticking = true
	round := e.game.Round()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.timing.TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				e.mu.Lock()
				e.ticking = false
				e.mu.Unlock()
				return
			case <-ticker.C:
			}

			if !s.tick(e, round) {
				return
			}
		}
	}()
}

// tick advances the countdown once and reports whether it should keep
// running.
func (s *GameService) tick(e *sessionEntry, round int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.game.Round() != round || !e.game.TimerActive() {
		e.ticking = false
		return false
	}

	expired := e.game.Tick()
	s.publish(e, events.TypeTick, nil)
	if expired {
		e.ticking = false
		s.logger.Info().Str("session_id", e.id).Int("round", round).Msg("timer expired")
		s.publish(e, events.TypeTimerExpired, nil)
		return false
	}
	return true
}

func (s *GameService) ConfirmStart(sessionID string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		return e.game.ConfirmStart()
	})
}

func (s *GameService) PauseTimer(sessionID string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		return e.game.PauseTimer()
	})
}

func (s *GameService) ResumeTimer(sessionID string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		if err := e.game.ResumeTimer(); err != nil {
			return err
		}
		s.startTicker(e)
		return nil
	})
}

func (s *GameService) StartVoting(sessionID string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		return e.game.StartVoting()
	})
}

func (s *GameService) SubmitBallot(sessionID string, targets []int) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		_, err := e.game.SubmitBallot(targets)
		return err
	})
}

func (s *GameService) Abstain(sessionID string) (*SessionView, error) {
	return s.do(sessionID, func(e *sessionEntry) error {
		_, err := e.game.Abstain()
		return err
	})
}

// DeclareWinner ends the round and records it. A store failure does not
// undo the transition; it is reported in the result instead, and declaring
// the same side again finishes the writes that were left out.
func (s *GameService) DeclareWinner(ctx context.Context, sessionID string, side domain.Winner) (*DeclareResult, error) {
	var outcome *game.Outcome
	var prior *RoundResult
	view, err := s.do(sessionID, func(e *sessionEntry) error {
		var err error
		outcome, err = e.game.DeclareWinner(side)
		if errors.Is(err, game.ErrAlreadySettled) && e.pending != nil && e.pending.outcome.Winner == side {
			outcome, prior = e.pending.outcome, e.pending.result
			e.pending = nil
			s.logger.Info().Str("session_id", sessionID).Int("round", outcome.Round).Msg("retrying round record")
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &DeclareResult{Session: *view, Outcome: outcome}

	result, err := s.results.Resume(ctx, outcome, prior)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Int("round", outcome.Round).Msg("failed to record round")
		res.PersistError = err.Error()
		s.settle(sessionID, outcome.Round, func(e *sessionEntry) {
			e.pending = &pendingResult{outcome: outcome, result: result}
		}, res)
		return res, nil
	}
	res.Result = result

	s.settle(sessionID, outcome.Round, func(e *sessionEntry) {
		e.lastResult = result
	}, res)
	return res, nil
}

// settle records the store outcome on a session that is still in round and
// refreshes the view in res.
func (s *GameService) settle(sessionID string, round int, fn func(e *sessionEntry), res *DeclareResult) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.game.Round() == round {
		fn(e)
	}
	res.Session = s.view(e)
}
