package game

import (
	"fmt"
	"spy-game/internal/domain"
)

// FinishWheel stops the wheel on a uniformly random starter and arms the
// discussion timer. The countdown is reset only the first time per game.
func (s *Session) FinishWheel() (domain.Player, error) {
	if s.phase != PhaseWheel || !s.wheelSpinning {
		return domain.Player{}, fmt.Errorf("%w: wheel is not spinning", ErrInvalidTransition)
	}
	s.starter = s.rng.Intn(len(s.players))
	s.wheelSpinning = false
	if !s.timerArmed {
		s.timeLeft = s.settings.TimerDuration
		s.timerArmed = true
	}
	s.timerActive = s.timeLeft > 0
	return s.players[s.starter], nil
}

// Starter returns the player chosen to ask the first question.
func (s *Session) Starter() (domain.Player, bool) {
	if s.starter < 0 || s.starter >= len(s.players) {
		return domain.Player{}, false
	}
	return s.players[s.starter], true
}

func (s *Session) ConfirmStart() error {
	if s.phase != PhaseWheel {
		return fmt.Errorf("%w: confirm start in %s", ErrInvalidTransition, s.phase)
	}
	if s.wheelSpinning {
		return ErrWheelSpinning
	}
	s.phase = PhasePlaying
	return nil
}

// Tick advances the countdown by one second. It reports true exactly once,
// on the tick that reaches zero. The round itself continues.
func (s *Session) Tick() bool {
	if !s.timerActive {
		return false
	}
	if s.timeLeft > 0 {
		s.timeLeft--
	}
	if s.timeLeft == 0 {
		s.timerActive = false
		return true
	}
	return false
}

func (s *Session) PauseTimer() error {
	if s.phase != PhasePlaying {
		return fmt.Errorf("%w: pause in %s", ErrInvalidTransition, s.phase)
	}
	s.timerActive = false
	return nil
}

func (s *Session) ResumeTimer() error {
	if s.phase != PhasePlaying {
		return fmt.Errorf("%w: resume in %s", ErrInvalidTransition, s.phase)
	}
	s.timerActive = s.timeLeft > 0
	return nil
}
