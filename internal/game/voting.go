package game

import (
	"fmt"
	"spy-game/internal/domain"
)

func (s *Session) StartVoting() error {
	if s.phase != PhasePlaying {
		return fmt.Errorf("%w: start voting in %s", ErrInvalidTransition, s.phase)
	}
	s.timerActive = false
	s.votingIndex = 0
	s.ballots = make(map[int][]int)
	s.phase = PhaseVoting
	return nil
}

// CurrentVoter returns the player whose ballot is being collected.
func (s *Session) CurrentVoter() (domain.Player, bool) {
	if s.phase != PhaseVoting {
		return domain.Player{}, false
	}
	return s.players[s.votingIndex], true
}

// SubmitBallot records the current voter's accusations. A ballot names
// exactly spyCount distinct players other than the voter.
func (s *Session) SubmitBallot(targets []int) (Phase, error) {
	if s.phase != PhaseVoting {
		return s.phase, fmt.Errorf("%w: vote in %s", ErrInvalidTransition, s.phase)
	}
	voter := s.players[s.votingIndex]
	if len(targets) != s.settings.SpyCount {
		return s.phase, fmt.Errorf("%w: need %d picks, got %d", ErrInvalidBallot, s.settings.SpyCount, len(targets))
	}
	seen := make(map[int]struct{}, len(targets))
	for _, id := range targets {
		if id < 0 || id >= len(s.players) {
			return s.phase, fmt.Errorf("%w: unknown player %d", ErrInvalidBallot, id)
		}
		if id == voter.ID {
			return s.phase, fmt.Errorf("%w: cannot accuse yourself", ErrInvalidBallot)
		}
		if _, dup := seen[id]; dup {
			return s.phase, fmt.Errorf("%w: duplicate pick %d", ErrInvalidBallot, id)
		}
		seen[id] = struct{}{}
	}

	ballot := make([]int, len(targets))
	copy(ballot, targets)
	s.ballots[voter.ID] = ballot
	return s.advanceVoter(), nil
}

// Abstain skips the current voter without recording a ballot.
func (s *Session) Abstain() (Phase, error) {
	if s.phase != PhaseVoting {
		return s.phase, fmt.Errorf("%w: abstain in %s", ErrInvalidTransition, s.phase)
	}
	return s.advanceVoter(), nil
}

func (s *Session) advanceVoter() Phase {
	if s.votingIndex < len(s.players)-1 {
		s.votingIndex++
		return s.phase
	}
	s.phase = PhaseEnd
	return s.phase
}

// Tally counts accusations per player id.
func (s *Session) Tally() map[int]int {
	counts := make(map[int]int, len(s.players))
	for _, ballot := range s.ballots {
		for _, id := range ballot {
			counts[id]++
		}
	}
	return counts
}

// DeclareWinner ends the round for side. It is accepted from PLAYING or
// from an END reached by voting, and only once per game.
func (s *Session) DeclareWinner(side domain.Winner) (*Outcome, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWinner, side)
	}
	switch {
	case s.phase == PhasePlaying:
	case s.phase == PhaseEnd && s.outcome == nil:
	case s.phase == PhaseEnd:
		return nil, ErrAlreadySettled
	default:
		return nil, fmt.Errorf("%w: declare winner in %s", ErrInvalidTransition, s.phase)
	}

	s.timerActive = false
	ballots := make(map[int][]int, len(s.ballots))
	for k, v := range s.ballots {
		ballots[k] = v
	}
	s.outcome = &Outcome{
		Round:        s.round,
		Players:      s.Players(),
		Winner:       side,
		SpyCount:     s.settings.SpyCount,
		Word:         s.word,
		Difficulty:   s.settings.Difficulty,
		SpecialRoles: s.settings.SpecialRoles,
		Ballots:      ballots,
	}
	s.phase = PhaseEnd
	return s.outcome, nil
}

func (s *Session) Outcome() (*Outcome, bool) {
	return s.outcome, s.outcome != nil
}
