package game

import (
	"fmt"
	"spy-game/internal/domain"
)

// RoleCard is what the current player sees when their role is revealed.
type RoleCard struct {
	PlayerID   int              `json:"player_id"`
	Name       string           `json:"name"`
	Avatar     string           `json:"avatar"`
	Role       domain.Role      `json:"role"`
	Word       string           `json:"word,omitempty"`
	KnownSpies []string         `json:"known_spies,omitempty"`
	MapLocked  bool             `json:"map_locked"`
	MapZones   []domain.MapZone `json:"map_zones,omitempty"`
}

// RevealRole shows the current player's role.
func (s *Session) RevealRole() (RoleCard, error) {
	if s.phase != PhaseReveal {
		return RoleCard{}, fmt.Errorf("%w: reveal in %s", ErrInvalidTransition, s.phase)
	}
	s.roleVisible = true
	return s.roleCard(s.players[s.revealIndex]), nil
}

func (s *Session) roleCard(p domain.Player) RoleCard {
	card := RoleCard{
		PlayerID: p.ID,
		Name:     p.Name,
		Avatar:   p.Avatar,
		Role:     p.Role,
	}
	// Locked cards never carry map zones.
	switch p.Role {
	case domain.RoleSpy:
		card.MapLocked = true
	case domain.RoleInsider:
		card.MapLocked = true
		card.KnownSpies = SpyNames(s.players)
	default:
		card.Word = s.word
		card.MapZones = s.mapZones
	}
	return card
}

// NextReveal hands the device to the next player. After the last player
// the wheel starts spinning and the returned phase is WHEEL.
func (s *Session) NextReveal() (Phase, error) {
	if s.phase != PhaseReveal {
		return s.phase, fmt.Errorf("%w: advance reveal in %s", ErrInvalidTransition, s.phase)
	}
	if !s.roleVisible {
		return s.phase, ErrRoleNotRevealed
	}
	s.roleVisible = false
	if s.revealIndex < len(s.players)-1 {
		s.revealIndex++
		return s.phase, nil
	}
	s.phase = PhaseWheel
	s.wheelSpinning = true
	s.starter = -1
	return s.phase, nil
}

// RevealCursor returns the index of the player holding the device and
// whether their role is currently shown.
func (s *Session) RevealCursor() (int, bool) {
	return s.revealIndex, s.roleVisible
}
