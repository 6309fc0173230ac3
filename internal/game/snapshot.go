package game

import (
	"spy-game/internal/domain"
)

// SeatView is a player as shown on shared screens; Role is only filled in
// once the round has ended.
type SeatView struct {
	ID     int         `json:"id"`
	Name   string      `json:"name"`
	Avatar string      `json:"avatar"`
	Role   domain.Role `json:"role,omitempty"`
}

type Snapshot struct {
	Phase         Phase            `json:"phase"`
	Round         int              `json:"round"`
	Roster        []string         `json:"roster"`
	Avatars       []string         `json:"avatars"`
	Settings      Settings         `json:"settings"`
	Seats         []SeatView       `json:"seats,omitempty"`
	RevealIndex   int              `json:"reveal_index"`
	RoleVisible   bool             `json:"role_visible"`
	MapGenerating bool             `json:"map_generating"`
	WheelSpinning bool             `json:"wheel_spinning"`
	Starter       *SeatView        `json:"starter,omitempty"`
	TimeLeft      int              `json:"time_left"`
	TimerActive   bool             `json:"timer_active"`
	VotingIndex   int              `json:"voting_index"`
	Voter         *SeatView        `json:"voter,omitempty"`
	BallotsCast   int              `json:"ballots_cast"`
	Tally         map[int]int      `json:"tally,omitempty"`
	Word          string           `json:"word,omitempty"`
	Winner        domain.Winner    `json:"winner,omitempty"`
	MapZones      []domain.MapZone `json:"map_zones,omitempty"`
}

// Snapshot returns a copy of the session safe to hand to renderers.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:         s.phase,
		Round:         s.round,
		Roster:        s.Roster(),
		Settings:      s.settings,
		RevealIndex:   s.revealIndex,
		RoleVisible:   s.roleVisible,
		MapGenerating: s.mapGenerating,
		WheelSpinning: s.wheelSpinning,
		TimeLeft:      s.timeLeft,
		TimerActive:   s.timerActive,
		VotingIndex:   s.votingIndex,
		BallotsCast:   len(s.ballots),
	}

	snap.Avatars = make([]string, len(s.names))
	for i, name := range s.names {
		if a := s.avatars[name]; a != "" {
			snap.Avatars[i] = a
		} else {
			snap.Avatars[i] = DefaultAvatar(i)
		}
	}

	ended := s.phase == PhaseEnd
	for _, p := range s.players {
		seat := SeatView{ID: p.ID, Name: p.Name, Avatar: p.Avatar}
		if ended {
			seat.Role = p.Role
		}
		snap.Seats = append(snap.Seats, seat)
	}

	if p, ok := s.Starter(); ok {
		snap.Starter = &SeatView{ID: p.ID, Name: p.Name, Avatar: p.Avatar}
	}
	if p, ok := s.CurrentVoter(); ok {
		snap.Voter = &SeatView{ID: p.ID, Name: p.Name, Avatar: p.Avatar}
	}

	if ended {
		snap.Tally = s.Tally()
		snap.Word = s.word
		snap.MapZones = s.mapZones
		if s.outcome != nil {
			snap.Winner = s.outcome.Winner
		}
	}

	return snap
}
