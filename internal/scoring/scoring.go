// Package scoring settles finished rounds into score increments and
// achievement grants.
//
// Awards follow a tiered scheme: citizen-side winners earn CitizenWinPoints,
// a winning detective earns DetectiveWinPoints and every winning spy earns
// SpyWinPoints. Losers earn nothing.
package scoring

import (
	"spy-game/internal/domain"
)

const (
	CitizenWinPoints   = 10
	DetectiveWinPoints = 15
	SpyWinPoints       = 20
)

type Settlement struct {
	Winner       domain.Winner
	SpecialRoles domain.SpecialRoles
	ScoreDeltas  map[string]int
	Grants       map[string][]domain.AchievementID
}

// Winners returns the players on the winning side, in roster order.
func Winners(players []domain.Player, winner domain.Winner) []domain.Player {
	var out []domain.Player
	for _, p := range players {
		if winner.Won(p.Role) {
			out = append(out, p)
		}
	}
	return out
}

// Points is the score increment for a player with role on the winning side.
func Points(role domain.Role) int {
	switch role {
	case domain.RoleSpy:
		return SpyWinPoints
	case domain.RoleDetective:
		return DetectiveWinPoints
	default:
		return CitizenWinPoints
	}
}

// Settle computes the score increments and achievement grants for a round.
// Grants depend on the roles actually dealt, not on which special roles
// were enabled.
func Settle(players []domain.Player, winner domain.Winner, specialRoles domain.SpecialRoles) Settlement {
	s := Settlement{
		Winner:       winner,
		SpecialRoles: specialRoles,
		ScoreDeltas:  make(map[string]int),
		Grants:       make(map[string][]domain.AchievementID),
	}

	for _, p := range Winners(players, winner) {
		s.ScoreDeltas[p.Name] += Points(p.Role)
		s.Grants[p.Name] = Achievements(p.Role, winner)
	}

	return s
}

// Achievements lists what a winner with role earns for winner's side.
// FIRST_WIN is always included; the store ignores repeat grants.
func Achievements(role domain.Role, winner domain.Winner) []domain.AchievementID {
	grants := []domain.AchievementID{domain.AchievementFirstWin}

	switch winner {
	case domain.WinnerSpies:
		grants = append(grants, domain.AchievementSpyMaster, domain.AchievementSilverTongue)
	case domain.WinnerCitizens:
		switch role {
		case domain.RoleDetective:
			grants = append(grants, domain.AchievementDetectivePro)
		case domain.RoleCitizen:
			grants = append(grants, domain.AchievementSharpEye)
		case domain.RoleInsider:
			grants = append(grants, domain.AchievementInsiderHero)
		}
	}

	return grants
}
