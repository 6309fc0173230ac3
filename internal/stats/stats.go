package stats

import (
	"math"
	"sort"
	"spy-game/internal/domain"
)

type PlayerStats struct {
	Name       string              `json:"name"`
	Wins       int                 `json:"wins"`
	Total      int                 `json:"total"`
	RoleCounts map[domain.Role]int `json:"role_counts"`
}

// WinRate is the rounded win percentage, 0 when no games were played.
func (p PlayerStats) WinRate() int {
	if p.Total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(p.Wins) / float64(p.Total)))
}

// Compute folds the history log into per-player totals. Players only
// appear once they have at least one recorded game.
func Compute(history []domain.HistoryEntry) map[string]PlayerStats {
	out := make(map[string]PlayerStats)
	for _, entry := range history {
		for _, p := range entry.Players {
			s, ok := out[p.Name]
			if !ok {
				s = PlayerStats{Name: p.Name, RoleCounts: make(map[domain.Role]int)}
			}
			s.Total++
			s.RoleCounts[p.Role]++
			if entry.Winner.Won(p.Role) {
				s.Wins++
			}
			out[p.Name] = s
		}
	}
	return out
}

// Ranked orders stats by win rate, then games played, then name.
func Ranked(all map[string]PlayerStats) []PlayerStats {
	out := make([]PlayerStats, 0, len(all))
	for _, s := range all {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := out[i].WinRate(), out[j].WinRate(); a != b {
			return a > b
		}
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}
