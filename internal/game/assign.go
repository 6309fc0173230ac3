package game

import (
	"errors"
	"fmt"
	"math/rand"
	"spy-game/internal/constants"
	"spy-game/internal/domain"
	"strings"
)

var (
	ErrInvalidSpyCount = errors.New("spy count out of range")
	ErrInvalidRoster   = errors.New("player names must be non-empty and distinct")
)

// Avatars is the palette players cycle through during setup.
var Avatars = []string{"🕵️", "👤", "🕶️", "🤫", "📱", "💻", "🔍", "💼", "🔫", "💣", "🎭", "🔦"}

// DefaultAvatar returns the palette entry for a roster position.
func DefaultAvatar(index int) string {
	return Avatars[index%len(Avatars)]
}

// MaxSpies is the largest spy count a roster of n players allows.
func MaxSpies(n int) int {
	return n - 2
}

// AssignRoles builds the players for a round. Spies are placed by rejection
// sampling over the whole roster; the detective and insider are then drawn
// without replacement from the remaining citizens. avatars may be nil.
func AssignRoles(names []string, spyCount int, flags domain.SpecialRoles, avatars map[string]string, rng *rand.Rand) ([]domain.Player, error) {
	if err := validateRoster(names); err != nil {
		return nil, err
	}
	if spyCount < constants.MinSpies || spyCount > MaxSpies(len(names)) {
		return nil, fmt.Errorf("%w: %d spies for %d players", ErrInvalidSpyCount, spyCount, len(names))
	}

	players := make([]domain.Player, len(names))
	for i, name := range names {
		avatar := avatars[name]
		if avatar == "" {
			avatar = DefaultAvatar(i)
		}
		players[i] = domain.Player{ID: i, Name: name, Role: domain.RoleCitizen, Avatar: avatar}
	}

	for assigned := 0; assigned < spyCount; {
		idx := rng.Intn(len(players))
		if players[idx].Role == domain.RoleCitizen {
			players[idx].Role = domain.RoleSpy
			assigned++
		}
	}

	candidates := make([]int, 0, len(players))
	for i, p := range players {
		if p.Role == domain.RoleCitizen {
			candidates = append(candidates, i)
		}
	}

	draw := func(role domain.Role) {
		if len(candidates) == 0 {
			return
		}
		k := rng.Intn(len(candidates))
		players[candidates[k]].Role = role
		candidates = append(candidates[:k], candidates[k+1:]...)
	}

	if flags.Detective {
		draw(domain.RoleDetective)
	}
	if flags.Insider {
		draw(domain.RoleInsider)
	}

	return players, nil
}

func validateRoster(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return ErrInvalidRoster
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidRoster, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// SpyNames returns the names of all spies, in roster order.
func SpyNames(players []domain.Player) []string {
	var names []string
	for _, p := range players {
		if p.Role == domain.RoleSpy {
			names = append(names, p.Name)
		}
	}
	return names
}
