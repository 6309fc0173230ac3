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
	ErrInvalidTransition = errors.New("operation not allowed in current phase")
	ErrTooFewPlayers     = errors.New("at least three players are required")
	ErrInvalidPlayer     = errors.New("invalid player")
	ErrDuplicatePlayer   = errors.New("player name already taken")
	ErrNoWords           = errors.New("category has no words")
	ErrRoleNotRevealed   = errors.New("role must be revealed before advancing")
	ErrWheelSpinning     = errors.New("wheel is still spinning")
	ErrInvalidBallot     = errors.New("invalid ballot")
	ErrAlreadySettled    = errors.New("round already settled")
	ErrInvalidWinner     = errors.New("invalid winner")
	ErrInvalidDifficulty = errors.New("difficulty must be EASY or HARD")
)

// DefaultRoster is the roster a fresh session starts with.
var DefaultRoster = []string{"Amin", "AmirAbbas", "Pejman", "Mohammad", "AmirAli"}

type Settings struct {
	SpyCount      int                 `json:"spy_count"`
	TimerDuration int                 `json:"timer_duration"`
	SpecialRoles  domain.SpecialRoles `json:"special_roles"`
	Category      string              `json:"category"`
	Difficulty    domain.Difficulty   `json:"difficulty"`
}

// Outcome is everything needed to settle and record a finished round.
type Outcome struct {
	Round        int                 `json:"round"`
	Players      []domain.Player     `json:"players"`
	Winner       domain.Winner       `json:"winner"`
	SpyCount     int                 `json:"spy_count"`
	Word         string              `json:"word"`
	Difficulty   domain.Difficulty   `json:"difficulty"`
	SpecialRoles domain.SpecialRoles `json:"special_roles"`
	Ballots      map[int][]int       `json:"ballots,omitempty"`
}

// Session is the state of one shared device. It is not safe for
// concurrent use; callers serialize access.
type Session struct {
	rng *rand.Rand

	phase    Phase
	names    []string
	avatars  map[string]string
	settings Settings

	round         int
	players       []domain.Player
	word          string
	mapZones      []domain.MapZone
	mapGenerating bool

	revealIndex int
	roleVisible bool

	wheelSpinning bool
	starter       int
	timerArmed    bool

	timeLeft    int
	timerActive bool

	votingIndex int
	ballots     map[int][]int

	outcome *Outcome
}

func NewSession(rng *rand.Rand) *Session {
	names := make([]string, len(DefaultRoster))
	copy(names, DefaultRoster)
	return &Session{
		rng:     rng,
		phase:   PhaseMenu,
		names:   names,
		avatars: make(map[string]string),
		settings: Settings{
			SpyCount:      1,
			TimerDuration: constants.DefaultTimerSeconds,
			Category:      "easy",
			Difficulty:    domain.DifficultyEasy,
		},
		timeLeft: constants.DefaultTimerSeconds,
		starter:  -1,
	}
}

func (s *Session) Phase() Phase        { return s.phase }
func (s *Session) Round() int          { return s.round }
func (s *Session) Settings() Settings  { return s.settings }
func (s *Session) TimeLeft() int       { return s.timeLeft }
func (s *Session) TimerActive() bool   { return s.timerActive }
func (s *Session) WheelSpinning() bool { return s.wheelSpinning }
func (s *Session) Word() string        { return s.word }

func (s *Session) Roster() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Session) Players() []domain.Player {
	out := make([]domain.Player, len(s.players))
	copy(out, s.players)
	return out
}

// Navigate moves between menu-level screens.
func (s *Session) Navigate(target Phase) error {
	if !s.phase.CanNavigateTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, target)
	}
	if target == PhaseMenu {
		s.timerActive = false
		s.wheelSpinning = false
	}
	s.phase = target
	return nil
}

func (s *Session) OpenSetup() error {
	return s.Navigate(PhaseSetup)
}

func (s *Session) ReturnToMenu() error {
	return s.Navigate(PhaseMenu)
}

// UnlockHistory is the ADMIN_LOGIN -> HISTORY edge; the passphrase check
// belongs to the caller.
func (s *Session) UnlockHistory() error {
	if s.phase != PhaseAdminLogin {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, PhaseHistory)
	}
	s.phase = PhaseHistory
	return nil
}

func (s *Session) requireSetup() error {
	if s.phase != PhaseSetup && s.phase != PhaseMenu {
		return fmt.Errorf("%w: roster is locked in %s", ErrInvalidTransition, s.phase)
	}
	return nil
}

func (s *Session) AddPlayer(name string) error {
	if err := s.requireSetup(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPlayer)
	}
	for _, n := range s.names {
		if n == name {
			return fmt.Errorf("%w: %q", ErrDuplicatePlayer, name)
		}
	}
	s.names = append(s.names, name)
	return nil
}

func (s *Session) RemovePlayer(index int) error {
	if err := s.requireSetup(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.names) {
		return fmt.Errorf("%w: index %d", ErrInvalidPlayer, index)
	}
	if len(s.names) <= constants.MinPlayers {
		return ErrTooFewPlayers
	}
	delete(s.avatars, s.names[index])
	s.names = append(s.names[:index], s.names[index+1:]...)
	s.settings.SpyCount = clamp(s.settings.SpyCount, constants.MinSpies, MaxSpies(len(s.names)))
	return nil
}

// CycleAvatar moves a player's avatar to the next palette entry.
func (s *Session) CycleAvatar(index int) (string, error) {
	if err := s.requireSetup(); err != nil {
		return "", err
	}
	if index < 0 || index >= len(s.names) {
		return "", fmt.Errorf("%w: index %d", ErrInvalidPlayer, index)
	}
	name := s.names[index]
	current := s.avatars[name]
	if current == "" {
		current = DefaultAvatar(index)
	}
	next := 0
	for i, a := range Avatars {
		if a == current {
			next = (i + 1) % len(Avatars)
			break
		}
	}
	s.avatars[name] = Avatars[next]
	return Avatars[next], nil
}

// Configure applies setup choices, clamping counts to their legal ranges.
// Zero counts keep the current values.
func (s *Session) Configure(settings Settings) error {
	if err := s.requireSetup(); err != nil {
		return err
	}
	if settings.Difficulty != "" && !settings.Difficulty.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidDifficulty, settings.Difficulty)
	}
	if settings.SpyCount == 0 {
		settings.SpyCount = s.settings.SpyCount
	}
	if settings.TimerDuration == 0 {
		settings.TimerDuration = s.settings.TimerDuration
	}
	settings.SpyCount = clamp(settings.SpyCount, constants.MinSpies, MaxSpies(len(s.names)))
	settings.TimerDuration = clamp(settings.TimerDuration, constants.MinTimerDuration, constants.MaxTimerDuration)
	if settings.Category == "" {
		settings.Category = s.settings.Category
	}
	if settings.Difficulty == "" {
		settings.Difficulty = s.settings.Difficulty
	}
	s.settings = settings
	s.timeLeft = settings.TimerDuration
	return nil
}

func (s *Session) SetSpyCount(n int) error {
	settings := s.settings
	settings.SpyCount = n
	return s.Configure(settings)
}

func (s *Session) SetTimerDuration(seconds int) error {
	settings := s.settings
	settings.TimerDuration = seconds
	return s.Configure(settings)
}

func (s *Session) SetSpecialRoles(flags domain.SpecialRoles) error {
	settings := s.settings
	settings.SpecialRoles = flags
	return s.Configure(settings)
}

// SelectCategory records which word list StartGame will be fed from.
func (s *Session) SelectCategory(key string, difficulty domain.Difficulty) error {
	settings := s.settings
	settings.Category = key
	settings.Difficulty = difficulty
	return s.Configure(settings)
}

// StartGame deals a new round from words and enters REVEAL. Map zones are
// expected later through ApplyMapZones.
func (s *Session) StartGame(words []string) error {
	if s.phase != PhaseSetup {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.phase)
	}
	if len(s.names) < constants.MinPlayers {
		return ErrTooFewPlayers
	}
	if len(words) == 0 {
		return ErrNoWords
	}

	spyCount := clamp(s.settings.SpyCount, constants.MinSpies, MaxSpies(len(s.names)))
	players, err := AssignRoles(s.names, spyCount, s.settings.SpecialRoles, s.avatars, s.rng)
	if err != nil {
		return err
	}

	s.round++
	s.settings.SpyCount = spyCount
	s.players = players
	s.word = words[s.rng.Intn(len(words))]
	s.mapZones = nil
	s.mapGenerating = true

	s.revealIndex = 0
	s.roleVisible = false

	s.wheelSpinning = false
	s.starter = -1
	s.timerArmed = false
	s.timeLeft = s.settings.TimerDuration
	s.timerActive = false

	s.votingIndex = 0
	s.ballots = nil
	s.outcome = nil

	s.phase = PhaseReveal
	return nil
}

// ApplyMapZones installs generated zones for round. Results for an older
// round are ignored; unusable zones fall back to the built-in layout.
func (s *Session) ApplyMapZones(round int, zones []domain.MapZone) bool {
	if round != s.round {
		return false
	}
	if len(zones) == 0 {
		zones = FallbackZones()
	}
	s.mapZones = zones
	s.mapGenerating = false
	return true
}

func (s *Session) MapZones() ([]domain.MapZone, bool) {
	out := make([]domain.MapZone, len(s.mapZones))
	copy(out, s.mapZones)
	return out, s.mapGenerating
}

// FallbackZones is the fixed layout used when generation fails.
func FallbackZones() []domain.MapZone {
	return []domain.MapZone{
		{ID: "1", Name: "Security Entrance", Description: "Entry and exit control", X: 20, Y: 20},
		{ID: "2", Name: "Main Hall", Description: "Main gathering area", X: 50, Y: 50},
		{ID: "3", Name: "Server Room", Description: "Sensitive data center", X: 80, Y: 30},
		{ID: "4", Name: "Equipment Store", Description: "Where the tools are kept", X: 30, Y: 70},
		{ID: "5", Name: "Emergency Exit", Description: "Quick escape route", X: 70, Y: 80},
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
