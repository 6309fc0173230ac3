package game

type Phase string

const (
	PhaseMenu    Phase = "MENU"
	PhaseSetup   Phase = "SETUP"
	PhaseReveal  Phase = "REVEAL"
	PhaseWheel   Phase = "WHEEL"
	PhasePlaying Phase = "PLAYING"
	PhaseVoting  Phase = "VOTING"
	PhaseEnd     Phase = "END"

	PhaseHistory          Phase = "HISTORY"
	PhaseScoreboard       Phase = "SCOREBOARD"
	PhaseHowToPlay        Phase = "HOW_TO_PLAY"
	PhaseAdminLogin       Phase = "ADMIN_LOGIN"
	PhaseCustomCategories Phase = "CUSTOM_CATEGORIES"
	PhaseAchievements     Phase = "ACHIEVEMENTS"
	PhaseStats            Phase = "STATS"
)

func (p Phase) String() string {
	return string(p)
}

// IsDetour reports whether p is an informational screen that is entered
// from and returns to the menu.
func (p Phase) IsDetour() bool {
	switch p {
	case PhaseHistory, PhaseScoreboard, PhaseHowToPlay, PhaseAdminLogin,
		PhaseCustomCategories, PhaseAchievements, PhaseStats:
		return true
	}
	return false
}

// CanNavigateTo checks the user-driven screen edges. Game-flow edges
// (REVEAL, WHEEL, PLAYING, VOTING, END) are only taken by their operations.
func (p Phase) CanNavigateTo(target Phase) bool {
	switch {
	case p == PhaseMenu:
		return target == PhaseSetup || (target.IsDetour() && target != PhaseHistory)
	case p.IsDetour(), p == PhaseSetup, p == PhaseEnd:
		return target == PhaseMenu
	}
	return false
}
