package domain

import (
	"time"
)

type Role string

const (
	RoleCitizen   Role = "CITIZEN"
	RoleSpy       Role = "SPY"
	RoleDetective Role = "DETECTIVE"
	RoleInsider   Role = "INSIDER"
)

// Winner is the side a finished round was awarded to.
type Winner string

const (
	WinnerCitizens Winner = "CITIZENS"
	WinnerSpies    Winner = "SPIES"
)

func (w Winner) Valid() bool {
	return w == WinnerCitizens || w == WinnerSpies
}

// Won reports whether a player holding role r is on the winning side.
func (w Winner) Won(r Role) bool {
	switch w {
	case WinnerCitizens:
		return r != RoleSpy
	case WinnerSpies:
		return r == RoleSpy
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy Difficulty = "EASY"
	DifficultyHard Difficulty = "HARD"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyHard
}

type Player struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Score  int    `json:"score"`
	Avatar string `json:"avatar"`
}

type SpecialRoles struct {
	Detective bool `json:"detective"`
	Insider   bool `json:"insider"`
}

type ScoreRecord struct {
	PlayerName string `json:"player_name" db:"player_name"`
	Score      int    `json:"score" db:"score"`
}

type HistoryEntry struct {
	ID           int64        `json:"id"`
	Date         time.Time    `json:"date"`
	Players      []Player     `json:"players"`
	SpyCount     int          `json:"spy_count"`
	Winner       Winner       `json:"winner"`
	Difficulty   string       `json:"difficulty"`
	Word         string       `json:"word"`
	SpecialRoles SpecialRoles `json:"special_roles"`
}

type AchievementID string

const (
	AchievementFirstWin     AchievementID = "FIRST_WIN"
	AchievementSpyMaster    AchievementID = "SPY_MASTER"
	AchievementSharpEye     AchievementID = "SHARP_EYE"
	AchievementSilverTongue AchievementID = "SILVER_TONGUE"
	AchievementDetectivePro AchievementID = "DETECTIVE_PRO"
	AchievementInsiderHero  AchievementID = "INSIDER_HERO"
)

// Achievements lists every grantable achievement in display order.
var Achievements = []AchievementID{
	AchievementFirstWin,
	AchievementSpyMaster,
	AchievementSharpEye,
	AchievementSilverTongue,
	AchievementDetectivePro,
	AchievementInsiderHero,
}

type AchievementRecord struct {
	PlayerName    string        `json:"player_name" db:"player_name"`
	AchievementID AchievementID `json:"achievement_id" db:"achievement_id"`
	Date          time.Time     `json:"date" db:"date"`
}

// MapZone is cosmetic reveal-screen data; X and Y are percentages.
type MapZone struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type Category struct {
	Name       string     `json:"name"`
	Difficulty Difficulty `json:"difficulty"`
	Words      []string   `json:"words"`
	CreatedAt  time.Time  `json:"created_at"`
}
