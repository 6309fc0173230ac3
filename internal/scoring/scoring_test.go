package scoring_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"spy-game/internal/domain"
	"spy-game/internal/scoring"
)

var _ = Describe("Settle", func() {
	players := []domain.Player{
		{ID: 0, Name: "A", Role: domain.RoleCitizen},
		{ID: 1, Name: "X", Role: domain.RoleSpy},
		{ID: 2, Name: "D", Role: domain.RoleDetective},
		{ID: 3, Name: "I", Role: domain.RoleInsider},
		{ID: 4, Name: "B", Role: domain.RoleCitizen},
	}

	It("pays every spy when the spies win", func() {
		s := scoring.Settle(players, domain.WinnerSpies, domain.SpecialRoles{Detective: true, Insider: true})

		Expect(s.ScoreDeltas).To(Equal(map[string]int{"X": scoring.SpyWinPoints}))
		Expect(s.Grants).To(HaveKeyWithValue("X", ConsistOf(
			domain.AchievementFirstWin,
			domain.AchievementSpyMaster,
			domain.AchievementSilverTongue,
		)))
		Expect(s.Grants).To(HaveLen(1))
	})

	It("pays the citizen side by role when the citizens win", func() {
		s := scoring.Settle(players, domain.WinnerCitizens, domain.SpecialRoles{Detective: true, Insider: true})

		Expect(s.ScoreDeltas).To(Equal(map[string]int{
			"A": scoring.CitizenWinPoints,
			"B": scoring.CitizenWinPoints,
			"D": scoring.DetectiveWinPoints,
			"I": scoring.CitizenWinPoints,
		}))
		Expect(s.Grants["A"]).To(ConsistOf(domain.AchievementFirstWin, domain.AchievementSharpEye))
		Expect(s.Grants["D"]).To(ConsistOf(domain.AchievementFirstWin, domain.AchievementDetectivePro))
		Expect(s.Grants["I"]).To(ConsistOf(domain.AchievementFirstWin, domain.AchievementInsiderHero))
		Expect(s.Grants).ToNot(HaveKey("X"))
	})

	It("is deterministic for identical input", func() {
		first := scoring.Settle(players, domain.WinnerCitizens, domain.SpecialRoles{})
		second := scoring.Settle(players, domain.WinnerCitizens, domain.SpecialRoles{})
		Expect(second).To(Equal(first))
	})

	It("awards nothing for an unknown winner", func() {
		s := scoring.Settle(players, domain.Winner("DRAW"), domain.SpecialRoles{})
		Expect(s.ScoreDeltas).To(BeEmpty())
		Expect(s.Grants).To(BeEmpty())
	})

	DescribeTable("Points",
		func(role domain.Role, want int) {
			Expect(scoring.Points(role)).To(Equal(want))
		},
		Entry("citizen", domain.RoleCitizen, 10),
		Entry("insider", domain.RoleInsider, 10),
		Entry("detective", domain.RoleDetective, 15),
		Entry("spy", domain.RoleSpy, 20),
	)
})
