package game_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"spy-game/internal/domain"
	"spy-game/internal/game"
)

func countRoles(players []domain.Player) map[domain.Role]int {
	counts := make(map[domain.Role]int)
	for _, p := range players {
		counts[p.Role]++
	}
	return counts
}

var _ = Describe("AssignRoles", func() {
	names := []string{"A", "B", "C", "D", "E", "F", "G"}

	It("deals exactly spyCount spies and at most one of each special role", func() {
		for seed := int64(0); seed < 200; seed++ {
			rng := rand.New(rand.NewSource(seed))
			spyCount := 1 + int(seed)%game.MaxSpies(len(names))
			flags := domain.SpecialRoles{Detective: seed%2 == 0, Insider: seed%3 == 0}

			players, err := game.AssignRoles(names, spyCount, flags, nil, rng)
			Expect(err).ToNot(HaveOccurred())
			Expect(players).To(HaveLen(len(names)))

			counts := countRoles(players)
			Expect(counts[domain.RoleSpy]).To(Equal(spyCount))
			Expect(counts[domain.RoleDetective]).To(BeNumerically("<=", 1))
			Expect(counts[domain.RoleInsider]).To(BeNumerically("<=", 1))
			Expect(counts[domain.RoleSpy] + counts[domain.RoleDetective] + counts[domain.RoleInsider] + counts[domain.RoleCitizen]).To(Equal(len(names)))
		}
	})

	It("never gives the detective and insider to the same player or to a spy", func() {
		flags := domain.SpecialRoles{Detective: true, Insider: true}
		for seed := int64(0); seed < 200; seed++ {
			players, err := game.AssignRoles(names, 2, flags, nil, rand.New(rand.NewSource(seed)))
			Expect(err).ToNot(HaveOccurred())

			counts := countRoles(players)
			Expect(counts[domain.RoleDetective]).To(Equal(1))
			Expect(counts[domain.RoleInsider]).To(Equal(1))
			Expect(counts[domain.RoleSpy]).To(Equal(2))
			Expect(counts[domain.RoleCitizen]).To(Equal(len(names) - 4))
		}
	})

	It("deals one spy and four citizens for five players without special roles", func() {
		players, err := game.AssignRoles([]string{"A", "B", "C", "D", "E"}, 1, domain.SpecialRoles{}, nil, rand.New(rand.NewSource(7)))
		Expect(err).ToNot(HaveOccurred())

		counts := countRoles(players)
		Expect(counts[domain.RoleSpy]).To(Equal(1))
		Expect(counts[domain.RoleCitizen]).To(Equal(4))
	})

	It("keeps roster order in ids and names", func() {
		players, err := game.AssignRoles(names, 1, domain.SpecialRoles{}, nil, rand.New(rand.NewSource(1)))
		Expect(err).ToNot(HaveOccurred())
		for i, p := range players {
			Expect(p.ID).To(Equal(i))
			Expect(p.Name).To(Equal(names[i]))
			Expect(p.Score).To(BeZero())
		}
	})

	It("uses avatar overrides and falls back to the palette", func() {
		players, err := game.AssignRoles([]string{"A", "B", "C"}, 1, domain.SpecialRoles{}, map[string]string{"B": "🎭"}, rand.New(rand.NewSource(1)))
		Expect(err).ToNot(HaveOccurred())
		Expect(players[0].Avatar).To(Equal(game.DefaultAvatar(0)))
		Expect(players[1].Avatar).To(Equal("🎭"))
		Expect(players[2].Avatar).To(Equal(game.DefaultAvatar(2)))
	})

	DescribeTable("rejects spy counts outside 1..n-2",
		func(spyCount int) {
			_, err := game.AssignRoles([]string{"A", "B", "C", "D"}, spyCount, domain.SpecialRoles{}, nil, rand.New(rand.NewSource(1)))
			Expect(err).To(MatchError(game.ErrInvalidSpyCount))
		},
		Entry("zero", 0),
		Entry("negative", -1),
		Entry("n-1", 3),
	)

	It("rejects empty and duplicate names", func() {
		_, err := game.AssignRoles([]string{"A", " ", "C"}, 1, domain.SpecialRoles{}, nil, rand.New(rand.NewSource(1)))
		Expect(err).To(MatchError(game.ErrInvalidRoster))

		_, err = game.AssignRoles([]string{"A", "B", "A"}, 1, domain.SpecialRoles{}, nil, rand.New(rand.NewSource(1)))
		Expect(err).To(MatchError(game.ErrInvalidRoster))
	})

	It("skips special roles when no citizen is left", func() {
		players, err := game.AssignRoles([]string{"A", "B", "C"}, 1, domain.SpecialRoles{Detective: true, Insider: true}, nil, rand.New(rand.NewSource(3)))
		Expect(err).ToNot(HaveOccurred())
		counts := countRoles(players)
		Expect(counts[domain.RoleSpy]).To(Equal(1))
		Expect(counts[domain.RoleDetective]).To(Equal(1))
		Expect(counts[domain.RoleInsider]).To(Equal(1))
		Expect(counts[domain.RoleCitizen]).To(BeZero())
	})
})
