// Package storetest holds the behaviour every store.Store implementation
// must share, written as Ginkgo specs.
package storetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"spy-game/internal/domain"
	"spy-game/internal/store"
)

// Contract registers the shared specs. newStore is called before each spec
// and must return an empty store.
func Contract(newStore func() store.Store) {
	var (
		ctx context.Context
		st  store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		st = newStore()
	})

	Describe("scores", func() {
		It("starts empty", func() {
			scores, err := st.Scores(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(scores).ToNot(BeNil())
			Expect(scores).To(BeEmpty())
		})

		It("adds increments and returns the new total", func() {
			total, err := st.AddScore(ctx, "A", 10)
			Expect(err).ToNot(HaveOccurred())
			Expect(total).To(Equal(10))

			total, err = st.AddScore(ctx, "A", 20)
			Expect(err).ToNot(HaveOccurred())
			Expect(total).To(Equal(30))
		})

		It("lists the highest score first", func() {
			_, err := st.AddScore(ctx, "low", 5)
			Expect(err).ToNot(HaveOccurred())
			_, err = st.AddScore(ctx, "high", 50)
			Expect(err).ToNot(HaveOccurred())
			_, err = st.AddScore(ctx, "mid", 15)
			Expect(err).ToNot(HaveOccurred())

			scores, err := st.Scores(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(scores).To(Equal([]domain.ScoreRecord{
				{PlayerName: "high", Score: 50},
				{PlayerName: "mid", Score: 15},
				{PlayerName: "low", Score: 5},
			}))
		})

		It("reads nothing after a reset", func() {
			_, err := st.AddScore(ctx, "A", 10)
			Expect(err).ToNot(HaveOccurred())

			Expect(st.ResetScores(ctx)).To(Succeed())

			scores, err := st.Scores(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(scores).To(BeEmpty())
		})
	})

	Describe("history", func() {
		entry := func(word string) domain.HistoryEntry {
			return domain.HistoryEntry{
				Date: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
				Players: []domain.Player{
					{ID: 0, Name: "A", Role: domain.RoleSpy, Score: 20, Avatar: "🕵️"},
					{ID: 1, Name: "B", Role: domain.RoleCitizen, Avatar: "👤"},
					{ID: 2, Name: "C", Role: domain.RoleDetective, Avatar: "🕶️"},
				},
				SpyCount:     1,
				Winner:       domain.WinnerSpies,
				Difficulty:   string(domain.DifficultyEasy),
				Word:         word,
				SpecialRoles: domain.SpecialRoles{Detective: true},
			}
		}

		It("returns entries newest first with increasing ids", func() {
			first, err := st.AppendHistory(ctx, entry("Airport"))
			Expect(err).ToNot(HaveOccurred())
			second, err := st.AppendHistory(ctx, entry("Bank"))
			Expect(err).ToNot(HaveOccurred())
			Expect(second).To(BeNumerically(">", first))

			history, err := st.History(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].ID).To(Equal(second))
			Expect(history[0].Word).To(Equal("Bank"))
			Expect(history[1].Word).To(Equal("Airport"))
		})

		It("keeps the player snapshot and flags", func() {
			_, err := st.AppendHistory(ctx, entry("Airport"))
			Expect(err).ToNot(HaveOccurred())

			history, err := st.History(ctx)
			Expect(err).ToNot(HaveOccurred())
			got := history[0]
			want := entry("Airport")
			Expect(got.Players).To(Equal(want.Players))
			Expect(got.SpecialRoles).To(Equal(want.SpecialRoles))
			Expect(got.Winner).To(Equal(domain.WinnerSpies))
			Expect(got.SpyCount).To(Equal(1))
			Expect(got.Date.Equal(want.Date)).To(BeTrue())
		})

		It("clears on reset", func() {
			_, err := st.AppendHistory(ctx, entry("Airport"))
			Expect(err).ToNot(HaveOccurred())
			Expect(st.ResetHistory(ctx)).To(Succeed())

			history, err := st.History(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(history).To(BeEmpty())
		})
	})

	Describe("achievements", func() {
		It("grants each achievement once per player", func() {
			granted, err := st.GrantAchievement(ctx, "A", domain.AchievementFirstWin)
			Expect(err).ToNot(HaveOccurred())
			Expect(granted).To(BeTrue())

			granted, err = st.GrantAchievement(ctx, "A", domain.AchievementFirstWin)
			Expect(err).ToNot(HaveOccurred())
			Expect(granted).To(BeFalse())

			granted, err = st.GrantAchievement(ctx, "B", domain.AchievementFirstWin)
			Expect(err).ToNot(HaveOccurred())
			Expect(granted).To(BeTrue())

			records, err := st.Achievements(ctx, "A")
			Expect(err).ToNot(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].PlayerName).To(Equal("A"))
			Expect(records[0].AchievementID).To(Equal(domain.AchievementFirstWin))
		})

		It("returns an empty list for unknown players", func() {
			records, err := st.Achievements(ctx, "nobody")
			Expect(err).ToNot(HaveOccurred())
			Expect(records).ToNot(BeNil())
			Expect(records).To(BeEmpty())
		})
	})

	Describe("categories", func() {
		It("saves, replaces and deletes by name", func() {
			Expect(st.SaveCategory(ctx, domain.Category{Name: "AI", Difficulty: domain.DifficultyEasy, Words: []string{"a", "b"}})).To(Succeed())
			Expect(st.SaveCategory(ctx, domain.Category{Name: "AI", Difficulty: domain.DifficultyHard, Words: []string{"c"}})).To(Succeed())

			categories, err := st.Categories(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(categories).To(HaveLen(1))
			Expect(categories[0].Words).To(Equal([]string{"c"}))
			Expect(categories[0].Difficulty).To(Equal(domain.DifficultyHard))

			Expect(st.DeleteCategory(ctx, "AI")).To(Succeed())
			Expect(st.DeleteCategory(ctx, "AI")).To(MatchError(store.ErrNotFound))

			categories, err = st.Categories(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(categories).To(BeEmpty())
		})
	})
}
