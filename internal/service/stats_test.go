package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"spy-game/internal/domain"
	"spy-game/internal/game"
	"spy-game/internal/service"
	"spy-game/internal/store/local"
)

var _ = Describe("StatsService", func() {
	var (
		ctx   context.Context
		st    *local.Store
		stats *service.StatsService
	)

	BeforeEach(func() {
		ctx = context.Background()
		st = newLocalStore()
		stats = service.NewStatsService(st, zerolog.Nop())

		results := service.NewResultService(st, zerolog.Nop())
		for _, winner := range []domain.Winner{domain.WinnerCitizens, domain.WinnerSpies, domain.WinnerCitizens} {
			_, err := results.Apply(ctx, &game.Outcome{
				Players: []domain.Player{
					{ID: 0, Name: "A", Role: domain.RoleSpy},
					{ID: 1, Name: "B", Role: domain.RoleCitizen},
					{ID: 2, Name: "C", Role: domain.RoleCitizen},
				},
				Winner:   winner,
				SpyCount: 1,
				Word:     "Zoo",
			})
			Expect(err).ToNot(HaveOccurred())
		}
	})

	It("loads scores, history and stats together", func() {
		overview, err := stats.Overview(ctx)
		Expect(err).ToNot(HaveOccurred())

		Expect(overview.History).To(HaveLen(3))
		Expect(overview.Scores).To(Equal([]domain.ScoreRecord{
			{PlayerName: "A", Score: 20},
			{PlayerName: "B", Score: 20},
			{PlayerName: "C", Score: 20},
		}))
		Expect(overview.Stats).To(HaveLen(3))
		Expect(overview.Stats[0].Name).To(Equal("B"))
		Expect(overview.Stats[0].WinRate()).To(Equal(67))
		Expect(overview.Stats[2].Name).To(Equal("A"))
		Expect(overview.Stats[2].WinRate()).To(Equal(33))
	})

	It("fails the overview when either read fails", func() {
		stats = service.NewStatsService(brokenScoresStore{Store: st}, zerolog.Nop())

		_, err := stats.Overview(ctx)
		Expect(err).To(MatchError(errBoom))
	})

	It("lists achievements per player", func() {
		records, err := stats.Achievements(ctx, "A")
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(3))

		records, err = stats.Achievements(ctx, "nobody")
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(BeEmpty())
	})

	It("resets scores and history independently", func() {
		Expect(stats.ResetScores(ctx)).To(Succeed())

		scores, err := stats.Scores(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(scores).To(BeEmpty())

		history, err := stats.History(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(history).To(HaveLen(3))

		Expect(stats.ResetHistory(ctx)).To(Succeed())
		ranked, err := stats.Stats(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(ranked).To(BeEmpty())
	})
})
