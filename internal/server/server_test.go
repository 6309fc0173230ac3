package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"spy-game/internal/api"
	"spy-game/internal/config"
	"spy-game/internal/domain"
	"spy-game/internal/events"
	"spy-game/internal/game"
	"spy-game/internal/server"
	"spy-game/internal/service"
	"spy-game/internal/store/local"
)

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var _ = Describe("SpyGameServer", func() {
	var (
		client *resty.Client
		st     *local.Store
	)

	BeforeEach(func() {
		logger := zerolog.Nop()
		st = local.New(filepath.Join(GinkgoT().TempDir(), "spygame.json"), logger)
		gen := api.DisabledGenerator{}
		categories := service.NewCategoryService(st, gen, logger)
		games := service.NewGameService(categories, service.NewResultService(st, logger), gen, events.NewHub(logger), &config.Config{AdminPassphrase: "owa12345"}, logger)
		DeferCleanup(games.Close)

		srv := server.NewSpyGameServer(games, service.NewStatsService(st, logger), categories, logger)
		path, handler := srv.Handler()
		mux := http.NewServeMux()
		mux.Handle(path, handler)

		ts := httptest.NewServer(mux)
		DeferCleanup(ts.Close)

		client = resty.New().
			SetBaseURL(ts.URL+server.ServicePath).
			SetHeader("Content-Type", "application/json")
	})

	call := func(method string, body any, out any) (*resty.Response, *rpcError) {
		var rpcErr rpcError
		resp, err := client.R().
			SetBody(body).
			SetResult(out).
			SetError(&rpcErr).
			Post(method)
		Expect(err).ToNot(HaveOccurred())
		if resp.IsError() {
			return resp, &rpcErr
		}
		return resp, nil
	}

	createSession := func() string {
		var view service.SessionView
		resp, rpcErr := call("CreateSession", map[string]any{}, &view)
		Expect(rpcErr).To(BeNil())
		Expect(resp.StatusCode()).To(Equal(http.StatusOK))
		Expect(view.Phase).To(Equal(game.PhaseMenu))
		Expect(view.Roster).To(Equal(game.DefaultRoster))
		return view.ID
	}

	It("creates and reads back a session", func() {
		id := createSession()

		var view service.SessionView
		_, rpcErr := call("AddPlayer", server.AddPlayerRequest{SessionID: id, Name: "Sara"}, &view)
		Expect(rpcErr).To(BeNil())

		_, rpcErr = call("GetSession", server.SessionRequest{SessionID: id}, &view)
		Expect(rpcErr).To(BeNil())
		Expect(view.ID).To(Equal(id))
		Expect(view.Roster).To(ContainElement("Sara"))
	})

	DescribeTable("maps failures to connect codes",
		func(prepare func(id string) (string, any), status int, code string) {
			method, body := prepare(createSession())
			resp, rpcErr := call(method, body, &service.SessionView{})
			Expect(rpcErr).ToNot(BeNil())
			Expect(resp.StatusCode()).To(Equal(status))
			Expect(rpcErr.Code).To(Equal(code))
			Expect(rpcErr.Message).ToNot(BeEmpty())
		},
		Entry("unknown session", func(string) (string, any) {
			return "GetSession", server.SessionRequest{SessionID: "nope"}
		}, http.StatusNotFound, "not_found"),
		Entry("duplicate player", func(id string) (string, any) {
			return "AddPlayer", server.AddPlayerRequest{SessionID: id, Name: "Amin"}
		}, http.StatusConflict, "already_exists"),
		Entry("blank player", func(id string) (string, any) {
			return "AddPlayer", server.AddPlayerRequest{SessionID: id, Name: "  "}
		}, http.StatusBadRequest, "invalid_argument"),
		Entry("out of phase", func(id string) (string, any) {
			return "StartVoting", server.SessionRequest{SessionID: id}
		}, http.StatusBadRequest, "failed_precondition"),
		Entry("unknown category", func(id string) (string, any) {
			return "ConfigureGame", server.ConfigureGameRequest{SessionID: id, Settings: game.Settings{Category: "custom:missing"}}
		}, http.StatusNotFound, "not_found"),
		Entry("unknown difficulty", func(id string) (string, any) {
			return "ConfigureGame", server.ConfigureGameRequest{SessionID: id, Settings: game.Settings{Category: "hard", Difficulty: "BOGUS"}}
		}, http.StatusBadRequest, "invalid_argument"),
	)

	It("rejects a wrong admin passphrase", func() {
		id := createSession()
		var view service.SessionView
		_, rpcErr := call("Navigate", server.NavigateRequest{SessionID: id, Phase: game.PhaseAdminLogin}, &view)
		Expect(rpcErr).To(BeNil())
		Expect(view.Phase).To(Equal(game.PhaseAdminLogin))

		resp, rpcErr := call("AdminLogin", server.AdminLoginRequest{SessionID: id, Passphrase: "letmein"}, &view)
		Expect(rpcErr).ToNot(BeNil())
		Expect(resp.StatusCode()).To(Equal(http.StatusForbidden))
		Expect(rpcErr.Code).To(Equal("permission_denied"))

		_, rpcErr = call("AdminLogin", server.AdminLoginRequest{SessionID: id, Passphrase: "owa12345"}, &view)
		Expect(rpcErr).To(BeNil())
		Expect(view.Phase).To(Equal(game.PhaseHistory))
	})

	It("lists the built-in categories", func() {
		var res server.CategoriesResponse
		_, rpcErr := call("ListCategories", map[string]any{}, &res)
		Expect(rpcErr).To(BeNil())
		Expect(res.Categories).To(HaveLen(2))
		Expect(res.Categories[0].Key).To(Equal(service.CategoryEasy))
	})

	It("reports generation as unavailable without an API key", func() {
		resp, rpcErr := call("GenerateCategory", server.GenerateCategoryRequest{}, &service.CategoryInfo{})
		Expect(rpcErr).ToNot(BeNil())
		Expect(resp.StatusCode()).To(Equal(http.StatusServiceUnavailable))
		Expect(rpcErr.Code).To(Equal("unavailable"))
	})

	It("serves empty records before any round", func() {
		var scores server.ScoresResponse
		_, rpcErr := call("GetScores", map[string]any{}, &scores)
		Expect(rpcErr).To(BeNil())
		Expect(scores.Scores).To(BeEmpty())

		var stats server.StatsResponse
		_, rpcErr = call("GetStats", map[string]any{}, &stats)
		Expect(rpcErr).To(BeNil())
		Expect(stats.Stats).To(BeEmpty())

		var achievements server.AchievementsResponse
		_, rpcErr = call("GetAchievements", server.PlayerNameRequest{PlayerName: "Amin"}, &achievements)
		Expect(rpcErr).To(BeNil())
		Expect(achievements.PlayerName).To(Equal("Amin"))
		Expect(achievements.Achievements).To(BeEmpty())
		Expect(achievements.Locked).To(Equal(domain.Achievements))
	})

	Describe("after a recorded round", func() {
		BeforeEach(func() {
			_, err := service.NewResultService(st, zerolog.Nop()).Apply(context.Background(), &game.Outcome{
				Round: 1,
				Players: []domain.Player{
					{ID: 0, Name: "X", Role: domain.RoleSpy},
					{ID: 1, Name: "Y", Role: domain.RoleCitizen},
					{ID: 2, Name: "Z", Role: domain.RoleCitizen},
				},
				Winner:     domain.WinnerCitizens,
				SpyCount:   1,
				Word:       "Bank",
				Difficulty: domain.DifficultyEasy,
			})
			Expect(err).ToNot(HaveOccurred())
		})

		It("serves scores, history and stats in one overview", func() {
			var overview server.OverviewResponse
			_, rpcErr := call("GetOverview", map[string]any{}, &overview)
			Expect(rpcErr).To(BeNil())

			Expect(overview.Scores).To(ConsistOf(
				domain.ScoreRecord{PlayerName: "Y", Score: 10},
				domain.ScoreRecord{PlayerName: "Z", Score: 10},
			))
			Expect(overview.History).To(HaveLen(1))
			Expect(overview.History[0].Word).To(Equal("Bank"))

			Expect(overview.Stats).To(HaveLen(3))
			Expect(overview.Stats[0].Name).To(Equal("Y"))
			Expect(overview.Stats[0].WinRate).To(Equal(100))
			Expect(overview.Stats[2].Name).To(Equal("X"))
			Expect(overview.Stats[2].WinRate).To(BeZero())
		})

		It("splits achievements into earned and locked", func() {
			var achievements server.AchievementsResponse
			_, rpcErr := call("GetAchievements", server.PlayerNameRequest{PlayerName: "Y"}, &achievements)
			Expect(rpcErr).To(BeNil())

			earned := make([]domain.AchievementID, 0, len(achievements.Achievements))
			for _, r := range achievements.Achievements {
				earned = append(earned, r.AchievementID)
			}
			Expect(earned).To(ConsistOf(domain.AchievementFirstWin, domain.AchievementSharpEye))
			Expect(achievements.Locked).To(Equal([]domain.AchievementID{
				domain.AchievementSpyMaster,
				domain.AchievementSilverTongue,
				domain.AchievementDetectivePro,
				domain.AchievementInsiderHero,
			}))
		})
	})
})
