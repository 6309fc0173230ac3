package server

import (
	"context"
	"net/http"
	"spy-game/internal/constants"
	"spy-game/internal/domain"
	"spy-game/internal/game"
	"spy-game/internal/service"
	"spy-game/internal/stats"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const ServicePath = "/spygame.v1.SpyGameService/"

type Empty struct{}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type AddPlayerRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type PlayerIndexRequest struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

type ConfigureGameRequest struct {
	SessionID string        `json:"session_id"`
	Settings  game.Settings `json:"settings"`
}

type NavigateRequest struct {
	SessionID string     `json:"session_id"`
	Phase     game.Phase `json:"phase"`
}

type AdminLoginRequest struct {
	SessionID  string `json:"session_id"`
	Passphrase string `json:"passphrase"`
}

type SubmitBallotRequest struct {
	SessionID string `json:"session_id"`
	Targets   []int  `json:"targets"`
}

type DeclareWinnerRequest struct {
	SessionID string        `json:"session_id"`
	Winner    domain.Winner `json:"winner"`
}

type PlayerNameRequest struct {
	PlayerName string `json:"player_name"`
}

type GenerateCategoryRequest struct {
	Difficulty domain.Difficulty `json:"difficulty"`
}

type DeleteCategoryRequest struct {
	Name string `json:"name"`
}

type ScoresResponse struct {
	Scores []domain.ScoreRecord `json:"scores"`
}

type HistoryResponse struct {
	History []domain.HistoryEntry `json:"history"`
}

// AchievementsResponse lists what a player has earned and, in display
// order, what is still locked.
type AchievementsResponse struct {
	PlayerName   string                     `json:"player_name"`
	Achievements []domain.AchievementRecord `json:"achievements"`
	Locked       []domain.AchievementID     `json:"locked"`
}

type StatsResponse struct {
	Stats []PlayerStatsView `json:"stats"`
}

type PlayerStatsView struct {
	stats.PlayerStats
	WinRate int `json:"win_rate"`
}

// OverviewResponse is everything the history screen shows at once.
type OverviewResponse struct {
	Scores  []domain.ScoreRecord  `json:"scores"`
	History []domain.HistoryEntry `json:"history"`
	Stats   []PlayerStatsView     `json:"stats"`
}

type CategoriesResponse struct {
	Categories []service.CategoryInfo `json:"categories"`
}

type SpyGameServer struct {
	gameSvc     *service.GameService
	statsSvc    *service.StatsService
	categorySvc *service.CategoryService
	logger      zerolog.Logger
}

func NewSpyGameServer(gameSvc *service.GameService, statsSvc *service.StatsService, categorySvc *service.CategoryService, logger zerolog.Logger) *SpyGameServer {
	return &SpyGameServer{gameSvc: gameSvc, statsSvc: statsSvc, categorySvc: categorySvc, logger: logger}
}

// Handler returns the service path prefix and a handler serving every
// procedure beneath it.
func (s *SpyGameServer) Handler() (string, http.Handler) {
	mux := http.NewServeMux()
	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(s.loggingInterceptor()),
	}

	unary(mux, "CreateSession", s.CreateSession, opts...)
	unary(mux, "GetSession", s.GetSession, opts...)
	unary(mux, "AddPlayer", s.AddPlayer, opts...)
	unary(mux, "RemovePlayer", s.RemovePlayer, opts...)
	unary(mux, "CycleAvatar", s.CycleAvatar, opts...)
	unary(mux, "ConfigureGame", s.ConfigureGame, opts...)
	unary(mux, "StartGame", s.StartGame, opts...)
	unary(mux, "RevealRole", s.RevealRole, opts...)
	unary(mux, "NextReveal", s.NextReveal, opts...)
	unary(mux, "ConfirmStart", s.ConfirmStart, opts...)
	unary(mux, "PauseTimer", s.PauseTimer, opts...)
	unary(mux, "ResumeTimer", s.ResumeTimer, opts...)
	unary(mux, "StartVoting", s.StartVoting, opts...)
	unary(mux, "SubmitBallot", s.SubmitBallot, opts...)
	unary(mux, "Abstain", s.Abstain, opts...)
	unary(mux, "DeclareWinner", s.DeclareWinner, opts...)
	unary(mux, "ReturnToMenu", s.ReturnToMenu, opts...)
	unary(mux, "Navigate", s.Navigate, opts...)
	unary(mux, "AdminLogin", s.AdminLogin, opts...)
	unary(mux, "GetScores", s.GetScores, opts...)
	unary(mux, "ResetScores", s.ResetScores, opts...)
	unary(mux, "GetHistory", s.GetHistory, opts...)
	unary(mux, "ResetHistory", s.ResetHistory, opts...)
	unary(mux, "GetAchievements", s.GetAchievements, opts...)
	unary(mux, "GetStats", s.GetStats, opts...)
	unary(mux, "GetOverview", s.GetOverview, opts...)
	unary(mux, "ListCategories", s.ListCategories, opts...)
	unary(mux, "GenerateCategory", s.GenerateCategory, opts...)
	unary(mux, "DeleteCategory", s.DeleteCategory, opts...)

	return ServicePath, mux
}

func unary[Req, Res any](mux *http.ServeMux, method string, fn func(context.Context, *Req) (*Res, error), opts ...connect.HandlerOption) {
	procedure := ServicePath + method
	mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
			defer cancel()

			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		},
		opts...,
	))
}

func (s *SpyGameServer) loggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			logger := zerolog.Ctx(ctx)
			if logger.GetLevel() == zerolog.Disabled {
				logger = &s.logger
			}
			ev := logger.Debug()
			if err != nil {
				code := connect.CodeOf(err)
				if code == connect.CodeInternal || code == connect.CodeUnknown {
					ev = logger.Error()
				} else {
					ev = logger.Info()
				}
				ev = ev.Err(err).Str("code", code.String())
			}
			ev.Str("procedure", req.Spec().Procedure).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Msg("rpc handled")
			return res, err
		}
	}
}

func (s *SpyGameServer) CreateSession(ctx context.Context, _ *Empty) (*service.SessionView, error) {
	return s.gameSvc.Create(ctx)
}

func (s *SpyGameServer) GetSession(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.Get(req.SessionID)
}

func (s *SpyGameServer) AddPlayer(ctx context.Context, req *AddPlayerRequest) (*service.SessionView, error) {
	return s.gameSvc.AddPlayer(req.SessionID, req.Name)
}

func (s *SpyGameServer) RemovePlayer(ctx context.Context, req *PlayerIndexRequest) (*service.SessionView, error) {
	return s.gameSvc.RemovePlayer(req.SessionID, req.Index)
}

func (s *SpyGameServer) CycleAvatar(ctx context.Context, req *PlayerIndexRequest) (*service.SessionView, error) {
	return s.gameSvc.CycleAvatar(req.SessionID, req.Index)
}

func (s *SpyGameServer) ConfigureGame(ctx context.Context, req *ConfigureGameRequest) (*service.SessionView, error) {
	return s.gameSvc.Configure(ctx, req.SessionID, req.Settings)
}

func (s *SpyGameServer) StartGame(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.StartGame(ctx, req.SessionID)
}

func (s *SpyGameServer) RevealRole(ctx context.Context, req *SessionRequest) (*game.RoleCard, error) {
	return s.gameSvc.RevealRole(req.SessionID)
}

func (s *SpyGameServer) NextReveal(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.NextReveal(req.SessionID)
}

func (s *SpyGameServer) ConfirmStart(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.ConfirmStart(req.SessionID)
}

func (s *SpyGameServer) PauseTimer(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.PauseTimer(req.SessionID)
}

func (s *SpyGameServer) ResumeTimer(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.ResumeTimer(req.SessionID)
}

func (s *SpyGameServer) StartVoting(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.StartVoting(req.SessionID)
}

func (s *SpyGameServer) SubmitBallot(ctx context.Context, req *SubmitBallotRequest) (*service.SessionView, error) {
	return s.gameSvc.SubmitBallot(req.SessionID, req.Targets)
}

func (s *SpyGameServer) Abstain(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.Abstain(req.SessionID)
}

func (s *SpyGameServer) DeclareWinner(ctx context.Context, req *DeclareWinnerRequest) (*service.DeclareResult, error) {
	return s.gameSvc.DeclareWinner(ctx, req.SessionID, req.Winner)
}

func (s *SpyGameServer) ReturnToMenu(ctx context.Context, req *SessionRequest) (*service.SessionView, error) {
	return s.gameSvc.ReturnToMenu(req.SessionID)
}

func (s *SpyGameServer) Navigate(ctx context.Context, req *NavigateRequest) (*service.SessionView, error) {
	return s.gameSvc.Navigate(req.SessionID, req.Phase)
}

func (s *SpyGameServer) AdminLogin(ctx context.Context, req *AdminLoginRequest) (*service.SessionView, error) {
	return s.gameSvc.AdminLogin(req.SessionID, req.Passphrase)
}

func (s *SpyGameServer) GetScores(ctx context.Context, _ *Empty) (*ScoresResponse, error) {
	scores, err := s.statsSvc.Scores(ctx)
	if err != nil {
		return nil, err
	}
	return &ScoresResponse{Scores: scores}, nil
}

func (s *SpyGameServer) ResetScores(ctx context.Context, _ *Empty) (*ScoresResponse, error) {
	if err := s.statsSvc.ResetScores(ctx); err != nil {
		return nil, err
	}
	return &ScoresResponse{Scores: []domain.ScoreRecord{}}, nil
}

func (s *SpyGameServer) GetHistory(ctx context.Context, _ *Empty) (*HistoryResponse, error) {
	history, err := s.statsSvc.History(ctx)
	if err != nil {
		return nil, err
	}
	return &HistoryResponse{History: history}, nil
}

func (s *SpyGameServer) ResetHistory(ctx context.Context, _ *Empty) (*HistoryResponse, error) {
	if err := s.statsSvc.ResetHistory(ctx); err != nil {
		return nil, err
	}
	return &HistoryResponse{History: []domain.HistoryEntry{}}, nil
}

func (s *SpyGameServer) GetAchievements(ctx context.Context, req *PlayerNameRequest) (*AchievementsResponse, error) {
	records, err := s.statsSvc.Achievements(ctx, req.PlayerName)
	if err != nil {
		return nil, err
	}
	earned := make(map[domain.AchievementID]bool, len(records))
	for _, r := range records {
		earned[r.AchievementID] = true
	}
	locked := make([]domain.AchievementID, 0, len(domain.Achievements))
	for _, id := range domain.Achievements {
		if !earned[id] {
			locked = append(locked, id)
		}
	}
	return &AchievementsResponse{PlayerName: req.PlayerName, Achievements: records, Locked: locked}, nil
}

func (s *SpyGameServer) GetStats(ctx context.Context, _ *Empty) (*StatsResponse, error) {
	all, err := s.statsSvc.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{Stats: statsViews(all)}, nil
}

func (s *SpyGameServer) GetOverview(ctx context.Context, _ *Empty) (*OverviewResponse, error) {
	overview, err := s.statsSvc.Overview(ctx)
	if err != nil {
		return nil, err
	}
	return &OverviewResponse{
		Scores:  overview.Scores,
		History: overview.History,
		Stats:   statsViews(overview.Stats),
	}, nil
}

func statsViews(all []stats.PlayerStats) []PlayerStatsView {
	views := make([]PlayerStatsView, 0, len(all))
	for _, st := range all {
		views = append(views, PlayerStatsView{PlayerStats: st, WinRate: st.WinRate()})
	}
	return views
}

func (s *SpyGameServer) ListCategories(ctx context.Context, _ *Empty) (*CategoriesResponse, error) {
	categories, err := s.categorySvc.List(ctx)
	if err != nil {
		return nil, err
	}
	return &CategoriesResponse{Categories: categories}, nil
}

func (s *SpyGameServer) GenerateCategory(ctx context.Context, req *GenerateCategoryRequest) (*service.CategoryInfo, error) {
	return s.categorySvc.Generate(ctx, req.Difficulty)
}

func (s *SpyGameServer) DeleteCategory(ctx context.Context, req *DeleteCategoryRequest) (*CategoriesResponse, error) {
	if err := s.categorySvc.Delete(ctx, req.Name); err != nil {
		return nil, err
	}
	return s.ListCategories(ctx, &Empty{})
}
