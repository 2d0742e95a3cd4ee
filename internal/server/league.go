package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bowling-tracker/internal/domain"
	"bowling-tracker/internal/rating"
	"bowling-tracker/internal/repository"
	"bowling-tracker/internal/service"

	"github.com/rs/zerolog"
)

// LeagueServer exposes the league over JSON HTTP. It is a thin boundary:
// validation and state live in the services.
type LeagueServer struct {
	sessionSvc *service.SessionService
	seasonSvc  *service.SeasonService
	playerSvc  *service.PlayerService
	settings   *repository.SettingsRepository
	logger     zerolog.Logger
}

func NewLeagueServer(
	sessionSvc *service.SessionService,
	seasonSvc *service.SeasonService,
	playerSvc *service.PlayerService,
	settings *repository.SettingsRepository,
	logger zerolog.Logger,
) *LeagueServer {
	return &LeagueServer{
		sessionSvc: sessionSvc,
		seasonSvc:  seasonSvc,
		playerSvc:  playerSvc,
		settings:   settings,
		logger:     logger,
	}
}

func (s *LeagueServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/seasons", s.createSeason)
	mux.HandleFunc("GET /v1/seasons/active", s.activeSeason)
	mux.HandleFunc("GET /v1/seasons/standings", s.standings)

	mux.HandleFunc("POST /v1/players", s.registerPlayer)
	mux.HandleFunc("GET /v1/players/{id}", s.getPlayer)
	mux.HandleFunc("POST /v1/players/{id}/seed", s.seedPlayer)
	mux.HandleFunc("GET /v1/players/{id}/history", s.playerHistory)
	mux.HandleFunc("GET /v1/players/{id}/stats", s.playerStats)
	mux.HandleFunc("GET /v1/leaderboard", s.leaderboard)

	mux.HandleFunc("POST /v1/sessions", s.startCheckIn)
	mux.HandleFunc("GET /v1/sessions/current", s.sessionStatus)
	mux.HandleFunc("DELETE /v1/sessions/current", s.cancelSession)
	mux.HandleFunc("POST /v1/sessions/current/checkins", s.checkIn)
	mux.HandleFunc("DELETE /v1/sessions/current/checkins/{playerID}", s.decline)
	mux.HandleFunc("POST /v1/sessions/current/scores", s.submitScore)
	mux.HandleFunc("PUT /v1/sessions/current/scores", s.editScore)
	mux.HandleFunc("POST /v1/sessions/current/corrections", s.proposeCorrection)
	mux.HandleFunc("POST /v1/sessions/current/corrections/{id}/confirm", s.confirmCorrection)
	mux.HandleFunc("DELETE /v1/sessions/current/corrections/{id}", s.cancelCorrection)
	mux.HandleFunc("POST /v1/sessions/current/reveal", s.reveal)

	mux.HandleFunc("PUT /v1/config/{key}", s.setConfig)
	mux.HandleFunc("PUT /v1/ranks", s.upsertRank)
	mux.HandleFunc("PUT /v1/bonuses", s.setBonusRule)

	return mux
}

func (s *LeagueServer) createSeason(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		StartDate string `json:"start_date"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	startDate := time.Now()
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, errors.New("start_date must be YYYY-MM-DD"))
			return
		}
		startDate = parsed
	}

	season, err := s.seasonSvc.Create(r.Context(), req.Name, startDate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, season)
}

func (s *LeagueServer) activeSeason(w http.ResponseWriter, r *http.Request) {
	season, err := s.seasonSvc.Active(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, season)
}

func (s *LeagueServer) standings(w http.ResponseWriter, r *http.Request) {
	stats, err := s.seasonSvc.Standings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"standings": stats})
}

func (s *LeagueServer) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Division    int      `json:"division"`
		StartingMMR *float64 `json:"starting_mmr,omitempty"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	player, err := s.playerSvc.Register(r.Context(), req.Name, req.Division, req.StartingMMR)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, player)
}

func (s *LeagueServer) getPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	player, err := s.playerSvc.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, player)
}

func (s *LeagueServer) seedPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		MMR float64 `json:"mmr"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	player, err := s.playerSvc.Seed(r.Context(), id, req.MMR)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, player)
}

func (s *LeagueServer) playerHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := s.playerSvc.History(r.Context(), id, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (s *LeagueServer) playerStats(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	stats, err := s.seasonSvc.PlayerStats(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *LeagueServer) leaderboard(w http.ResponseWriter, r *http.Request) {
	division := 0
	if raw := r.URL.Query().Get("division"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, errors.New("division must be an integer"))
			return
		}
		division = parsed
	}

	players, err := s.playerSvc.Leaderboard(r.Context(), division)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

func (s *LeagueServer) startCheckIn(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessionSvc.StartCheckIn(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, session)
}

func (s *LeagueServer) sessionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.sessionSvc.Status(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *LeagueServer) cancelSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionSvc.Cancel(r.Context()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) checkIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID int64 `json:"player_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.sessionSvc.CheckIn(r.Context(), req.PlayerID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) decline(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "playerID")
	if !ok {
		return
	}
	if err := s.sessionSvc.Decline(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) submitScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID int64 `json:"player_id"`
		Score    int   `json:"score"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	gameNumber, err := s.sessionSvc.SubmitScore(r.Context(), req.PlayerID, req.Score)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"game_number": gameNumber})
}

func (s *LeagueServer) editScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID   int64 `json:"player_id"`
		GameNumber int   `json:"game_number"`
		Score      int   `json:"score"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.sessionSvc.EditScore(r.Context(), req.PlayerID, req.GameNumber, req.Score); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) proposeCorrection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID   int64 `json:"player_id"`
		GameNumber int   `json:"game_number"`
		Score      int   `json:"score"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.sessionSvc.ProposeCorrection(r.Context(), req.PlayerID, req.GameNumber, req.Score)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"correction_id": id})
}

func (s *LeagueServer) confirmCorrection(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionSvc.ConfirmCorrection(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) cancelCorrection(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionSvc.CancelCorrection(r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) reveal(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.sessionSvc.Reveal(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *LeagueServer) setConfig(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req struct {
		Value string `json:"value"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	switch key {
	case "k_factor", "decay_amount", "decay_threshold", "activation_threshold":
		n, err := strconv.Atoi(req.Value)
		if err != nil || n < 0 || (key == "k_factor" && n == 0) || (key == "activation_threshold" && n == 0) {
			s.writeError(w, r, http.StatusBadRequest, errors.New("value out of range for "+key))
			return
		}
	default:
		s.writeError(w, r, http.StatusBadRequest, errors.New("unknown config key "+key))
		return
	}

	if err := s.settings.SetValue(r.Context(), key, req.Value); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) upsertRank(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Threshold int    `json:"threshold"`
		Color     string `json:"color"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Threshold < 0 {
		s.writeError(w, r, http.StatusBadRequest, errors.New("rank needs a name and a non-negative threshold"))
		return
	}

	err := s.settings.UpsertTier(r.Context(), rating.RankTier{Name: req.Name, Threshold: req.Threshold, Color: req.Color})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) setBonusRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string  `json:"name"`
		Amount    float64 `json:"amount"`
		Threshold *int    `json:"threshold"`
		Active    bool    `json:"active"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("bonus rule needs a name"))
		return
	}

	err := s.settings.SetBonusRule(r.Context(), domain.BonusRule{
		Name:      req.Name,
		Amount:    req.Amount,
		Threshold: req.Threshold,
		IsActive:  req.Active,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeagueServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New("invalid JSON body"))
		return false
	}
	return true
}

func (s *LeagueServer) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New(name+" must be an integer"))
		return 0, false
	}
	return id, true
}

func (s *LeagueServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *LeagueServer) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeServiceError maps domain errors onto HTTP statuses: validation to
// 400, missing entities to 404, precondition refusals to 409.
func (s *LeagueServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidGameNumber),
		errors.Is(err, service.ErrInvalidDivision):
		s.writeError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, repository.ErrPlayerNotFound),
		errors.Is(err, repository.ErrNoOpenSession),
		errors.Is(err, repository.ErrScoreNotFound),
		errors.Is(err, repository.ErrNoActiveSeason),
		errors.Is(err, repository.ErrStatsNotFound),
		errors.Is(err, service.ErrCorrectionNotFound):
		s.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, service.ErrSessionExists),
		errors.Is(err, service.ErrSessionNotActive),
		errors.Is(err, service.ErrNotCheckedIn),
		errors.Is(err, service.ErrBothGamesSubmitted),
		errors.Is(err, service.ErrCorrectionExpired),
		errors.Is(err, rating.ErrTooFewPlayers):
		s.writeError(w, r, http.StatusConflict, err)
	default:
		s.writeError(w, r, http.StatusInternalServerError, err)
	}
}
