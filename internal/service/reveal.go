package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bowling-tracker/internal/domain"
	"bowling-tracker/internal/rating"
	"bowling-tracker/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Reveal finalizes the current session: it runs the pairwise rating update,
// then the attendance/decay pass, and commits every player, score, stats and
// history mutation in a single transaction. On any failure the whole reveal
// rolls back and the session stays unrevealed for retry.
//
// Ordering is deliberate: decay is computed from the post-Elo MMR, after the
// session's competitive result, never folded into it.
func (s *SessionService) Reveal(ctx context.Context) (*RevealOutcome, error) {
	s.revealMu.Lock()
	defer s.revealMu.Unlock()

	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, fmt.Errorf("%w: session %d", ErrSessionNotActive, session.ID)
	}

	// Config is read fresh at the start of every reveal.
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	checkIns, err := s.sessions.ListCheckIns(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	input, preMMR, misses, err := s.collectCompletePlayers(ctx, session.ID, checkIns)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("session_id", session.ID).
		Int("players", len(input)).
		Int("checked_in", len(checkIns)).
		Int("k_factor", settings.KFactor).
		Msg("starting session reveal")

	results, err := rating.ProcessSession(input, settings.KFactor, settings.Bonus, settings.Tiers)
	if err != nil {
		return nil, err
	}

	submitted := make(map[int64]bool, len(input))
	scores := make(map[int64]rating.PlayerScore, len(input))
	for _, p := range input {
		submitted[p.PlayerID] = true
		scores[p.PlayerID] = p
	}

	revealedAt := time.Now()
	outcome := &RevealOutcome{SessionID: session.ID, Results: results}
	var historyRows []domain.RatingHistory

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reveal transaction: %w", err)
	}
	defer tx.Rollback()

	// Phase 1: competitive results. Post-Elo MMR per player feeds phase 2.
	postElo := make(map[int64]float64, len(checkIns))
	finalRank := make(map[int64]rating.RankTier, len(checkIns))
	for _, ci := range checkIns {
		if mmr, ok := preMMR[ci.PlayerID]; ok && !submitted[ci.PlayerID] {
			postElo[ci.PlayerID] = mmr
			finalRank[ci.PlayerID] = rating.ResolveRank(mmr, settings.Tiers)
		}
	}

	for _, res := range results {
		postElo[res.PlayerID] = res.NewMMR
		finalRank[res.PlayerID] = res.NewRank

		if err := s.players.ApplyRatingState(ctx, tx, res.PlayerID, res.NewMMR, misses[res.PlayerID], res.NewRank.Name); err != nil {
			return nil, err
		}
		if err := s.sessions.UpdateScoreSnapshots(ctx, tx, session.ID, res.PlayerID,
			res.OldMMR, res.NewMMR, float64(res.MMRChange), float64(res.BonusMMR)); err != nil {
			return nil, err
		}

		p := scores[res.PlayerID]
		if err := s.applySeasonStats(ctx, tx, res.PlayerID, session.SeasonID, p.Game1, p.Game2, res.NewMMR, res.OldMMR); err != nil {
			return nil, err
		}
	}

	// Phase 2: attendance and decay for every checked-in player, on post-Elo
	// MMR. Players who never checked in are untouched.
	for _, ci := range checkIns {
		mmr, ok := postElo[ci.PlayerID]
		if !ok {
			continue
		}
		attended := submitted[ci.PlayerID]

		upd := rating.UpdateAttendance(attended, mmr, misses[ci.PlayerID], settings.DecayAmount, settings.DecayThreshold)

		rank := finalRank[ci.PlayerID]
		if upd.DecayApplied != 0 {
			rank = rating.ResolveRank(upd.NewMMR, settings.Tiers)
			finalRank[ci.PlayerID] = rank

			outcome.Decays = append(outcome.Decays, DecayNotice{
				PlayerID:        ci.PlayerID,
				MMRBeforeDecay:  mmr,
				MMRAfterDecay:   upd.NewMMR,
				DecayApplied:    upd.DecayApplied,
				UnexcusedMisses: upd.NewMisses,
			})
			s.logger.Warn().
				Int64("player_id", ci.PlayerID).
				Float64("mmr_before", mmr).
				Float64("mmr_after", upd.NewMMR).
				Int("misses", upd.NewMisses).
				Msg("attendance decay applied")
		}

		if err := s.players.ApplyRatingState(ctx, tx, ci.PlayerID, upd.NewMMR, upd.NewMisses, rank.Name); err != nil {
			return nil, err
		}
		postElo[ci.PlayerID] = upd.NewMMR

		if attended {
			res := resultFor(results, ci.PlayerID)
			historyRows = append(historyRows, domain.RatingHistory{
				PlayerID:   ci.PlayerID,
				SessionID:  session.ID,
				Series:     res.Series,
				MMRChange:  res.MMRChange,
				EloChange:  res.EloChange,
				BonusMMR:   res.BonusMMR,
				MMRAfter:   upd.NewMMR,
				RankName:   rank.Name,
				RevealedAt: revealedAt,
			})
		} else if upd.DecayApplied != 0 {
			historyRows = append(historyRows, domain.RatingHistory{
				PlayerID:     ci.PlayerID,
				SessionID:    session.ID,
				DecayApplied: upd.DecayApplied,
				MMRAfter:     upd.NewMMR,
				RankName:     rank.Name,
				RevealedAt:   revealedAt,
			})
		}
	}

	if err := s.history.InsertBatch(ctx, tx, historyRows); err != nil {
		return nil, err
	}
	if err := s.sessions.MarkRevealed(ctx, tx, session.ID, revealedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reveal: %w", err)
	}

	s.logger.Info().
		Int64("session_id", session.ID).
		Int("players", len(results)).
		Int("decays", len(outcome.Decays)).
		Msg("session revealed")

	// Notification is outward-facing and non-fatal; the reveal is committed.
	summary := summarize(results)
	for _, d := range outcome.Decays {
		summary = append(summary, fmt.Sprintf("player %d: %.1f -> %.1f (decay %d, %d unexcused misses)",
			d.PlayerID, d.MMRBeforeDecay, d.MMRAfterDecay, d.DecayApplied, d.UnexcusedMisses))
	}
	g := new(errgroup.Group)
	g.Go(func() error {
		s.notifier.ResultsPosted(session.ID, summary)
		return nil
	})
	go func() { _ = g.Wait() }()

	return outcome, nil
}

// collectCompletePlayers builds the processor input from checked-in players
// with both games recorded, plus pre-session MMR and miss snapshots for the
// attendance pass over all checked-in players.
func (s *SessionService) collectCompletePlayers(ctx context.Context, sessionID int64, checkIns []domain.CheckIn) ([]rating.PlayerScore, map[int64]float64, map[int64]int, error) {
	var input []rating.PlayerScore
	preMMR := make(map[int64]float64, len(checkIns))
	misses := make(map[int64]int, len(checkIns))

	for _, ci := range checkIns {
		player, err := s.players.GetByID(ctx, ci.PlayerID)
		if err != nil {
			return nil, nil, nil, err
		}
		preMMR[player.ID] = player.CurrentMMR
		misses[player.ID] = player.UnexcusedMisses

		scores, err := s.sessions.PlayerScores(ctx, sessionID, ci.PlayerID)
		if err != nil {
			return nil, nil, nil, err
		}
		if len(scores) < 2 {
			continue
		}

		ps := rating.PlayerScore{
			PlayerID:   player.ID,
			CurrentMMR: player.CurrentMMR,
			Division:   player.Division,
		}
		for _, sc := range scores {
			switch sc.GameNumber {
			case 1:
				ps.Game1 = sc.Score
			case 2:
				ps.Game2 = sc.Score
			}
		}
		input = append(input, ps)
	}
	return input, preMMR, misses, nil
}

func (s *SessionService) applySeasonStats(ctx context.Context, tx repository.DBTX, playerID, seasonID int64, game1, game2 int, newMMR, oldMMR float64) error {
	stats, err := s.stats.Get(ctx, tx, playerID, seasonID)
	if err != nil {
		if !errors.Is(err, repository.ErrStatsNotFound) {
			return err
		}
		stats = &domain.SeasonStats{
			PlayerID:    playerID,
			SeasonID:    seasonID,
			StartingMMR: oldMMR,
			PeakMMR:     newMMR,
		}
	}

	series := game1 + game2
	stats.GamesPlayed += 2
	stats.TotalPins += series
	stats.SeasonAverage = float64(stats.TotalPins) / float64(stats.GamesPlayed)

	if high := max(game1, game2); high > stats.HighestGame {
		stats.HighestGame = high
	}
	if series > stats.HighestSeries {
		stats.HighestSeries = series
	}
	if newMMR > stats.PeakMMR {
		stats.PeakMMR = newMMR
	}

	return s.stats.Upsert(ctx, tx, *stats)
}

func resultFor(results []rating.Result, playerID int64) rating.Result {
	for _, r := range results {
		if r.PlayerID == playerID {
			return r
		}
	}
	return rating.Result{PlayerID: playerID}
}

func summarize(results []rating.Result) []string {
	sorted := make([]rating.Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MMRChange > sorted[j].MMRChange })

	lines := make([]string, 0, len(sorted))
	for _, r := range sorted {
		lines = append(lines, fmt.Sprintf("player %d: %.1f -> %.1f (%+d MMR)", r.PlayerID, r.OldMMR, r.NewMMR, r.MMRChange))
	}
	return lines
}
