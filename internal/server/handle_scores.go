package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/geodrive/internal/leaderboard"
)

// ScoresResponse is the body of GET /api/leaderboards/{type}.
type ScoresResponse struct {
	ChallengeType leaderboard.ChallengeType `json:"challengeType"`
	Entries       []leaderboard.Entry       `json:"entries"`
}

// SubmitResponse is returned after a score is stored.
type SubmitResponse struct {
	Entry leaderboard.Entry `json:"entry"`
	// Rank is the 1-based leaderboard position, 0 when outside the top.
	Rank int `json:"rank"`
}

func topScores(r *http.Request, scores *ScoreStore, cache *Cache, ct leaderboard.ChallengeType) ([]leaderboard.Entry, error) {
	if entries, ok := cache.Get(r.Context(), ct); ok {
		return entries, nil
	}
	entries, err := scores.Top(r.Context(), ct, leaderboard.Capacity)
	if err != nil {
		return nil, err
	}
	cache.Set(r.Context(), ct, entries)
	return entries, nil
}

func handleListScores(scores *ScoreStore, cache *Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := challengeType(r)
		entries, err := topScores(r, scores, cache, ct)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if entries == nil {
			entries = []leaderboard.Entry{}
		}
		writeJSON(w, http.StatusOK, ScoresResponse{ChallengeType: ct, Entries: entries})
	}
}

func handleSubmitScore(logger *slog.Logger, scores *ScoreStore, cache *Cache, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := challengeType(r)

		var raw leaderboard.Raw
		if err := readJSON(r, &raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		e, ok := leaderboard.Normalize(ct, raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid leaderboard entry")
			return
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.FoundAt == "" {
			e.FoundAt = time.Now().UTC().Format(time.RFC3339Nano)
		}

		inserted, err := scores.Insert(r.Context(), e)
		if err != nil {
			logger.Error("storing score", "type", ct, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !inserted {
			if stored, err := scores.Get(r.Context(), e.ID); err == nil {
				e = stored
			}
		}

		cache.Invalidate(r.Context(), ct)
		top, err := scores.Top(r.Context(), ct, leaderboard.Capacity)
		if err != nil {
			logger.Error("ranking score", "type", ct, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		rank := 0
		for i, t := range top {
			if t.ID == e.ID {
				rank = i + 1
				break
			}
		}

		if inserted {
			logger.Info("score stored", "type", ct, "id", e.ID, "player", e.Player, "rank", rank)
			broker.Publish(ScoreEvent{Type: "score", ChallengeType: ct, Entry: &e, Rank: rank})
		}
		writeJSON(w, http.StatusCreated, SubmitResponse{Entry: e, Rank: rank})
	}
}
