package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playperu/geodrive/internal/leaderboard"
	"github.com/playperu/geodrive/internal/migrations"
)

var ErrNotFound = errors.New("not found")

// rankingOrder is the SQL ordering of each leaderboard.
var rankingOrder = map[leaderboard.ChallengeType]string{
	leaderboard.Flower:    `time_ms ASC, found_at ASC`,
	leaderboard.PaintTown: `painted_buildings DESC, COALESCE(painted_pct, 0) DESC, found_at DESC`,
}

// ScoreStore keeps one row per entry with the full entry as a JSONB
// document next to the ranking columns.
type ScoreStore struct {
	db *sql.DB
}

func NewScoreStore(db *sql.DB) (*ScoreStore, error) {
	if err := migrations.RunServer(db); err != nil {
		return nil, err
	}
	return &ScoreStore{db: db}, nil
}

// Insert stores e. It reports false when an entry with the same id exists.
func (s *ScoreStore) Insert(ctx context.Context, e leaderboard.Entry) (bool, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("encoding entry: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (id, challenge_type, time_ms, painted_buildings, painted_pct, found_at, data)
		 VALUES (?, ?, ?, ?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO NOTHING`,
		e.ID, string(e.ChallengeType), e.TimeMs, e.PaintedBuildings, e.PaintedPct, e.FoundAt, string(data),
	)
	if err != nil {
		return false, fmt.Errorf("inserting score: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Top returns the best limit entries for ct.
func (s *ScoreStore) Top(ctx context.Context, ct leaderboard.ChallengeType, limit int) ([]leaderboard.Entry, error) {
	order, ok := rankingOrder[ct]
	if !ok {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM scores WHERE challenge_type = ? ORDER BY %s LIMIT ?`, order),
		string(ct), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s scores: %w", ct, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		records = append(records, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scores: %w", err)
	}
	return leaderboard.Sort(ct, leaderboard.DecodeRecords(ct, records)), nil
}

// Get returns the entry with id.
func (s *ScoreStore) Get(ctx context.Context, id string) (leaderboard.Entry, error) {
	var ct, data string
	err := s.db.QueryRowContext(ctx,
		`SELECT challenge_type, json(data) FROM scores WHERE id = ?`, id,
	).Scan(&ct, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return leaderboard.Entry{}, ErrNotFound
	}
	if err != nil {
		return leaderboard.Entry{}, err
	}
	entries := leaderboard.DecodeRecords(leaderboard.ChallengeType(ct), []json.RawMessage{json.RawMessage(data)})
	if len(entries) == 0 {
		return leaderboard.Entry{}, ErrNotFound
	}
	return entries[0], nil
}
