package minigame

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/geodrive/internal/geo"
	"github.com/playperu/geodrive/internal/leaderboard"
)

// PaintSnapshot is the final coverage of a paint-town run.
type PaintSnapshot struct {
	PaintedBuildings int
	TotalBuildings   int
	PaintedPct       *float64
	Duration         time.Duration
}

// Normalize clamps counts into range and derives the percentage from the
// counts when it is missing or not finite.
func (s PaintSnapshot) Normalize() PaintSnapshot {
	s.TotalBuildings = max(s.TotalBuildings, 0)
	s.PaintedBuildings = max(s.PaintedBuildings, 0)
	if s.TotalBuildings > 0 {
		s.PaintedBuildings = min(s.PaintedBuildings, s.TotalBuildings)
	}
	s.Duration = max(s.Duration, 0)

	if s.PaintedPct == nil || math.IsNaN(*s.PaintedPct) || math.IsInf(*s.PaintedPct, 0) {
		var pct float64
		if s.TotalBuildings > 0 {
			pct = float64(s.PaintedBuildings) / float64(s.TotalBuildings) * 100
		}
		s.PaintedPct = &pct
	}
	pct := math.Round(min(max(*s.PaintedPct, 0), 100)*100) / 100
	s.PaintedPct = &pct
	return s
}

// Submitter stores and reads leaderboards.
type Submitter interface {
	Submit(ctx context.Context, e leaderboard.Entry) (leaderboard.Result, error)
	Fetch(ctx context.Context, ct leaderboard.ChallengeType) ([]leaderboard.Entry, leaderboard.Backend, error)
}

// PlayerSource returns the display name for new entries.
type PlayerSource interface {
	PlayerName(ctx context.Context) string
}

// PaintTown turns finished paint runs into leaderboard entries.
type PaintTown struct {
	sub    Submitter
	player PlayerSource
	actor  Actor
	field  FieldSource
	clock  Clock
	logger *slog.Logger
}

func NewPaintTown(sub Submitter, player PlayerSource, actor Actor, field FieldSource, clock Clock, logger *slog.Logger) *PaintTown {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PaintTown{sub: sub, player: player, actor: actor, field: field, clock: clock, logger: logger}
}

// Entry builds the leaderboard entry for snap at the actor's position.
func (p *PaintTown) Entry(ctx context.Context, snap PaintSnapshot) leaderboard.Entry {
	snap = snap.Normalize()
	field := p.field.Field()
	pos := p.actor.Position()
	ll := field.Frame.ToGeo(pos.X, pos.Z)

	e := leaderboard.Entry{
		ID:               uuid.NewString(),
		ChallengeType:    leaderboard.PaintTown,
		Player:           p.player.PlayerName(ctx),
		PaintedPct:       snap.PaintedPct,
		PaintedBuildings: snap.PaintedBuildings,
		TotalBuildings:   snap.TotalBuildings,
		Location:         field.Location,
		Lat:              geo.Round6(ll.Lat),
		Lon:              geo.Round6(ll.Lon),
		Mode:             p.actor.Mode().String(),
		FoundAt:          p.clock.Now().UTC().Format(time.RFC3339Nano),
	}
	if ms := snap.Duration.Milliseconds(); ms > 0 {
		e.TimeMs = &ms
	}
	return e
}

// Submit records snap and returns the refreshed paint-town board.
func (p *PaintTown) Submit(ctx context.Context, snap PaintSnapshot) (leaderboard.Result, []leaderboard.Entry, error) {
	e := p.Entry(ctx, snap)
	res, err := p.sub.Submit(ctx, e)
	if err != nil {
		return res, nil, fmt.Errorf("submitting paint-town score: %w", err)
	}
	p.logger.Info("paint-town score saved",
		"backend", res.Backend, "painted", e.PaintedBuildings, "total", e.TotalBuildings)

	board, _, err := p.sub.Fetch(ctx, leaderboard.PaintTown)
	if err != nil {
		return res, nil, fmt.Errorf("refreshing paint-town leaderboard: %w", err)
	}
	return res, board, nil
}
