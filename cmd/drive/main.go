// Command drive runs a headless session: a drone autopilot chasing flower
// markers in a loaded world, with scores synced to the leaderboard server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/geodrive/internal/config"
	"github.com/playperu/geodrive/internal/database"
	"github.com/playperu/geodrive/internal/entitlement"
	"github.com/playperu/geodrive/internal/geo"
	"github.com/playperu/geodrive/internal/kinematics"
	"github.com/playperu/geodrive/internal/kv"
	"github.com/playperu/geodrive/internal/leaderboard"
	"github.com/playperu/geodrive/internal/minigame"
	"github.com/playperu/geodrive/internal/session"
	"github.com/playperu/geodrive/internal/spatial"
	"github.com/playperu/geodrive/internal/world"
)

// restartDelay is how long the autopilot waits before starting another run.
const restartDelay = 2 * time.Second

// Posts left at found flowers.
const (
	postSize   = 1.5
	postHeight = 3.0
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.LoadDrive()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Local state ---
	db, err := database.Open(ctx, cfg.StateDB)
	if err != nil {
		return fmt.Errorf("opening state db: %w", err)
	}
	defer db.Close()

	store, err := kv.New(db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	local := leaderboard.NewLocalStore(store)
	if cfg.PlayerName != "" {
		if err := local.SetPlayerName(ctx, cfg.PlayerName); err != nil {
			return fmt.Errorf("saving player name: %w", err)
		}
	}
	if cfg.RemoteURL != "" {
		if err := local.SetRemoteConfig(ctx, cfg.Remote()); err != nil {
			return fmt.Errorf("saving remote config: %w", err)
		}
	}

	// --- Leaderboards ---
	var caps []string
	if cfg.CloudSync {
		caps = append(caps, leaderboard.CloudSync)
	}
	ent := entitlement.New(caps...)
	lb := leaderboard.NewSynchronizer(local,
		leaderboard.DialHTTP(&http.Client{Timeout: 10 * time.Second}),
		ent,
		leaderboard.WithLogger(logger),
		leaderboard.WithProbeInterval(cfg.ProbeInterval),
	)
	lb.OnBoard(func(b leaderboard.Board) {
		logger.Info("leaderboard", "type", b.Type, "backend", b.Backend, "entries", len(b.Entries))
	})

	// --- World ---
	load := func(ctx context.Context, sel geo.Selection) (*world.World, error) {
		f, err := os.Open(cfg.WorldFile)
		if err != nil {
			return nil, fmt.Errorf("opening world file: %w", err)
		}
		defer f.Close()
		w, _, err := world.Load(f, sel, cfg.WorldScale, logger)
		return w, err
	}
	w, err := load(ctx, cfg.Selection())
	if err != nil {
		return err
	}

	sess := session.New(ctx, w, lb, load, session.Config{
		Tuning: cfg.Tuning,
		Flower: cfg.Flower,
		Logger: logger,
	})
	defer sess.Close()

	stopWatch := lb.Watch(ctx, ent)
	defer stopWatch()

	sess.OnStatus(func(st session.Status) {
		logger.Debug("session status",
			"backend", st.Backend,
			"ready", st.Ready,
			"config_present", st.ConfigPresent,
			"challenge_active", st.ChallengeActive,
		)
	})
	st := sess.Connect(ctx)
	logger.Info("leaderboards ready", "backend", st.Backend, "config_present", st.ConfigPresent)

	sess.StartGame()
	if err := sess.Switch(kinematics.ModeDrone); err != nil {
		return fmt.Errorf("launching drone: %w", err)
	}

	// --- Run ---
	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return handleSignals(gctx, logger, sess, ent)
	})

	g.Go(func() error {
		return drive(gctx, logger, sess, cfg.TickRate)
	})

	err = g.Wait()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("session finished", "location", sess.World().Location.Name)
	return err
}

// drive ticks the session at rate Hz, flying toward the flower marker and
// starting a new run whenever none is active.
func drive(ctx context.Context, logger *slog.Logger, sess *session.Session, rate int) error {
	dt := 1 / float64(rate)
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	var nextStart, markedRun time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			var in kinematics.Input
			r, ok := sess.Flower().Run()
			switch {
			case ok && r.Active:
				p := sess.Pose()
				in = steer(p.Position, p.Heading, r.Marker)
			case ok && sess.Flower().State() == minigame.FlowerComplete && !r.StartedAt.Equal(markedRun):
				markedRun = r.StartedAt
				markFound(logger, sess, r.Marker)
			case now.After(nextStart) && !sess.WorldLoading():
				nextStart = now.Add(restartDelay)
				notice, err := sess.StartFlower("autopilot")
				if err != nil {
					logger.Warn("flower not started", "notice", notice.Text, "error", err)
					break
				}
				logger.Info("flower started", "notice", notice.Text)
				if err := sess.Switch(kinematics.ModeDrone); err != nil {
					logger.Warn("launching drone", "error", err)
				}
			}
			sess.Tick(dt, in)
		}
	}
}

// markFound leaves a post where a flower was found and brings the drone
// back to the car for the next run.
func markFound(logger *slog.Logger, sess *session.Session, at r3.Vector) {
	bounds := spatial.Rect{MinX: at.X - postSize, MinZ: at.Z - postSize, MaxX: at.X + postSize, MaxZ: at.Z + postSize}
	if _, err := sess.PlaceStructure(bounds, postHeight); err != nil {
		logger.Warn("placing found marker", "error", err)
	}
	if err := sess.RecallDrone(); err != nil {
		logger.Warn("recalling drone", "error", err)
	}
}

// handleSignals toggles cloud sync on SIGUSR1 and moves to the next preset
// location on SIGUSR2.
func handleSignals(ctx context.Context, logger *slog.Logger, sess *session.Session, ent *entitlement.Service) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	presets := geo.Catalog()
	next := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigs:
			switch sig {
			case syscall.SIGUSR1:
				on := !ent.Has(leaderboard.CloudSync)
				ent.Set(leaderboard.CloudSync, on)
				logger.Info("cloud sync toggled", "enabled", on)
			case syscall.SIGUSR2:
				loc := presets[next%len(presets)]
				next++
				if err := sess.ChangeLocation(ctx, geo.Preset(loc.Name)); err != nil {
					logger.Error("changing location", "location", loc.Name, "error", err)
				}
			}
		}
	}
}
