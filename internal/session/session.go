// Package session wires a loaded world, the player's actors, the
// challenges and the leaderboard synchronizer into one tick loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/playperu/geodrive/internal/geo"
	"github.com/playperu/geodrive/internal/kinematics"
	"github.com/playperu/geodrive/internal/leaderboard"
	"github.com/playperu/geodrive/internal/minigame"
	"github.com/playperu/geodrive/internal/notify"
	"github.com/playperu/geodrive/internal/spatial"
	"github.com/playperu/geodrive/internal/surface"
	"github.com/playperu/geodrive/internal/world"
)

var ErrInvalidStructure = errors.New("structure needs finite bounds and a positive height")

// Loader builds the world for a location.
type Loader func(ctx context.Context, sel geo.Selection) (*world.World, error)

// Status is published whenever the backend state or challenge activity
// changes.
type Status struct {
	ConfigPresent   bool                `json:"configPresent"`
	Ready           bool                `json:"ready"`
	Backend         leaderboard.Backend `json:"backend"`
	ChallengeActive bool                `json:"challengeActive"`
}

type Config struct {
	Tuning kinematics.Tuning
	Flower minigame.FlowerConfig
	Scene  minigame.Scene
	Clock  minigame.Clock
	Rand   *rand.Rand
	Logger *slog.Logger
}

// snapshot is everything derived from one loaded world. It is swapped as a
// whole so a tick never mixes two frames.
type snapshot struct {
	world    *world.World
	resolver *surface.Resolver
	env      kinematics.Env
	field    minigame.Field
}

func newSnapshot(w *world.World) *snapshot {
	r := surface.ForWorld(w)
	return &snapshot{
		world:    w,
		resolver: r,
		env:      kinematics.Env{Ground: r, Roads: w.RoadIndex()},
		field: minigame.Field{
			Roads:    w.Roads,
			Ground:   r,
			Frame:    w.Frame,
			Location: w.Location.Name,
		},
	}
}

// Pose is the active actor's state after the latest tick.
type Pose struct {
	Position r3.Vector
	Heading  float64
	Mode     kinematics.Mode
}

type Session struct {
	ctx    context.Context
	logger *slog.Logger
	load   Loader
	sync   *leaderboard.Synchronizer

	cur         atomic.Pointer[snapshot]
	pose        atomic.Pointer[Pose]
	environment atomic.Int32
	started     atomic.Bool
	loading     atomic.Bool

	// tickMu serializes everything that touches the rig.
	tickMu sync.Mutex
	rig    *kinematics.Rig
	flower *minigame.Flower
	paint  *minigame.PaintTown

	statuses notify.Hub[Status]
	pending  sync.WaitGroup
	unsub    func()
}

// New starts a session in w. ctx bounds background leaderboard work.
func New(ctx context.Context, w *world.World, lb *leaderboard.Synchronizer, load Loader, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		ctx:    ctx,
		logger: cfg.Logger,
		load:   load,
		sync:   lb,
	}
	snap := newSnapshot(w)
	s.cur.Store(snap)

	start := spawnPoint(snap)
	s.rig = kinematics.NewRig(start, 0, cfg.Tuning)
	s.rig.Teleport(start, 0, snap.env)
	s.storePose()

	s.flower = minigame.NewFlower(cfg.Flower, minigame.FlowerDeps{
		Env:    s,
		Field:  s,
		Actor:  s.rig,
		Scene:  cfg.Scene,
		Clock:  cfg.Clock,
		Rand:   cfg.Rand,
		Logger: cfg.Logger,
	})
	s.flower.OnComplete(s.submitFlower)
	s.flower.OnActiveChange(func(bool) { s.publish() })
	s.paint = minigame.NewPaintTown(lb, lb.Local(), poseActor{s}, s, cfg.Clock, cfg.Logger)
	s.unsub = lb.OnState(func(leaderboard.State) { s.publish() })
	return s
}

// spawnPoint is the first road vertex, or the origin on an empty map.
func spawnPoint(snap *snapshot) r3.Vector {
	var p r3.Vector
	for _, road := range snap.world.Roads {
		if len(road.Points) > 0 {
			p = r3.Vector{X: road.Points[0].X, Z: road.Points[0].Z}
			break
		}
	}
	p.Y = snap.resolver.SurfaceHeight(p.X, p.Z)
	return p
}

func (s *Session) Environment() minigame.Env { return minigame.Env(s.environment.Load()) }
func (s *Session) GameStarted() bool         { return s.started.Load() }
func (s *Session) WorldLoading() bool        { return s.loading.Load() }

func (s *Session) SetEnvironment(e minigame.Env) { s.environment.Store(int32(e)) }

func (s *Session) StartGame() { s.started.Store(true) }

// StopGame clears the started flag. An active challenge is abandoned on the
// next tick.
func (s *Session) StopGame() { s.started.Store(false) }

// Field returns the current world as the challenges see it.
func (s *Session) Field() minigame.Field { return s.cur.Load().field }

func (s *Session) World() *world.World                     { return s.cur.Load().world }
func (s *Session) Flower() *minigame.Flower                { return s.flower }
func (s *Session) Synchronizer() *leaderboard.Synchronizer { return s.sync }

// Pose returns the active actor's state after the latest tick.
func (s *Session) Pose() Pose { return *s.pose.Load() }

func (s *Session) storePose() {
	a := s.rig.Active()
	s.pose.Store(&Pose{Position: a.Position(), Heading: a.Heading(), Mode: a.Mode()})
}

// poseActor reads the last published pose so callers off the tick
// goroutine never touch the rig.
type poseActor struct{ s *Session }

func (p poseActor) Position() r3.Vector   { return p.s.Pose().Position }
func (p poseActor) Mode() kinematics.Mode { return p.s.Pose().Mode }

// Tick advances the active actor against the current world, then checks
// the flower challenge against the position just computed.
func (s *Session) Tick(dt float64, in kinematics.Input) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	snap := s.cur.Load()
	s.rig.Step(dt, in, snap.env)
	s.storePose()
	s.flower.Update(dt)
}

// Switch changes the active actor.
func (s *Session) Switch(to kinematics.Mode) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if err := s.rig.Switch(to, s.cur.Load().env); err != nil {
		return err
	}
	s.storePose()
	return nil
}

// RecallDrone brings the player back to the car and parks the drone, so
// the next switch launches it from the car again.
func (s *Session) RecallDrone() error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if s.rig.Mode() == kinematics.ModeDrone {
		if err := s.rig.Switch(kinematics.ModeDriving, s.cur.Load().env); err != nil {
			return err
		}
	}
	s.rig.Recall()
	s.storePose()
	return nil
}

// PlaceStructure stands a box of the given height on the current surface
// at the centre of bounds and returns its id.
func (s *Session) PlaceStructure(bounds spatial.Rect, height float64) (int, error) {
	for _, v := range []float64{bounds.MinX, bounds.MinZ, bounds.MaxX, bounds.MaxZ, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrInvalidStructure
		}
	}
	if height <= 0 || bounds.MaxX <= bounds.MinX || bounds.MaxZ <= bounds.MinZ {
		return 0, ErrInvalidStructure
	}
	snap := s.cur.Load()
	ground := snap.resolver.SurfaceHeight((bounds.MinX+bounds.MaxX)/2, (bounds.MinZ+bounds.MaxZ)/2)
	return snap.world.Structures.Add(bounds, ground+height), nil
}

// RemoveStructure removes a structure from the current world.
func (s *Session) RemoveStructure(id int) { s.cur.Load().world.Structures.Remove(id) }

// StartFlower starts a flower run and returns the notice to show.
func (s *Session) StartFlower(source string) (minigame.Notice, error) {
	s.tickMu.Lock()
	err := s.flower.Start(source)
	s.tickMu.Unlock()
	return minigame.NoticeFor(err), err
}

func (s *Session) StopFlower() { s.flower.Stop() }

// SubmitPaint records a finished paint-town run.
func (s *Session) SubmitPaint(ctx context.Context, snap minigame.PaintSnapshot) (leaderboard.Result, []leaderboard.Entry, error) {
	return s.paint.Submit(ctx, snap)
}

// ChangeLocation loads the world for sel and swaps it in. The session
// reports loading until the swap completes.
func (s *Session) ChangeLocation(ctx context.Context, sel geo.Selection) error {
	s.loading.Store(true)
	defer s.loading.Store(false)

	w, err := s.load(ctx, sel)
	if err != nil {
		return fmt.Errorf("changing location: %w", err)
	}
	snap := newSnapshot(w)

	s.tickMu.Lock()
	s.flower.Stop()
	s.cur.Store(snap)
	s.rig.Teleport(spawnPoint(snap), 0, snap.env)
	s.storePose()
	s.tickMu.Unlock()

	s.logger.Info("location changed", "location", w.Location.Name)
	return nil
}

// Connect resolves the leaderboard backend.
func (s *Session) Connect(ctx context.Context) Status {
	s.sync.Connect(ctx)
	return s.Status()
}

func (s *Session) Status() Status {
	st := s.sync.State()
	return Status{
		ConfigPresent:   st.ConfigPresent,
		Ready:           st.Ready,
		Backend:         st.Backend,
		ChallengeActive: s.flower.Active(),
	}
}

// OnStatus registers fn for every status change.
func (s *Session) OnStatus(fn func(Status)) (unsubscribe func()) { return s.statuses.Subscribe(fn) }

func (s *Session) publish() { s.statuses.Publish(s.Status()) }

// submitFlower stores a completion in the background so the tick is never
// blocked on the network.
func (s *Session) submitFlower(c minigame.Completion) {
	s.pending.Go(func() {
		ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
		defer cancel()

		e := c.Entry(uuid.NewString(), s.sync.Local().PlayerName(ctx))
		res, err := s.sync.Submit(ctx, e)
		if err != nil {
			s.logger.Error("saving flower score", "error", err)
			return
		}
		s.logger.Info("flower score saved", "backend", res.Backend, "time_ms", *e.TimeMs, "location", e.Location)
		if _, _, err := s.sync.Fetch(ctx, leaderboard.Flower); err != nil {
			s.logger.Warn("refreshing flower leaderboard", "error", err)
		}
	})
}

// Close waits for background submissions.
func (s *Session) Close() {
	s.unsub()
	s.pending.Wait()
}
