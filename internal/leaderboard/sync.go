package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/playperu/geodrive/internal/notify"
)

type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

// CloudSync is the entitlement that enables the remote backend.
const CloudSync = "cloud-sync"

// DefaultProbeInterval is how long the synchronizer stays on local storage
// after a remote failure before trying the remote again.
const DefaultProbeInterval = 30 * time.Second

var (
	ErrNotEntitled    = errors.New("cloud sync not enabled")
	ErrNoRemoteConfig = errors.New("remote backend not configured")
	ErrDegraded       = errors.New("remote backend recently failed")
	errStaleInit      = errors.New("remote initialization superseded")
)

// Entitlements answers capability checks.
type Entitlements interface {
	Has(capability string) bool
}

// ChangeNotifier delivers "entitlements changed" notifications.
type ChangeNotifier interface {
	Subscribe(fn func()) (unsubscribe func())
}

// State is a snapshot of the synchronizer's backend status.
type State struct {
	ConfigPresent bool    `json:"configPresent"`
	Ready         bool    `json:"ready"`
	Backend       Backend `json:"backend"`
}

// Result reports where a submitted entry ended up.
type Result struct {
	Persisted bool
	Backend   Backend
}

// Board is a freshly fetched leaderboard.
type Board struct {
	Type    ChallengeType
	Entries []Entry
	Backend Backend
}

type Option func(*Synchronizer)

func WithLogger(l *slog.Logger) Option { return func(s *Synchronizer) { s.logger = l } }

// WithProbeInterval sets how long a failed remote stays unused before the
// next call dials it again.
func WithProbeInterval(d time.Duration) Option { return func(s *Synchronizer) { s.probeInterval = d } }

func WithClock(now func() time.Time) Option { return func(s *Synchronizer) { s.now = now } }

// Synchronizer reads and writes leaderboards remote-first, falling back to
// the local store. Remote initialization is shared by concurrent callers and
// cleared on failure or reset.
type Synchronizer struct {
	local         *LocalStore
	dial          Dialer
	ent           Entitlements
	logger        *slog.Logger
	probeInterval time.Duration
	now           func() time.Time

	group singleflight.Group

	mu            sync.Mutex
	remote        Remote
	gen           uint64
	lastFailure   time.Time
	configPresent bool
	ready         bool
	backend       Backend

	states notify.Hub[State]
	boards notify.Hub[Board]
}

// NewSynchronizer builds a synchronizer. A nil ent leaves the remote
// backend ungated.
func NewSynchronizer(local *LocalStore, dial Dialer, ent Entitlements, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		local:         local,
		dial:          dial,
		ent:           ent,
		logger:        slog.New(slog.DiscardHandler),
		probeInterval: DefaultProbeInterval,
		now:           time.Now,
		backend:       BackendLocal,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) Local() *LocalStore { return s.local }

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Synchronizer) stateLocked() State {
	return State{ConfigPresent: s.configPresent, Ready: s.ready, Backend: s.backend}
}

// OnState registers fn for every state change.
func (s *Synchronizer) OnState(fn func(State)) (unsubscribe func()) { return s.states.Subscribe(fn) }

// OnBoard registers fn for every fetched leaderboard.
func (s *Synchronizer) OnBoard(fn func(Board)) (unsubscribe func()) { return s.boards.Subscribe(fn) }

func (s *Synchronizer) entitled() bool {
	return s.ent == nil || s.ent.Has(CloudSync)
}

// update applies fn under the lock and publishes the new state when it
// changed.
func (s *Synchronizer) update(fn func()) {
	s.mu.Lock()
	before := s.stateLocked()
	fn()
	after := s.stateLocked()
	s.mu.Unlock()
	if after != before {
		s.states.Publish(after)
	}
}

// Reset drops the remote connection and any in-flight initialization.
func (s *Synchronizer) Reset() {
	s.update(func() {
		s.gen++
		s.remote = nil
		s.lastFailure = time.Time{}
		s.backend = BackendLocal
	})
	s.group.Forget("remote")
}

// Connect resolves the backend for subsequent calls. It never fails; when
// the remote cannot be used the synchronizer settles on local storage.
func (s *Synchronizer) Connect(ctx context.Context) State {
	if _, err := s.ensure(ctx); err != nil {
		s.logger.Info("using local leaderboard", "reason", err.Error())
	}
	s.update(func() { s.ready = true })
	return s.State()
}

// ensure returns the remote backend, initializing it if needed. After a
// failed initialization, calls within the probe interval return
// ErrDegraded without dialing; the first call after it, or after Reset,
// dials again from scratch. WithProbeInterval(0) retries on every call.
func (s *Synchronizer) ensure(ctx context.Context) (Remote, error) {
	if !s.entitled() {
		s.mu.Lock()
		dirty := s.remote != nil || s.backend != BackendLocal
		s.mu.Unlock()
		if dirty {
			s.Reset()
		}
		return nil, ErrNotEntitled
	}

	cfg, ok := s.local.RemoteConfig(ctx)
	s.update(func() { s.configPresent = ok })
	if !ok {
		return nil, ErrNoRemoteConfig
	}

	s.mu.Lock()
	if s.remote != nil {
		r := s.remote
		s.mu.Unlock()
		return r, nil
	}
	if !s.lastFailure.IsZero() && s.now().Sub(s.lastFailure) < s.probeInterval {
		s.mu.Unlock()
		return nil, ErrDegraded
	}
	gen := s.gen
	s.mu.Unlock()

	v, err, _ := s.group.Do("remote", func() (any, error) {
		r, err := s.dial(context.WithoutCancel(ctx), cfg)

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return nil, errStaleInit
		}
		if err != nil {
			s.lastFailure = s.now()
			return nil, fmt.Errorf("connecting remote leaderboard: %w", err)
		}
		s.remote = r
		s.lastFailure = time.Time{}
		return r, nil
	})
	if err != nil {
		s.setBackend(BackendLocal)
		return nil, err
	}
	s.setBackend(BackendRemote)
	return v.(Remote), nil
}

func (s *Synchronizer) setBackend(b Backend) {
	s.update(func() { s.backend = b })
}

// fail marks r unusable until the next probe.
func (s *Synchronizer) fail(r Remote, op string, err error) {
	s.logger.Warn("remote leaderboard unavailable", "op", op, "error", err)
	s.update(func() {
		if s.remote == r {
			s.remote = nil
			s.lastFailure = s.now()
		}
		s.backend = BackendLocal
	})
}

// Submit stores e remotely when possible, otherwise locally.
func (s *Synchronizer) Submit(ctx context.Context, e Entry) (Result, error) {
	e, err := e.Validate()
	if err != nil {
		return Result{Backend: BackendLocal}, err
	}

	if r, err := s.ensure(ctx); err == nil {
		err := r.Submit(ctx, e)
		if err == nil {
			s.setBackend(BackendRemote)
			return Result{Persisted: true, Backend: BackendRemote}, nil
		}
		s.fail(r, "submit", err)
	}

	if err := s.local.Submit(ctx, e); err != nil {
		return Result{Backend: BackendLocal}, err
	}
	s.setBackend(BackendLocal)
	return Result{Persisted: true, Backend: BackendLocal}, nil
}

// Fetch returns the ranked leaderboard for ct and publishes it to OnBoard
// subscribers.
func (s *Synchronizer) Fetch(ctx context.Context, ct ChallengeType) ([]Entry, Backend, error) {
	entries, backend, err := s.fetch(ctx, ct)
	if err != nil {
		return nil, backend, err
	}
	s.boards.Publish(Board{Type: ct, Entries: entries, Backend: backend})
	return entries, backend, nil
}

func (s *Synchronizer) fetch(ctx context.Context, ct ChallengeType) ([]Entry, Backend, error) {
	if r, err := s.ensure(ctx); err == nil {
		entries, err := r.Fetch(ctx, ct)
		if err == nil {
			s.setBackend(BackendRemote)
			return entries, BackendRemote, nil
		}
		s.fail(r, "fetch", err)
	}

	entries, err := s.local.Fetch(ctx, ct)
	if err != nil {
		return nil, BackendLocal, err
	}
	s.setBackend(BackendLocal)
	return entries, BackendLocal, nil
}

// HandleEntitlementsChanged resets the backend and refetches every board.
func (s *Synchronizer) HandleEntitlementsChanged(ctx context.Context) {
	s.Reset()
	for _, ct := range ChallengeTypes {
		if _, _, err := s.Fetch(ctx, ct); err != nil {
			s.logger.Error("refreshing leaderboard", "type", ct, "error", err)
		}
	}
}

// Watch reacts to entitlement changes from n in the background until the
// returned function is called or ctx ends.
func (s *Synchronizer) Watch(ctx context.Context, n ChangeNotifier) (stop func()) {
	var wg sync.WaitGroup
	unsubscribe := n.Subscribe(func() {
		if ctx.Err() != nil {
			return
		}
		wg.Go(func() { s.HandleEntitlementsChanged(ctx) })
	})
	return func() {
		unsubscribe()
		wg.Wait()
	}
}
