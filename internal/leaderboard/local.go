package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// KV is the string-keyed store local state lives in.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

const (
	keyPlayerName   = "player-name"
	keyRemoteConfig = "remote-config"

	// DefaultPlayerName is used until a name is saved.
	DefaultPlayerName = "Driver"

	maxPlayerName = 24
)

func boardKey(ct ChallengeType) string { return "leaderboard:" + string(ct) }

// LocalStore keeps leaderboards and player settings in a KV. Missing or
// corrupt values read as absent.
type LocalStore struct {
	kv KV
}

func NewLocalStore(kv KV) *LocalStore {
	return &LocalStore{kv: kv}
}

func (s *LocalStore) Fetch(ctx context.Context, ct ChallengeType) ([]Entry, error) {
	data, ok, err := s.kv.Get(ctx, boardKey(ct))
	if err != nil {
		return nil, fmt.Errorf("reading %s leaderboard: %w", ct, err)
	}
	if !ok {
		return []Entry{}, nil
	}
	return Sort(ct, DecodeList(ct, data)), nil
}

// Submit inserts e and keeps the top Capacity entries.
func (s *LocalStore) Submit(ctx context.Context, e Entry) error {
	list, err := s.Fetch(ctx, e.ChallengeType)
	if err != nil {
		return err
	}
	list = Insert(e.ChallengeType, list, e)

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding %s leaderboard: %w", e.ChallengeType, err)
	}
	if err := s.kv.Put(ctx, boardKey(e.ChallengeType), data); err != nil {
		return fmt.Errorf("writing %s leaderboard: %w", e.ChallengeType, err)
	}
	return nil
}

func (s *LocalStore) PlayerName(ctx context.Context) string {
	data, ok, err := s.kv.Get(ctx, keyPlayerName)
	if err != nil || !ok {
		return DefaultPlayerName
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return DefaultPlayerName
	}
	if name = cleanName(name); name == "" {
		return DefaultPlayerName
	}
	return name
}

func (s *LocalStore) SetPlayerName(ctx context.Context, name string) error {
	name = cleanName(name)
	if name == "" {
		name = DefaultPlayerName
	}
	data, _ := json.Marshal(name)
	return s.kv.Put(ctx, keyPlayerName, data)
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxPlayerName {
		name = string(r[:maxPlayerName])
	}
	return name
}

// RemoteConfig returns the saved remote backend settings, if any usable
// ones exist.
func (s *LocalStore) RemoteConfig(ctx context.Context) (RemoteConfig, bool) {
	data, ok, err := s.kv.Get(ctx, keyRemoteConfig)
	if err != nil || !ok {
		return RemoteConfig{}, false
	}
	var cfg RemoteConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RemoteConfig{}, false
	}
	cfg = cfg.normalized()
	return cfg, cfg.Present()
}

func (s *LocalStore) SetRemoteConfig(ctx context.Context, cfg RemoteConfig) error {
	data, err := json.Marshal(cfg.normalized())
	if err != nil {
		return fmt.Errorf("encoding remote config: %w", err)
	}
	return s.kv.Put(ctx, keyRemoteConfig, data)
}
