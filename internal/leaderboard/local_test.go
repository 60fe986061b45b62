package leaderboard

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	putErr error
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(newMemKV())

	got, err := store.Fetch(ctx, Flower)
	if err != nil {
		t.Fatalf("fetch empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty board has %d entries", len(got))
	}

	for _, ms := range []int64{3000, 1000, 2000} {
		if err := store.Submit(ctx, flowerEntry("e", ms)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	got, err = store.Fetch(ctx, Flower)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 3 || *got[0].TimeMs != 1000 {
		t.Errorf("board = %+v", got)
	}

	paint, _ := store.Fetch(ctx, PaintTown)
	if len(paint) != 0 {
		t.Errorf("paint board shares flower entries")
	}
}

func TestLocalStoreCorruptValues(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.data[boardKey(Flower)] = []byte("garbage")
	kv.data[keyPlayerName] = []byte("{")
	kv.data[keyRemoteConfig] = []byte("[1,2")
	store := NewLocalStore(kv)

	got, err := store.Fetch(ctx, Flower)
	if err != nil || len(got) != 0 {
		t.Errorf("corrupt board = %v, %v", got, err)
	}
	if name := store.PlayerName(ctx); name != DefaultPlayerName {
		t.Errorf("player name = %q", name)
	}
	if _, ok := store.RemoteConfig(ctx); ok {
		t.Error("corrupt remote config reported present")
	}
}

func TestLocalStorePlayerName(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(newMemKV())

	if got := store.PlayerName(ctx); got != "Driver" {
		t.Errorf("default = %q", got)
	}
	if err := store.SetPlayerName(ctx, "  Ana  "); err != nil {
		t.Fatal(err)
	}
	if got := store.PlayerName(ctx); got != "Ana" {
		t.Errorf("name = %q", got)
	}
	if err := store.SetPlayerName(ctx, "   "); err != nil {
		t.Fatal(err)
	}
	if got := store.PlayerName(ctx); got != "Driver" {
		t.Errorf("blank name = %q", got)
	}
}

func TestLocalStoreRemoteConfig(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(newMemKV())

	if err := store.SetRemoteConfig(ctx, RemoteConfig{BaseURL: "ftp://nope"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.RemoteConfig(ctx); ok {
		t.Error("ftp url accepted")
	}

	if err := store.SetRemoteConfig(ctx, RemoteConfig{BaseURL: "https://scores.example.com/", Token: "t"}); err != nil {
		t.Fatal(err)
	}
	cfg, ok := store.RemoteConfig(ctx)
	if !ok {
		t.Fatal("config not present")
	}
	if cfg.BaseURL != "https://scores.example.com" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
}

func TestLocalStoreWriteError(t *testing.T) {
	kv := newMemKV()
	kv.putErr = errors.New("disk full")
	store := NewLocalStore(kv)

	err := store.Submit(context.Background(), flowerEntry("e", 10))
	if !errors.Is(err, kv.putErr) {
		t.Errorf("err = %v", err)
	}
}
