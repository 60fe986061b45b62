package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/geodrive/internal/database"
)

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   -1,
	})
}

func TestHandleHealth(t *testing.T) {
	db, err := database.Open(context.Background(), database.MemoryPath)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()

	sqlite := CheckerFunc(db.PingContext)
	cache := NewCache(deadRedis(), time.Minute, slog.Default())

	tests := []struct {
		name       string
		checks     map[string]Checker
		wantStatus int
		want       map[string]string
	}{
		{
			name:       "sqlite only",
			checks:     map[string]Checker{"sqlite": sqlite},
			wantStatus: http.StatusOK,
			want:       map[string]string{"sqlite": "ok"},
		},
		{
			name:       "sqlite ok redis down",
			checks:     map[string]Checker{"sqlite": sqlite, "redis": cache},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"sqlite": "ok", "redis": "error"},
		},
		{
			name: "failing checker",
			checks: map[string]Checker{"sqlite": CheckerFunc(func(context.Context) error {
				return errors.New("disk gone")
			})},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"sqlite": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handleHealth(slog.Default(), tt.checks)

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]struct{ Status string }
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding: %v", err)
			}
			if len(body) != len(tt.want) {
				t.Errorf("body = %v", body)
			}
			for name, want := range tt.want {
				if got := body[name].Status; got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}
