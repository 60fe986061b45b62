package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/bcrypt"
	"nhooyr.io/websocket"

	"github.com/playperu/geodrive/internal/database"
	"github.com/playperu/geodrive/internal/leaderboard"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	db, err := database.Open(context.Background(), database.MemoryPath)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	scores, err := NewScoreStore(db)
	if err != nil {
		t.Fatalf("creating score store: %v", err)
	}
	return Deps{Scores: scores}
}

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	return newRouter(slog.New(slog.DiscardHandler), deps)
}

func flowerEntry(id string, ms int64, foundAt time.Time) leaderboard.Entry {
	return leaderboard.Entry{
		ID:            id,
		ChallengeType: leaderboard.Flower,
		Player:        "Ana",
		TimeMs:        &ms,
		Location:      "Lima",
		Lat:           -12.0464,
		Lon:           -77.0428,
		Mode:          "car",
		FoundAt:       foundAt.UTC().Format(time.RFC3339Nano),
	}
}

func paintEntry(id string, painted int, pct float64, foundAt time.Time) leaderboard.Entry {
	return leaderboard.Entry{
		ID:               id,
		ChallengeType:    leaderboard.PaintTown,
		Player:           "Luz",
		PaintedPct:       &pct,
		PaintedBuildings: painted,
		TotalBuildings:   100,
		Location:         "Lima",
		Mode:             "drone",
		FoundAt:          foundAt.UTC().Format(time.RFC3339Nano),
	}
}

func postEntry(t *testing.T, h http.Handler, ct string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	switch v := body.(type) {
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/api/leaderboards/"+ct, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func listEntries(t *testing.T, h http.Handler, ct string) ScoresResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/leaderboards/"+ct, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp ScoresResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	return resp
}

func TestListScoresEmpty(t *testing.T) {
	h := newTestRouter(t, newTestDeps(t))

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboards/flower", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"entries":[]`) {
		t.Errorf("body = %s, want empty entries array", rec.Body.String())
	}
}

func TestSubmitScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		ct         string
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name:       "flower",
			ct:         "flower",
			body:       flowerEntry("f1", 42000, now),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "paint town",
			ct:         "painttown",
			body:       paintEntry("p1", 12, 12, now),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "flower without time",
			ct:         "flower",
			body:       map[string]any{"challengeType": "flower", "player": "Ana"},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid leaderboard entry",
		},
		{
			name:       "flower overflowing time",
			ct:         "flower",
			body:       map[string]any{"challengeType": "flower", "timeMs": 1e20},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid leaderboard entry",
		},
		{
			name:       "type mismatch",
			ct:         "painttown",
			body:       flowerEntry("f2", 1000, now),
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid leaderboard entry",
		},
		{
			name:       "malformed json",
			ct:         "flower",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "unknown type",
			ct:         "racing",
			body:       flowerEntry("f3", 1000, now),
			wantStatus: http.StatusNotFound,
			wantError:  "unknown challenge type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, newTestDeps(t))
			rec := postEntry(t, h, tt.ct, tt.body, "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				var body ErrorResponse
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decoding error: %v", err)
				}
				if body.Error != tt.wantError {
					t.Errorf("error = %q, want %q", body.Error, tt.wantError)
				}
				return
			}

			var resp SubmitResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding: %v", err)
			}
			if resp.Rank != 1 {
				t.Errorf("rank = %d, want 1", resp.Rank)
			}
			if string(resp.Entry.ChallengeType) != tt.ct {
				t.Errorf("challengeType = %q, want %q", resp.Entry.ChallengeType, tt.ct)
			}
		})
	}
}

func TestSubmitScoreFillsDefaults(t *testing.T) {
	h := newTestRouter(t, newTestDeps(t))

	rec := postEntry(t, h, "flower", map[string]any{"challengeType": "flower", "timeMs": 1500}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Entry.ID == "" {
		t.Error("id was not generated")
	}
	if _, err := time.Parse(time.RFC3339Nano, resp.Entry.FoundAt); err != nil {
		t.Errorf("foundAtIso = %q: %v", resp.Entry.FoundAt, err)
	}
	if resp.Entry.Player != "Anonymous" {
		t.Errorf("player = %q, want Anonymous", resp.Entry.Player)
	}
}

func TestFlowerBoardKeepsFastestTen(t *testing.T) {
	h := newTestRouter(t, newTestDeps(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 12 {
		ms := int64(12000 - i*1000)
		e := flowerEntry(fmt.Sprintf("f%02d", i), ms, base.Add(time.Duration(i)*time.Minute))
		if rec := postEntry(t, h, "flower", e, ""); rec.Code != http.StatusCreated {
			t.Fatalf("post %d status = %d", i, rec.Code)
		}
	}

	got := listEntries(t, h, "flower").Entries
	if len(got) != leaderboard.Capacity {
		t.Fatalf("len = %d, want %d", len(got), leaderboard.Capacity)
	}
	for i, e := range got {
		want := int64(1000 + i*1000)
		if e.TimeMs == nil || *e.TimeMs != want {
			t.Errorf("entry %d timeMs = %v, want %d", i, e.TimeMs, want)
		}
	}

	// A slower run than the whole board is stored but unranked.
	rec := postEntry(t, h, "flower", flowerEntry("slow", 99000, base), "")
	var resp SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Rank != 0 {
		t.Errorf("rank = %d, want 0", resp.Rank)
	}
}

func TestPaintTownBoardOrder(t *testing.T) {
	h := newTestRouter(t, newTestDeps(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, e := range []leaderboard.Entry{
		paintEntry("low", 5, 50, base),
		paintEntry("older", 20, 20, base),
		paintEntry("newer", 20, 20, base.Add(time.Minute)),
		paintEntry("pct", 20, 25, base),
	} {
		if rec := postEntry(t, h, "painttown", e, ""); rec.Code != http.StatusCreated {
			t.Fatalf("post %s status = %d", e.ID, rec.Code)
		}
	}

	var ids []string
	for _, e := range listEntries(t, h, "painttown").Entries {
		ids = append(ids, e.ID)
	}
	if got, want := strings.Join(ids, ","), "pct,newer,older,low"; got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestSubmitDuplicateID(t *testing.T) {
	deps := newTestDeps(t)
	broker := NewBroker()
	h := handleSubmitScore(slog.New(slog.DiscardHandler), deps.Scores, nil, broker)
	r := newTestRouter(t, deps)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if rec := postEntry(t, r, "flower", flowerEntry("dup", 5000, now), ""); rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d", rec.Code)
	}

	ch := broker.Subscribe(leaderboard.Flower)
	defer broker.Unsubscribe(leaderboard.Flower, ch)

	data, _ := json.Marshal(flowerEntry("dup", 1000, now))
	req := httptest.NewRequest(http.MethodPost, "/api/leaderboards/flower", bytes.NewReader(data))
	req = req.WithContext(context.WithValue(req.Context(), ctxKeyChallenge, leaderboard.Flower))
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var resp SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Entry.TimeMs == nil || *resp.Entry.TimeMs != 5000 {
		t.Errorf("timeMs = %v, want stored 5000", resp.Entry.TimeMs)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected event %+v", ev)
	default:
	}
	if got := listEntries(t, r, "flower").Entries; len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestSyncToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	deps := newTestDeps(t)
	deps.SyncTokenHash = string(hash)
	h := newTestRouter(t, deps)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "guess", http.StatusUnauthorized},
		{"valid", "s3cret", http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postEntry(t, h, "flower", flowerEntry("tok-"+tt.name, 3000, now), tt.token)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	// Reads stay open.
	if got := listEntries(t, h, "flower").Entries; len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestListLocations(t *testing.T) {
	h := newTestRouter(t, newTestDeps(t))

	req := httptest.NewRequest(http.MethodGet, "/api/locations", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp LocationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(resp.Locations) == 0 {
		t.Fatal("no locations")
	}
	for _, l := range resp.Locations {
		if l.Name == "" {
			t.Errorf("location without name: %+v", l)
		}
	}
}

func TestUnreachableCacheFallsThrough(t *testing.T) {
	deps := newTestDeps(t)
	deps.Cache = NewCache(deadRedis(), time.Minute, slog.New(slog.DiscardHandler))
	h := newTestRouter(t, deps)

	rec := postEntry(t, h, "flower", flowerEntry("c1", 2000, time.Now()), "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := listEntries(t, h, "flower").Entries; len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestScoreEvents(t *testing.T) {
	h := newTestRouter(t, newTestDeps(t))
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/leaderboards/flower/events", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q", got)
	}

	// Paint-town scores must not reach the flower stream.
	postEntry(t, h, "painttown", paintEntry("p1", 3, 3, time.Now()), "")
	postEntry(t, h, "flower", flowerEntry("f1", 4200, time.Now()), "")

	sc := bufio.NewScanner(resp.Body)
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
			break
		}
	}
	if event != "score" {
		t.Fatalf("event = %q, want score", event)
	}
	var ev ScoreEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if ev.Entry == nil || ev.Entry.ID != "f1" || ev.Rank != 1 {
		t.Errorf("event = %+v, want f1 at rank 1", ev)
	}
}

func TestLeaderboardFeed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	decoders := map[string]func(t *testing.T, typ websocket.MessageType, data []byte) ScoreEvent{
		"json": func(t *testing.T, typ websocket.MessageType, data []byte) ScoreEvent {
			if typ != websocket.MessageText {
				t.Fatalf("message type = %v, want text", typ)
			}
			var ev ScoreEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("decoding json: %v", err)
			}
			return ev
		},
		"msgpack": func(t *testing.T, typ websocket.MessageType, data []byte) ScoreEvent {
			if typ != websocket.MessageBinary {
				t.Fatalf("message type = %v, want binary", typ)
			}
			dec := msgpack.NewDecoder(bytes.NewReader(data))
			dec.SetCustomStructTag("json")
			var ev ScoreEvent
			if err := dec.Decode(&ev); err != nil {
				t.Fatalf("decoding msgpack: %v", err)
			}
			return ev
		},
	}

	for encoding, decode := range decoders {
		t.Run(encoding, func(t *testing.T) {
			h := newTestRouter(t, newTestDeps(t))
			postEntry(t, h, "flower", flowerEntry("seed", 9000, now), "")

			srv := httptest.NewServer(h)
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/leaderboards?encoding=" + encoding
			conn, _, err := websocket.Dial(ctx, url, nil)
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			defer conn.CloseNow()

			read := func() ScoreEvent {
				typ, data, err := conn.Read(ctx)
				if err != nil {
					t.Fatalf("read: %v", err)
				}
				return decode(t, typ, data)
			}

			snapshots := map[leaderboard.ChallengeType]int{}
			for range leaderboard.ChallengeTypes {
				ev := read()
				if ev.Type != "snapshot" {
					t.Fatalf("type = %q, want snapshot", ev.Type)
				}
				snapshots[ev.ChallengeType] = len(ev.Entries)
			}
			if snapshots[leaderboard.Flower] != 1 || snapshots[leaderboard.PaintTown] != 0 {
				t.Errorf("snapshots = %v", snapshots)
			}

			postEntry(t, h, "flower", flowerEntry("fast", 1000, now), "")
			ev := read()
			if ev.Type != "score" || ev.Entry == nil || ev.Entry.ID != "fast" || ev.Rank != 1 {
				t.Errorf("event = %+v, want fast at rank 1", ev)
			}
			conn.Close(websocket.StatusNormalClosure, "")
		})
	}
}

func TestLeaderboardFeedRejectsBadQuery(t *testing.T) {
	h := newTestRouter(t, newTestDeps(t))

	for _, q := range []string{"type=racing", "encoding=xml"} {
		req := httptest.NewRequest(http.MethodGet, "/ws/leaderboards?"+q, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", q, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestHTTPRemoteAgainstServer(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	deps := newTestDeps(t)
	deps.SyncTokenHash = string(hash)
	srv := httptest.NewServer(newTestRouter(t, deps))
	defer srv.Close()

	ctx := context.Background()
	dial := leaderboard.DialHTTP(srv.Client())

	remote, err := dial(ctx, leaderboard.RemoteConfig{BaseURL: srv.URL + "/", Token: "s3cret"})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := remote.Submit(ctx, flowerEntry("r1", 7000, time.Now())); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, err := remote.Fetch(ctx, leaderboard.Flower)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("fetch = %+v", got)
	}

	anon, err := dial(ctx, leaderboard.RemoteConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	err = anon.Submit(ctx, flowerEntry("r2", 7000, time.Now()))
	if err == nil {
		t.Fatal("submit without token succeeded")
	}
	if !strings.Contains(err.Error(), "sync token required") {
		t.Errorf("err = %v", err)
	}
}
