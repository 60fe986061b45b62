package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"github.com/playperu/geodrive/internal/leaderboard"
)

// feedEncoder writes one event as a websocket message.
type feedEncoder func(ev ScoreEvent) (websocket.MessageType, []byte, error)

func encodeJSON(ev ScoreEvent) (websocket.MessageType, []byte, error) {
	data, err := json.Marshal(ev)
	return websocket.MessageText, data, err
}

// encodeMsgpack uses the json tags so both encodings share field names.
func encodeMsgpack(ev ScoreEvent) (websocket.MessageType, []byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	err := enc.Encode(ev)
	return websocket.MessageBinary, buf.Bytes(), err
}

// handleLeaderboardFeed sends the current boards on connect and then every
// new score. ?type= limits the feed to one challenge type and
// ?encoding=msgpack switches to binary frames.
func handleLeaderboardFeed(logger *slog.Logger, scores *ScoreStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types := leaderboard.ChallengeTypes
		var key leaderboard.ChallengeType
		if raw := r.URL.Query().Get("type"); raw != "" {
			ct, ok := leaderboard.ParseChallengeType(raw)
			if !ok {
				writeError(w, http.StatusBadRequest, "unknown challenge type")
				return
			}
			types = []leaderboard.ChallengeType{ct}
			key = ct
		}

		encode := feedEncoder(encodeJSON)
		switch r.URL.Query().Get("encoding") {
		case "", "json":
		case "msgpack":
			encode = encodeMsgpack
		default:
			writeError(w, http.StatusBadRequest, "unsupported encoding")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := broker.Subscribe(key)
		defer broker.Unsubscribe(key, ch)

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()
		// The feed is one-way; CloseRead handles control frames and ends
		// ctx when the client goes away.
		ctx = conn.CloseRead(ctx)

		send := func(ev ScoreEvent) bool {
			typ, data, err := encode(ev)
			if err != nil {
				logger.Error("encoding feed event", "error", err)
				return false
			}
			if err := conn.Write(ctx, typ, data); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return false
			}
			return true
		}

		for _, ct := range types {
			entries, err := scores.Top(ctx, ct, leaderboard.Capacity)
			if err != nil {
				logger.Error("loading feed snapshot", "type", ct, "error", err)
				conn.Close(websocket.StatusInternalError, "internal error")
				return
			}
			if entries == nil {
				entries = []leaderboard.Entry{}
			}
			if !send(ScoreEvent{Type: "snapshot", ChallengeType: ct, Entries: entries}) {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if !send(ev) {
					return
				}
			}
		}
	}
}
