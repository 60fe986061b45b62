package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/geodrive/internal/leaderboard"
)

type ctxKey int

const (
	ctxKeyChallenge ctxKey = iota
)

func challengeTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct, ok := leaderboard.ParseChallengeType(chi.URLParam(r, "type"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown challenge type")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyChallenge, ct)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// syncTokenMiddleware requires a bearer token matching hash. An empty hash
// leaves writes open.
func syncTokenMiddleware(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				writeError(w, http.StatusUnauthorized, "sync token required")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid sync token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func challengeType(r *http.Request) leaderboard.ChallengeType {
	return r.Context().Value(ctxKeyChallenge).(leaderboard.ChallengeType)
}
