package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Remote is a leaderboard backend reached over the network.
type Remote interface {
	Ping(ctx context.Context) error
	Fetch(ctx context.Context, ct ChallengeType) ([]Entry, error)
	Submit(ctx context.Context, e Entry) error
}

// Dialer connects to a remote backend.
type Dialer func(ctx context.Context, cfg RemoteConfig) (Remote, error)

var ErrRemoteRejected = errors.New("remote rejected request")

// ListResponse is the body of GET /api/leaderboards/{type}.
type ListResponse struct {
	Entries []json.RawMessage `json:"entries"`
}

// HTTPRemote talks to the leaderboard server.
type HTTPRemote struct {
	cfg    RemoteConfig
	client *http.Client
}

func NewHTTPRemote(cfg RemoteConfig, client *http.Client) *HTTPRemote {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPRemote{cfg: cfg.normalized(), client: client}
}

// DialHTTP is a Dialer that checks the server is healthy before handing
// back an HTTPRemote.
func DialHTTP(client *http.Client) Dialer {
	return func(ctx context.Context, cfg RemoteConfig) (Remote, error) {
		if !cfg.Present() {
			return nil, fmt.Errorf("remote config: invalid base url %q", cfg.BaseURL)
		}
		r := NewHTTPRemote(cfg, client)
		if err := r.Ping(ctx); err != nil {
			return nil, err
		}
		return r, nil
	}
}

func (r *HTTPRemote) Ping(ctx context.Context) error {
	resp, err := r.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return rejected(resp)
	}
	return nil
}

func (r *HTTPRemote) Fetch(ctx context.Context, ct ChallengeType) ([]Entry, error) {
	resp, err := r.do(ctx, http.MethodGet, "/api/leaderboards/"+string(ct), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, rejected(resp)
	}

	var body ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding %s leaderboard: %w", ct, err)
	}
	return Sort(ct, DecodeRecords(ct, body.Entries)), nil
}

func (r *HTTPRemote) Submit(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	resp, err := r.do(ctx, http.MethodPost, "/api/leaderboards/"+string(e.ChallengeType), data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return rejected(resp)
	}
	return nil
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func rejected(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	if body.Error != "" {
		return fmt.Errorf("%w: %d %s", ErrRemoteRejected, resp.StatusCode, body.Error)
	}
	return fmt.Errorf("%w: %d", ErrRemoteRejected, resp.StatusCode)
}
