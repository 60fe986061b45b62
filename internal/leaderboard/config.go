package leaderboard

import (
	"net/url"
	"strings"
)

// RemoteConfig locates the remote leaderboard backend.
type RemoteConfig struct {
	BaseURL string `json:"baseUrl"`
	Token   string `json:"token,omitempty"`
}

func (c RemoteConfig) normalized() RemoteConfig {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Token = strings.TrimSpace(c.Token)
	return c
}

// Present reports whether c names an http(s) backend.
func (c RemoteConfig) Present() bool {
	u, err := url.Parse(c.normalized().BaseURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
