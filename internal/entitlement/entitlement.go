// Package entitlement tracks which optional capabilities are enabled.
package entitlement

import (
	"sync"

	"github.com/playperu/geodrive/internal/notify"
)

// Service holds the current capability set and announces every change.
type Service struct {
	mu      sync.RWMutex
	granted map[string]bool
	changed notify.Hub[struct{}]
}

func New(capabilities ...string) *Service {
	s := &Service{granted: make(map[string]bool)}
	for _, c := range capabilities {
		s.granted[c] = true
	}
	return s
}

func (s *Service) Has(capability string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.granted[capability]
}

// Set grants or revokes capability, notifying subscribers only when the
// value actually changes.
func (s *Service) Set(capability string, on bool) {
	s.mu.Lock()
	if s.granted[capability] == on {
		s.mu.Unlock()
		return
	}
	if on {
		s.granted[capability] = true
	} else {
		delete(s.granted, capability)
	}
	s.mu.Unlock()
	s.changed.Publish(struct{}{})
}

func (s *Service) Grant(capability string)  { s.Set(capability, true) }
func (s *Service) Revoke(capability string) { s.Set(capability, false) }

// Subscribe calls fn after every change.
func (s *Service) Subscribe(fn func()) (unsubscribe func()) {
	return s.changed.Subscribe(func(struct{}) { fn() })
}
