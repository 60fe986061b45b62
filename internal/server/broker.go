package server

import (
	"sync"

	"github.com/playperu/geodrive/internal/leaderboard"
)

// ScoreEvent is pushed to live feed subscribers.
type ScoreEvent struct {
	Type          string                    `json:"type"`
	ChallengeType leaderboard.ChallengeType `json:"challengeType"`
	Entry         *leaderboard.Entry        `json:"entry,omitempty"`
	Rank          int                       `json:"rank,omitempty"`
	Entries       []leaderboard.Entry       `json:"entries,omitempty"`
}

// Broker is an in-process pub/sub for score events, keyed by challenge
// type. Subscribers to the empty key receive every type.
type Broker struct {
	mu   sync.RWMutex
	subs map[leaderboard.ChallengeType]map[chan ScoreEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[leaderboard.ChallengeType]map[chan ScoreEvent]struct{}),
	}
}

// Subscribe returns a channel that receives events for ct.
func (b *Broker) Subscribe(ct leaderboard.ChallengeType) chan ScoreEvent {
	ch := make(chan ScoreEvent, 16)
	b.mu.Lock()
	if b.subs[ct] == nil {
		b.subs[ct] = make(map[chan ScoreEvent]struct{})
	}
	b.subs[ct][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from ct's subscribers.
func (b *Broker) Unsubscribe(ct leaderboard.ChallengeType, ch chan ScoreEvent) {
	b.mu.Lock()
	delete(b.subs[ct], ch)
	if len(b.subs[ct]) == 0 {
		delete(b.subs, ct)
	}
	b.mu.Unlock()
}

// Publish sends an event to the subscribers of its challenge type.
func (b *Broker) Publish(event ScoreEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, key := range []leaderboard.ChallengeType{event.ChallengeType, ""} {
		for ch := range b.subs[key] {
			select {
			case ch <- event:
			default:
				// Drop if subscriber is slow.
			}
		}
	}
}
