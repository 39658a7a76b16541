package server

import (
	"sync"

	"github.com/raterudder/powerflow/pkg/animation"
)

// cardSession is the animation state of one card. mu is held for the whole
// frame computation so updates of a card are applied in order.
type cardSession struct {
	mu      sync.Mutex
	session animation.Session
}

type sessionMap struct {
	mu    sync.Mutex
	cards map[string]*cardSession
}

func newSessionMap() *sessionMap {
	return &sessionMap{cards: make(map[string]*cardSession)}
}

// get returns the session for cardID, creating it if needed.
func (m *sessionMap) get(cardID string) *cardSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.cards[cardID]
	if !ok {
		cs = &cardSession{}
		m.cards[cardID] = cs
	}
	return cs
}

// reset drops the session so the next frame restarts every animation.
func (m *sessionMap) reset(cardID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cards, cardID)
}
