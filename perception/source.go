package perception

import (
	"sync"

	"github.com/jsphweid/handcomposer/model"
)

// Source is polled once per tick. fresh is false when no new frame arrived
// since the previous poll.
type Source interface {
	Next() (obs model.Observation, fresh bool)
}

// Latest is a single-slot mailbox: producers overwrite, the tick loop takes.
type Latest struct {
	mu    sync.Mutex
	obs   model.Observation
	fresh bool
}

func (l *Latest) Put(obs model.Observation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.obs = obs
	l.fresh = true
}

func (l *Latest) Next() (model.Observation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fresh := l.fresh
	l.fresh = false
	return l.obs, fresh
}
