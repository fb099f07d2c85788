// Package goal tracks progress toward a stream goal by listening to the
// event bus and republishing derived goal-update events.
package goal

import (
	"sync"

	"github.com/Agash/StreamWeaver-sub002/internal/bus"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
)

// Tracker counts subscription, donation, and follow events toward a target
// and republishes a goal-update event through the same bus on every change.
type Tracker struct {
	mu      sync.Mutex
	bus     *bus.Bus
	name    string
	target  int
	current int
}

func New(b *bus.Bus, name string, target int) *Tracker {
	t := &Tracker{bus: b, name: name, target: target}
	b.Subscribe(domain.KindSubscription, t.onCountable)
	b.Subscribe(domain.KindDonation, t.onCountable)
	b.Subscribe(domain.KindFollow, t.onCountable)
	return t
}

func (t *Tracker) onCountable(domain.Event) {
	t.mu.Lock()
	t.current++
	snapshot := domain.GoalPayload{Name: t.name, Current: t.current, Target: t.target}
	t.mu.Unlock()

	t.bus.Publish(domain.NewGoalUpdate(snapshot))
}

// Snapshot returns the current goal progress.
func (t *Tracker) Snapshot() domain.GoalPayload {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.GoalPayload{Name: t.name, Current: t.current, Target: t.target}
}
