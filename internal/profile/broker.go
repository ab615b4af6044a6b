package profile

import (
	"sync"
	"time"
)

const subscriberBuffer = 4

// AvatarUpdate announces a user's new avatar URL; empty means removed.
type AvatarUpdate struct {
	UserID    string    `json:"userId"`
	AvatarURL string    `json:"avatarUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type subscriber struct {
	ch   chan AvatarUpdate
	once sync.Once
}

// Broker fans avatar updates out to the subscribers of each user.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers for userID's updates. cancel unregisters and closes
// the channel; it is safe to call more than once.
func (b *Broker) Subscribe(userID string) (<-chan AvatarUpdate, func()) {
	s := &subscriber{ch: make(chan AvatarUpdate, subscriberBuffer)}

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*subscriber]struct{})
	}
	b.subs[userID][s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs[userID], s)
		if len(b.subs[userID]) == 0 {
			delete(b.subs, userID)
		}
		b.mu.Unlock()
		s.once.Do(func() { close(s.ch) })
	}
	return s.ch, cancel
}

// Publish delivers u to every subscriber of u.UserID. A subscriber whose
// buffer is full misses the update; Publish never blocks. It returns the
// number of subscribers reached.
func (b *Broker) Publish(u AvatarUpdate) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for s := range b.subs[u.UserID] {
		select {
		case s.ch <- u:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers reports how many listeners userID has.
func (b *Broker) Subscribers(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
