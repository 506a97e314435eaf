// Package feed fans out projected token events to in-process subscribers.
package feed

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"factoryMonitor/internal/model"
)

// Kind identifies the notification payload.
type Kind string

const (
	KindTrade   Kind = "trade"
	KindHalted  Kind = "halted"
	KindResumed Kind = "resumed"
)

// Notification is published after a successful projection.
type Notification struct {
	Kind  Kind             `json:"kind"`
	Token string           `json:"token"`
	Trade *model.Trade     `json:"trade,omitempty"`
	State model.TokenState `json:"state,omitempty"`
}

// Publisher is the producer side injected into the projector.
type Publisher interface {
	Publish(n Notification) int
}

// Broker routes notifications to subscribers keyed by lowercase token address.
// Each subscriber has a bounded buffer; when it is full the notification is dropped for that subscriber.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	logger *zap.Logger
}

// NewBroker creates a broker with per-subscriber buffer size.
func NewBroker(buffer int, logger *zap.Logger) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscription receives notifications for one token.
type Subscription struct {
	token  string
	ch     chan Notification
	broker *Broker
}

// Events returns the receive channel. It is closed when the subscription or broker closes.
func (s *Subscription) Events() <-chan Notification {
	return s.ch
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.remove(s)
}

// Subscribe registers a subscriber for token.
func (b *Broker) Subscribe(token string) *Subscription {
	key := strings.ToLower(token)
	sub := &Subscription{
		token:  key,
		ch:     make(chan Notification, b.buffer),
		broker: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	if b.subs[key] == nil {
		b.subs[key] = make(map[*Subscription]struct{})
	}
	b.subs[key][sub] = struct{}{}
	return sub
}

// Publish delivers n to every subscriber of n.Token without blocking and returns the delivery count.
func (b *Broker) Publish(n Notification) int {
	key := strings.ToLower(n.Token)

	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for sub := range b.subs[key] {
		select {
		case sub.ch <- n:
			delivered++
		default:
			b.logger.Warn("feed subscriber full, dropping notification",
				zap.String("token", key),
				zap.String("kind", string(n.Kind)),
			)
		}
	}
	return delivered
}

// Subscribers returns the number of subscribers for token.
func (b *Broker) Subscribers(token string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[strings.ToLower(token)])
}

// Close closes all subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for key, subs := range b.subs {
		for sub := range subs {
			close(sub.ch)
		}
		delete(b.subs, key)
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.subs[sub.token]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(b.subs, sub.token)
	}
}
