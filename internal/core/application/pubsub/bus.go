package pubsub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
)

// EventBus delivers lifecycle events to its subscribers. Every subscriber
// has its own unbounded queue drained by a dedicated goroutine, so that
// publishing never blocks and each subscriber sees events in publishing
// order.
type EventBus struct {
	lock   *sync.RWMutex
	subs   map[string]*subscriber
	closed bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		lock: &sync.RWMutex{},
		subs: make(map[string]*subscriber),
	}
}

func (b *EventBus) Publish(event ports.Event) {
	if len(event.ID) <= 0 {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.topic == domain.AnyTopic || sub.topic == event.Topic {
			sub.push(event)
		}
	}
}

func (b *EventBus) Subscribe(topic string, handler ports.EventHandler) string {
	sub := newSubscriber(topic, handler)

	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		sub.stop()
		return sub.id
	}
	b.subs[sub.id] = sub
	go sub.listen()
	return sub.id
}

// Unsubscribe stops the delivery of events to the given subscriber. Events
// already queued are still delivered.
func (b *EventBus) Unsubscribe(id string) {
	b.lock.Lock()
	sub, ok := b.subs[id]
	delete(b.subs, id)
	b.lock.Unlock()

	if ok {
		sub.stop()
	}
}

// Close stops all subscribers and waits for their queues to be drained.
func (b *EventBus) Close() {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[string]*subscriber)
	b.lock.Unlock()

	for _, sub := range subs {
		sub.stop()
		<-sub.done
	}
}

type subscriber struct {
	id      string
	topic   string
	handler ports.EventHandler

	lock    *sync.Mutex
	cond    *sync.Cond
	queue   []ports.Event
	stopped bool
	done    chan struct{}
}

func newSubscriber(topic string, handler ports.EventHandler) *subscriber {
	lock := &sync.Mutex{}
	return &subscriber{
		id:      uuid.New().String(),
		topic:   topic,
		handler: handler,
		lock:    lock,
		cond:    sync.NewCond(lock),
		queue:   make([]ports.Event, 0),
		done:    make(chan struct{}),
	}
}

func (s *subscriber) push(event ports.Event) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopped {
		return
	}
	s.queue = append(s.queue, event)
	s.cond.Signal()
}

func (s *subscriber) stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.stopped = true
	s.cond.Broadcast()
}

func (s *subscriber) listen() {
	defer close(s.done)

	for {
		s.lock.Lock()
		for len(s.queue) <= 0 && !s.stopped {
			s.cond.Wait()
		}
		if len(s.queue) <= 0 {
			s.lock.Unlock()
			return
		}
		event := s.queue[0]
		s.queue = s.queue[1:]
		s.lock.Unlock()

		s.handler(event)
	}
}
