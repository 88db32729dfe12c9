package eventbus

import (
	"fmt"
	"sync"
)

// InvalidSubscription is returned by Register when a requested class name
// is not in the fixed known set (and is not one of the aliases).
type InvalidSubscription struct {
	Class string
}

func (e *InvalidSubscription) Error() string {
	return fmt.Sprintf("eventbus: invalid subscription class %q", e.Class)
}

// subQueueSize bounds each subscriber's per-connection channel; a full
// channel on publish is treated as a failed send per spec §4.H.
const subQueueSize = 256

// Sink delivers one event to a subscriber's transport (e.g. a websocket
// connection). A non-nil error is treated as a failed send: the
// subscription is torn down without affecting other subscribers.
type Sink func(Event) error

// Subscription is a registered, per-connection fan-out queue.
type Subscription struct {
	bus     *Bus
	classes map[string]bool
	ch      chan Event
	closeIt sync.Once
	done    chan struct{}
}

// Close unregisters the subscription and releases its goroutine.
func (s *Subscription) Close() {
	s.bus.unregister(s)
}

// Bus serializes typed events once and fans them out to registered
// subscribers, preserving publish order per subscriber — grounded on
// mmp-vice's EventStream pub/sub shape, generalized from a pull-based
// offset cursor to a push-based bounded channel per subscriber so a slow
// consumer cannot stall the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Register adds a subscriber accepting the given classes (which may
// include the "all"/"all_but_chunks" aliases) and starts its delivery
// goroutine, which calls sink for every accepted event in publish order.
func (b *Bus) Register(acceptedClasses []string, sink Sink) (*Subscription, error) {
	classes, err := resolveClasses(acceptedClasses)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		bus:     b,
		classes: classes,
		ch:      make(chan Event, subQueueSize),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.deliver(sink)
	return sub, nil
}

func (s *Subscription) deliver(sink Sink) {
	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				return
			}
			if err := sink(e); err != nil {
				s.bus.unregister(s)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (b *Bus) unregister(s *Subscription) {
	b.mu.Lock()
	_, present := b.subs[s]
	delete(b.subs, s)
	b.mu.Unlock()
	if present {
		s.closeIt.Do(func() { close(s.done) })
	}
}

// Publish serializes event once (structurally; JSON encoding happens at
// the transport) and offers it to every subscriber whose accepted classes
// contain its class. A subscriber whose queue is full is unregistered;
// other subscribers are unaffected.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.subs))
	for s := range b.subs {
		if s.classes[e.Class] {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		select {
		case s.ch <- e:
		default:
			b.unregister(s)
		}
	}
}

func resolveClasses(requested []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, c := range requested {
		switch c {
		case aliasAll:
			for _, k := range knownClasses {
				out[k] = true
			}
		case aliasAllButChunks:
			for _, k := range knownClasses {
				if k != ClassAudioChunk {
					out[k] = true
				}
			}
		default:
			if !isKnownClass(c) {
				return nil, &InvalidSubscription{Class: c}
			}
			out[c] = true
		}
	}
	return out, nil
}

func isKnownClass(c string) bool {
	for _, k := range knownClasses {
		if k == c {
			return true
		}
	}
	return false
}
