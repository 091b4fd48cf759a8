package broadcast

import (
	"context"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

// HistorySource supplies the newest-first signals sent on connect.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]models.Signal, error)
}

// Config sizes the hub.
type Config struct {
	HistorySize int
	RingSize    int
	SendBuffer  int
	// MirrorTimeout bounds each publish to the optional signal mirror.
	MirrorTimeout time.Duration
}

// Hub fans events out to every subscriber. A subscriber whose buffer is full
// is dropped instead of blocking the broadcaster.
type Hub struct {
	cfg     Config
	history HistorySource
	mirror  repository.SignalPublisher
	ring    *Ring
	metrics repository.Metrics
	l       *applogger.Logger

	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

var _ repository.Broadcaster = (*Hub)(nil)

// NewHub creates a hub. mirror may be nil.
func NewHub(cfg Config, history HistorySource, mirror repository.SignalPublisher, m repository.Metrics, l *applogger.Logger) *Hub {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.RingSize < cfg.HistorySize {
		cfg.RingSize = cfg.HistorySize
	}
	if cfg.MirrorTimeout <= 0 {
		cfg.MirrorTimeout = 5 * time.Second
	}
	return &Hub{
		cfg:     cfg,
		history: history,
		mirror:  mirror,
		ring:    NewRing(cfg.RingSize),
		metrics: m,
		l:       l,
		subs:    make(map[*Subscription]struct{}),
	}
}

// Subscription is one connected consumer.
type Subscription struct {
	ch     chan Event
	closed chan struct{}

	// mu orders sends on ch against close. Events fanned out before the
	// history dump is delivered wait in pending.
	mu      sync.Mutex
	ready   bool
	done    bool
	pending []Event
}

// Events returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Done is closed when the hub drops or releases the subscription.
func (s *Subscription) Done() <-chan struct{} { return s.closed }

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	close(s.closed)
	close(s.ch)
}

// offer queues ev without blocking. It reports false when the subscriber is
// too slow to keep.
func (s *Subscription) offer(ev Event, limit int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return true
	}
	if !s.ready {
		if len(s.pending) >= limit {
			return false
		}
		s.pending = append(s.pending, ev)
		return true
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// start delivers the dump followed by whatever was fanned out while it was
// loading. Signals already in the dump are not repeated.
func (s *Subscription) start(dump []models.Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return true
	}
	seen := make(map[string]struct{}, len(dump))
	for _, sig := range dump {
		seen[sig.ID] = struct{}{}
	}
	s.ch <- historyDumpEvent(dump)
	for _, ev := range s.pending {
		if sig, ok := ev.Data.(models.Signal); ok {
			if _, dup := seen[sig.ID]; dup {
				continue
			}
		}
		select {
		case s.ch <- ev:
		default:
			return false
		}
	}
	s.pending = nil
	s.ready = true
	return true
}

// Subscribe registers a subscriber whose first event is a history dump.
// Events broadcast while the dump loads are delivered right after it.
func (h *Hub) Subscribe(ctx context.Context) *Subscription {
	sub := &Subscription{
		ch:     make(chan Event, h.cfg.SendBuffer+1),
		closed: make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	if !sub.start(h.History(ctx)) {
		h.dropSlow(sub, EventHistoryDump)
	}
	return sub
}

// Unsubscribe releases a subscription. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		sub.close()
	}
}

// History returns the newest signals from the store, falling back to the ring.
func (h *Hub) History(ctx context.Context) []models.Signal {
	if h.history != nil {
		sigs, err := h.history.Recent(ctx, h.cfg.HistorySize)
		if err == nil {
			return sigs
		}
		h.metrics.RecordError("history_dump")
		h.l.Warn("history dump from store failed, using ring buffer", applogger.Error(err))
	}
	return h.ring.Recent(h.cfg.HistorySize)
}

// BroadcastSignal delivers a signal to all subscribers and the mirror.
func (h *Hub) BroadcastSignal(s models.Signal) {
	h.ring.Add(s)
	h.fanout(newSignalEvent(s))

	if h.mirror != nil {
		go h.mirrorSignal(s)
	}
}

// BroadcastPrice delivers a live price tick to all subscribers.
func (h *Hub) BroadcastPrice(t models.PriceTick) {
	h.fanout(priceTickEvent(t))
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()
	for sub := range subs {
		sub.close()
	}
}

func (h *Hub) fanout(ev Event) {
	var slow []*Subscription

	h.mu.RLock()
	for sub := range h.subs {
		if !sub.offer(ev, h.cfg.SendBuffer) {
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.dropSlow(sub, ev.Type)
	}
}

func (h *Hub) dropSlow(sub *Subscription, event string) {
	h.l.Warn("dropping slow subscriber", applogger.String("event", event))
	h.metrics.RecordError("slow_subscriber")
	h.Unsubscribe(sub)
}

func (h *Hub) mirrorSignal(s models.Signal) {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.MirrorTimeout)
	defer cancel()
	if err := h.mirror.PublishSignal(ctx, &s); err != nil {
		h.metrics.RecordError("signal_mirror")
		h.l.Error("mirror signal failed", applogger.String("id", s.ID), applogger.Error(err))
	}
}
