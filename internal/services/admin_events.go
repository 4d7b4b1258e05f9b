package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// AdminEventsChannel is the Redis pub/sub channel shared by all instances.
	AdminEventsChannel = "admin:events"

	EventInquiryCreated = "inquiry_created"
	EventContactCreated = "contact_created"

	subscriberBuffer  = 16
	maxSubscriberWait = 30 * time.Second
)

// AdminEvent is pushed to connected admin dashboards.
type AdminEvent struct {
	Type         string    `json:"type"`
	ID           string    `json:"id"`
	Reference    string    `json:"reference,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Subject      string    `json:"subject,omitempty"`
	PackageTitle string    `json:"packageTitle,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// EventPublisher broadcasts admin events.
type EventPublisher interface {
	Publish(ctx context.Context, event AdminEvent) error
}

// EventHub relays admin events through Redis so a dashboard connected to any
// instance sees submissions handled by every instance. Each instance runs one
// subscriber and fans events out to its local listeners.
type EventHub struct {
	client *redis.Client
	logger *zap.Logger

	mu          sync.RWMutex
	subscribers map[chan AdminEvent]struct{}
	started     sync.Once
	ready       chan struct{}
}

func NewEventHub(client *redis.Client, logger *zap.Logger) *EventHub {
	return &EventHub{
		client:      client,
		logger:      logger,
		subscribers: make(map[chan AdminEvent]struct{}),
		ready:       make(chan struct{}),
	}
}

// Subscribe registers a local listener. Events are dropped for a listener
// whose buffer is full.
func (h *EventHub) Subscribe() (<-chan AdminEvent, func()) {
	ch := make(chan AdminEvent, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers reports the number of local listeners.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *EventHub) fanOut(event AdminEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Warn("dropping admin event for slow listener", zap.String("type", event.Type))
		}
	}
}

// Publish sends event to every instance, this one included.
func (h *EventHub) Publish(ctx context.Context, event AdminEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode admin event: %w", err)
	}
	return h.client.Publish(ctx, AdminEventsChannel, data).Err()
}

// Start launches the Redis subscriber once. It reconnects with capped
// exponential backoff until ctx is done.
func (h *EventHub) Start(ctx context.Context) {
	h.started.Do(func() {
		go h.run(ctx)
	})
}

// WaitReady blocks until the first subscription is confirmed or ctx ends.
func (h *EventHub) WaitReady(ctx context.Context) error {
	select {
	case <-h.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *EventHub) run(ctx context.Context) {
	backoff := time.Second
	var readyOnce sync.Once

	for ctx.Err() == nil {
		err := h.listen(ctx, func() {
			backoff = time.Second
			readyOnce.Do(func() { close(h.ready) })
		})
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn("admin event subscriber disconnected", zap.Error(err), zap.Duration("retryIn", backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxSubscriberWait {
			backoff = maxSubscriberWait
		}
	}
}

func (h *EventHub) listen(ctx context.Context, subscribed func()) error {
	pubsub := h.client.Subscribe(ctx, AdminEventsChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	subscribed()
	h.logger.Info("admin event subscriber started", zap.String("channel", AdminEventsChannel))

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var event AdminEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.logger.Warn("invalid admin event payload", zap.Error(err))
			continue
		}
		h.fanOut(event)
	}
}
