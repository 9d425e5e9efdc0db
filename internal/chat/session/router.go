package session

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/starkbot/console/internal/common/logger"
)

// Handler consumes the raw data payload of one gateway event. Most callers
// use Subscribe, which decodes into a typed payload before invoking.
type Handler func(data json.RawMessage)

// Subscription is a registered handler. Unsubscribe detaches it; calling
// Unsubscribe more than once is harmless.
type Subscription struct {
	router *Router
	topic  string
	id     uint64
	once   sync.Once
}

// Unsubscribe removes the handler from its topic.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.router.remove(s.topic, s.id)
	})
}

// Router fans gateway events out to per-topic handlers. Registration is
// independent of transport state: handlers can be attached before the first
// connect and simply fire when frames start arriving. Events on topics with no
// handler are dropped.
type Router struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string]map[uint64]Handler
	log      *logger.Logger
}

// NewRouter creates an empty router.
func NewRouter(log *logger.Logger) *Router {
	return &Router{
		handlers: make(map[string]map[uint64]Handler),
		log:      log.WithComponent("router"),
	}
}

// Register attaches a raw handler to a topic.
func (r *Router) Register(topic string, h Handler) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	if r.handlers[topic] == nil {
		r.handlers[topic] = make(map[uint64]Handler)
	}
	r.handlers[topic][id] = h
	return &Subscription{router: r, topic: topic, id: id}
}

// Subscribe attaches a typed handler: the payload is decoded once at the
// router boundary and handed over as a value. A payload that fails to decode
// is logged and dropped; trackers never see malformed data.
func Subscribe[T any](r *Router, topic string, fn func(T)) *Subscription {
	return r.Register(topic, func(data json.RawMessage) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			r.log.Warn("dropping undecodable event payload",
				zap.String("topic", topic), zap.Error(err))
			return
		}
		fn(v)
	})
}

// Dispatch delivers one event to every handler registered for its topic.
// Handlers run synchronously on the caller's goroutine; relative order
// between handlers on the same topic is unspecified.
func (r *Router) Dispatch(event string, data json.RawMessage) {
	r.mu.RLock()
	hs := make([]Handler, 0, len(r.handlers[event]))
	for _, h := range r.handlers[event] {
		hs = append(hs, h)
	}
	r.mu.RUnlock()
	for _, h := range hs {
		h(data)
	}
}

func (r *Router) remove(topic string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.handlers[topic]; m != nil {
		delete(m, id)
		if len(m) == 0 {
			delete(r.handlers, topic)
		}
	}
}
