package event

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Handler func(ctx context.Context, e Event) error

var (
	mu     sync.Mutex
	events = make(chan Event, 128)
)

// Send publishes an event to the process-wide bus. It never blocks the
// caller: if the bus is saturated the event is dropped, the sessions must
// not stall on a slow consumer.
func Send(e Event) {
	mu.Lock()
	defer mu.Unlock()
	select {
	case events <- e:
	default:
	}
}

type Listener struct {
	logger   *slog.Logger
	handlers []Handler
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{logger: logger}
}

// Register adds a handler. Not safe to call once Listen is running.
func (l *Listener) Register(h Handler) {
	l.handlers = append(l.handlers, h)
}

// Listen drains the bus until ctx is cancelled, fanning each event out to
// every registered handler in registration order.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			for _, h := range l.handlers {
				if err := h(ctx, e); err != nil {
					l.logger.Error("error running event handler",
						slog.String("bot", e.Bot()),
						slog.Any("error", err),
					)
				}
			}
		}
	}
}

type Event interface {
	Bot() string
	Message() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	bot        string
	message    string
	occurredAt time.Time
}

func (b BaseEvent) Bot() string           { return b.bot }
func (b BaseEvent) Message() string       { return b.message }
func (b BaseEvent) OccurredAt() time.Time { return b.occurredAt }

// Text builds a plain event with no extra payload.
func Text(bot string, message string) BaseEvent {
	return BaseEvent{bot: bot, message: message, occurredAt: time.Now()}
}
