package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xaionaro-go/eventbus"

	"cddasrc/internal/logging"
)

// Topics carried on the bus, used in log fields.
const (
	TopicTag     = "tag"
	TopicError   = "error"
	TopicWarning = "warning"
)

// queueSize bounds each subscription's buffer. A full queue blocks the
// poster until the handler catches up; messages are never dropped.
const queueSize = 64

// Bus fans source messages out to subscribers. Each message type has its own
// typed subscriptions, and every subscription is drained by one goroutine so
// a subscriber sees messages in the order they were posted. A nil *Bus
// accepts posts and drops them, so producers never need to check.
type Bus struct {
	events *eventbus.EventBus
	logger *slog.Logger

	mu      sync.Mutex
	drained *sync.Cond
	sent    uint64
	handled uint64
}

// New creates a bus. logger may be nil.
func New(logger *slog.Logger) *Bus {
	b := &Bus{
		events: eventbus.New(),
		logger: logging.NewComponentLogger(logger, "bus"),
	}
	b.drained = sync.NewCond(&b.mu)
	return b
}

// PostTags publishes a tag message.
func (b *Bus) PostTags(msg TagMessage) {
	if b == nil || len(msg.Tags) == 0 {
		return
	}
	post(b, TopicTag, msg)
}

// PostError publishes an error message.
func (b *Bus) PostError(msg ErrorMessage) {
	if b == nil {
		return
	}
	post(b, TopicError, msg)
}

// PostWarning publishes a warning message.
func (b *Bus) PostWarning(msg WarningMessage) {
	if b == nil {
		return
	}
	post(b, TopicWarning, msg)
}

// OnTags registers fn for tag messages. Handlers run on a goroutine owned by
// the subscription; call Wait to block until posted messages are handled.
// The returned function removes the subscription.
func (b *Bus) OnTags(fn func(TagMessage)) (func(), error) {
	return subscribe(b, TopicTag, fn)
}

// OnError registers fn for error messages.
func (b *Bus) OnError(fn func(ErrorMessage)) (func(), error) {
	return subscribe(b, TopicError, fn)
}

// OnWarning registers fn for warning messages.
func (b *Bus) OnWarning(fn func(WarningMessage)) (func(), error) {
	return subscribe(b, TopicWarning, fn)
}

// Wait blocks until every message delivered so far has been handled. It
// must not be called from inside a handler.
func (b *Bus) Wait() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.handled < b.sent {
		b.drained.Wait()
	}
}

func post[E any](b *Bus, topic string, msg E) {
	res := eventbus.SendEvent(context.Background(), b.events, msg)
	if dropped := res.DropCountImmediate + res.DropCountDeferred; dropped > 0 {
		b.logger.Debug("message dropped",
			logging.String("topic", topic),
			logging.Int("subscribers", int(dropped)),
		)
	}
	delivered := uint64(res.SentCountImmediate + res.SentCountDeferred + res.PiledCount)
	if delivered == 0 {
		return
	}
	b.mu.Lock()
	b.sent += delivered
	b.mu.Unlock()
}

func subscribe[E any](b *Bus, topic string, fn func(E)) (func(), error) {
	if b == nil {
		return func() {}, nil
	}
	if fn == nil {
		return nil, fmt.Errorf("subscribe %s: nil handler", topic)
	}
	sub := eventbus.Subscribe[E](
		context.Background(),
		b.events,
		eventbus.OptionQueueSize(queueSize),
		eventbus.OptionOnOverflow(eventbus.OnOverflowWait(0)),
	)
	if sub == nil {
		return nil, fmt.Errorf("subscribe %s: bus unavailable", topic)
	}
	events := sub.EventChan()
	go func() {
		for msg := range events {
			fn(msg)
			b.markHandled()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if !sub.Finish(context.Background()) {
				b.logger.Debug("unsubscribe failed", logging.String("topic", topic))
			}
		})
	}, nil
}

func (b *Bus) markHandled() {
	b.mu.Lock()
	b.handled++
	b.mu.Unlock()
	b.drained.Broadcast()
}
