package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// endpoint is the write side of one subscription. The bus keeps endpoints in
// its per-topic slot tables and pushes messages through them during fan-out;
// the read side belongs exclusively to the Subscriber that created the pair.
//
// The queue channel is never closed. Closing an endpoint closes done instead,
// which wakes blocked senders and lets the reader drain whatever is already
// queued before it observes the shutdown.
type endpoint struct {
	id      uint64
	topic   string
	profile Profile

	queue chan Message
	done  chan struct{}
	// busDone aborts blocked sends when the whole bus shuts down, before the
	// bus gets around to closing each endpoint individually.
	busDone <-chan struct{}

	closeOnce sync.Once
	dropped   atomic.Uint64
}

func newEndpoint(id uint64, topic string, profile Profile, busDone <-chan struct{}) *endpoint {
	return &endpoint{
		id:      id,
		topic:   topic,
		profile: profile,
		queue:   make(chan Message, profile.Depth),
		done:    make(chan struct{}),
		busDone: busDone,
	}
}

// send enqueues one message according to the endpoint's overflow policy.
// A nil return means the message was admitted (possibly after evicting an
// older one). errEndpointClosed marks the slot dead; errQueueFull reports an
// OverflowFail rejection. Both stay inside the bus.
func (ep *endpoint) send(ctx context.Context, msg Message) error {
	select {
	case <-ep.done:
		return errEndpointClosed
	default:
	}

	switch ep.profile.Overflow {
	case OverflowBlock:
		select {
		case ep.queue <- msg:
			return nil
		case <-ep.done:
			return errEndpointClosed
		case <-ep.busDone:
			return errEndpointClosed
		case <-ctx.Done():
			return ctx.Err()
		}

	case OverflowDropOldest:
		for {
			select {
			case ep.queue <- msg:
				return nil
			case <-ep.done:
				return errEndpointClosed
			case <-ep.busDone:
				return errEndpointClosed
			default:
			}
			// Full. Evict one and retry; the reader may beat us to it,
			// which is just as good.
			select {
			case <-ep.queue:
				ep.dropped.Add(1)
			default:
			}
		}

	case OverflowDropNewest:
		select {
		case ep.queue <- msg:
			return nil
		case <-ep.done:
			return errEndpointClosed
		default:
			ep.dropped.Add(1)
			return errDiscarded
		}

	case OverflowFail:
		select {
		case ep.queue <- msg:
			return nil
		case <-ep.done:
			return errEndpointClosed
		default:
			ep.dropped.Add(1)
			return errQueueFull
		}
	}

	// Unknown policies cannot get past Profile.Validate.
	return errQueueFull
}

// receive blocks until a message arrives, the context ends, or the endpoint
// is closed with nothing left to drain.
func (ep *endpoint) receive(ctx context.Context) (Message, error) {
	// Fast path, and the drain path after close: queued messages are always
	// handed out before the shutdown is reported.
	select {
	case msg := <-ep.queue:
		return msg, nil
	default:
	}

	select {
	case msg := <-ep.queue:
		return msg, nil
	case <-ep.done:
		select {
		case msg := <-ep.queue:
			return msg, nil
		default:
		}
		return Message{}, errDisconnected(ep.topic)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Message{}, errTimeout(ep.topic, ctx.Err())
		}
		return Message{}, ctx.Err()
	}
}

// close marks the endpoint dead. Idempotent and safe alongside concurrent
// sends and receives.
func (ep *endpoint) close() {
	ep.closeOnce.Do(func() {
		close(ep.done)
	})
}

// closed reports whether close has been called.
func (ep *endpoint) isClosed() bool {
	select {
	case <-ep.done:
		return true
	default:
		return false
	}
}

// pending returns how many messages are queued but not yet received.
func (ep *endpoint) pending() int {
	return len(ep.queue)
}
