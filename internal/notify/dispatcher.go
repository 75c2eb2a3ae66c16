package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tourbook/internal/utils"
)

// Sink delivers events somewhere. Send must honour ctx.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// Dispatcher fans events out to sinks on a background worker so callers never wait on delivery.
type Dispatcher struct {
	sinks   []Sink
	queue   chan Event
	retries int
	backoff time.Duration
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	started sync.Once
}

type Option func(*Dispatcher)

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Event, n)
		}
	}
}

func WithRetry(attempts int, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.retries = attempts
		}
		d.backoff = backoff
	}
}

func NewDispatcher(sinks []Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan Event, 256),
		retries: 3,
		backoff: 200 * time.Millisecond,
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the worker. It stops once Close has drained the queue.
func (d *Dispatcher) Start() {
	d.started.Do(func() {
		go d.run()
	})
}

// Notify enqueues ev. A full queue drops the event with a log line.
func (d *Dispatcher) Notify(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- ev:
	default:
		utils.LogEvent(ev.RequestID, "notify", "drop", fmt.Sprintf("queue full type=%s booking=%s", ev.Type, ev.BookingNumber))
	}
}

// Close stops accepting events and waits for queued ones until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.Start()
	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, s := range d.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				utils.LogEvent("", "notify", "close", s.Name()+": "+err.Error())
			}
		}
	}
	return nil
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		for _, s := range d.sinks {
			d.deliver(s, ev)
		}
	}
}

func (d *Dispatcher) deliver(s Sink, ev Event) {
	backoff := d.backoff
	var err error
	for attempt := 1; attempt <= d.retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err = s.Send(ctx, ev)
		cancel()
		if err == nil {
			return
		}
		if attempt < d.retries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	utils.LogEvent(ev.RequestID, "notify", "deliver_failed",
		fmt.Sprintf("sink=%s type=%s booking=%s err=%v", s.Name(), ev.Type, ev.BookingNumber, err))
}
