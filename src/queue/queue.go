package queue

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Message is one dispatched task command. Producer and consumer share no call
// stack: the producer writes the task record, publishes the message and
// returns; a worker picks the message up later and writes status back.
type Message struct {
	TaskID   string
	TaskType string
	Tenant   string
	Params   map[string]any
}

// Handler processes a single message. It must not panic-propagate: the worker
// loop recovers, but a handler is expected to record failures on the task row.
type Handler func(ctx context.Context, msg Message)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// Dispatcher is the in-process execution substrate: a buffered channel fed by
// Enqueue and drained by a fixed pool of workers. Enqueue is fire-and-forget
// and fails independently of task record creation.
type Dispatcher struct {
	ch      chan Message
	handler Handler
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(workers, buffer int, handler Handler) *Dispatcher {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 64
	}

	d := &Dispatcher{
		ch:      make(chan Message, buffer),
		handler: handler,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.ch {
		d.run(msg)
	}
}

func (d *Dispatcher) run(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[QUEUE] worker panic on task %s: %v\n", msg.TaskID, r)
		}
	}()
	d.handler(context.Background(), msg)
}

// Enqueue publishes a message without blocking. Returns ErrQueueFull when the
// buffer is saturated and ErrQueueClosed after Close; callers must treat both
// as dispatch failures for an already-created task record.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrQueueClosed
	}

	select {
	case d.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake and waits for in-flight tasks to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	d.wg.Wait()
}
