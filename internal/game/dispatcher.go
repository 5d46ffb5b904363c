package game

import (
	"sync"
	"time"

	"github.com/mkotelnikov/quizbot/pkg/errors"
	"github.com/mkotelnikov/quizbot/pkg/logger"
)

// Handler consumes one event. The dispatcher calls it from exactly one
// goroutine per chat at a time.
type Handler interface {
	HandleEvent(ev Event)
}

// Dispatcher routes events into per-chat FIFO queues. Events for one
// chat run strictly in arrival order; different chats run concurrently.
// The dispatcher owns queue lifecycle: queues are created on first
// event, evicted after sitting idle, and drained on Close.
type Dispatcher struct {
	handler   Handler
	queueSize int
	idleTTL   time.Duration

	mu     sync.Mutex
	queues map[string]*chatQueue
	closed bool

	wg   sync.WaitGroup
	stop chan struct{}
}

type chatQueue struct {
	events chan Event
	// pending counts events from enqueue until their handler returns,
	// so a queue with an in-flight event is never considered idle.
	pending    int
	lastActive time.Time
}

func NewDispatcher(handler Handler, queueSize int, idleTTL time.Duration) *Dispatcher {
	d := &Dispatcher{
		handler:   handler,
		queueSize: queueSize,
		idleTTL:   idleTTL,
		queues:    make(map[string]*chatQueue),
		stop:      make(chan struct{}),
	}

	d.wg.Add(1)
	go d.janitor()

	return d
}

// Route enqueues the event for its chat, creating the queue when the
// chat has none. It never blocks: a full queue rejects the event with
// code QUEUE_FULL, and a closed dispatcher with SHUTTING_DOWN.
func (d *Dispatcher) Route(ev Event) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return errors.New(errors.ErrCodeShuttingDown, "dispatcher is shutting down")
	}

	q, ok := d.queues[ev.ChatID]
	if !ok {
		q = &chatQueue{events: make(chan Event, d.queueSize)}
		d.queues[ev.ChatID] = q

		d.wg.Add(1)
		go d.run(q)
	}
	q.lastActive = time.Now()

	// Non-blocking send under the lock, so eviction cannot close the
	// channel between the lookup and the send.
	select {
	case q.events <- ev:
		q.pending++
		d.mu.Unlock()
		return nil
	default:
		d.mu.Unlock()
		logger.Warn("Chat queue full, event dropped", "chat_id", ev.ChatID, "kind", ev.Kind.String())
		return errors.New(errors.ErrCodeQueueFull, "chat queue is full")
	}
}

// ActiveChats returns the number of live chat queues.
func (d *Dispatcher) ActiveChats() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Close stops accepting events, lets every queue drain its backlog and
// waits for all workers to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.stop)
	for _, q := range d.queues {
		close(q.events)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run(q *chatQueue) {
	defer d.wg.Done()
	for ev := range q.events {
		d.safeHandle(ev)
		d.mu.Lock()
		q.pending--
		q.lastActive = time.Now()
		d.mu.Unlock()
	}
}

// safeHandle isolates handler panics so one poisoned event cannot take
// down the chat's worker.
func (d *Dispatcher) safeHandle(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling event", "chat_id", ev.ChatID, "kind", ev.Kind.String(), "panic", r)
		}
	}()
	d.handler.HandleEvent(ev)
}

// janitor evicts queues with nothing queued or in flight past the idle
// TTL. A chat whose queue was evicted simply gets a fresh one on its
// next event.
func (d *Dispatcher) janitor() {
	defer d.wg.Done()

	interval := d.idleTTL
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.evictIdle()
		}
	}
}

func (d *Dispatcher) evictIdle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	cutoff := time.Now().Add(-d.idleTTL)
	for chatID, q := range d.queues {
		if q.pending == 0 && q.lastActive.Before(cutoff) {
			close(q.events)
			delete(d.queues, chatID)
			logger.Debug("Evicted idle chat queue", "chat_id", chatID)
		}
	}
}
