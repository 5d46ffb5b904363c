package game

import (
	"sync"
	"testing"
	"time"

	"github.com/mkotelnikov/quizbot/pkg/errors"
)

// recordingHandler collects handled events per chat and tracks how many
// handlers ran at the same time within each chat.
type recordingHandler struct {
	mu            sync.Mutex
	byChat        map[string][]Event
	inFlight      map[string]int
	maxConcurrent map[string]int
	delay         time.Duration
	handled       sync.WaitGroup
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		byChat:        make(map[string][]Event),
		inFlight:      make(map[string]int),
		maxConcurrent: make(map[string]int),
	}
}

func (h *recordingHandler) HandleEvent(ev Event) {
	h.mu.Lock()
	h.inFlight[ev.ChatID]++
	if h.inFlight[ev.ChatID] > h.maxConcurrent[ev.ChatID] {
		h.maxConcurrent[ev.ChatID] = h.inFlight[ev.ChatID]
	}
	h.mu.Unlock()

	if h.delay > 0 {
		time.Sleep(h.delay)
	}

	h.mu.Lock()
	h.inFlight[ev.ChatID]--
	h.byChat[ev.ChatID] = append(h.byChat[ev.ChatID], ev)
	h.mu.Unlock()
	h.handled.Done()
}

func (h *recordingHandler) events(chatID string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.byChat[chatID]...)
}

func (h *recordingHandler) maxConcurrentFor(chatID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxConcurrent[chatID]
}

func TestDispatcherPreservesPerChatOrder(t *testing.T) {
	handler := newRecordingHandler()
	d := NewDispatcher(handler, 64, time.Hour)
	defer d.Close()

	const n = 50
	handler.handled.Add(n)
	for i := 0; i < n; i++ {
		if err := d.Route(Event{ChatID: "c1", Kind: EventText, QuestionID: uint(i)}); err != nil {
			t.Fatalf("Route: %v", err)
		}
	}
	handler.handled.Wait()

	got := handler.events("c1")
	if len(got) != n {
		t.Fatalf("Expected %d events, got %d", n, len(got))
	}
	for i, ev := range got {
		if ev.QuestionID != uint(i) {
			t.Fatalf("Event %d arrived out of order: %d", i, ev.QuestionID)
		}
	}
}

func TestDispatcherRunsChatsConcurrently(t *testing.T) {
	handler := newRecordingHandler()
	handler.delay = 20 * time.Millisecond
	d := NewDispatcher(handler, 64, time.Hour)
	defer d.Close()

	const chats = 8
	handler.handled.Add(chats)
	start := time.Now()
	for i := 0; i < chats; i++ {
		chatID := string(rune('a' + i))
		if err := d.Route(Event{ChatID: chatID, Kind: EventText}); err != nil {
			t.Fatalf("Route: %v", err)
		}
	}
	handler.handled.Wait()

	// Serialized execution would take chats*delay; concurrent chats
	// should finish in a fraction of that.
	if elapsed := time.Since(start); elapsed > time.Duration(chats)*handler.delay/2 {
		t.Errorf("Chats do not appear to run concurrently, took %v", elapsed)
	}
}

func TestDispatcherCloseDrainsBacklog(t *testing.T) {
	handler := newRecordingHandler()
	d := NewDispatcher(handler, 64, time.Hour)

	const n = 10
	handler.handled.Add(n)
	for i := 0; i < n; i++ {
		if err := d.Route(Event{ChatID: "c1", Kind: EventText, QuestionID: uint(i)}); err != nil {
			t.Fatalf("Route: %v", err)
		}
	}
	d.Close()

	if got := handler.events("c1"); len(got) != n {
		t.Errorf("Expected backlog drained on close, handled %d of %d", len(got), n)
	}
}

func TestDispatcherRouteAfterClose(t *testing.T) {
	d := NewDispatcher(newRecordingHandler(), 64, time.Hour)
	d.Close()

	err := d.Route(Event{ChatID: "c1", Kind: EventText})
	if !errors.HasCode(err, errors.ErrCodeShuttingDown) {
		t.Errorf("Expected SHUTTING_DOWN error after close, got %v", err)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	handler := newRecordingHandler()
	handler.delay = time.Hour // wedge the worker
	d := NewDispatcher(handler, 1, time.Hour)

	handler.handled.Add(1)
	if err := d.Route(Event{ChatID: "c1", Kind: EventText}); err != nil {
		t.Fatalf("Route: %v", err)
	}
	// First event occupies the worker; fill the buffer, then overflow.
	deadline := time.Now().Add(time.Second)
	var err error
	for time.Now().Before(deadline) {
		if err = d.Route(Event{ChatID: "c1", Kind: EventText}); err != nil {
			break
		}
	}
	if !errors.HasCode(err, errors.ErrCodeQueueFull) {
		t.Errorf("Expected QUEUE_FULL on overflow, got %v", err)
	}
}

func TestDispatcherDoesNotEvictBusyQueue(t *testing.T) {
	handler := newRecordingHandler()
	handler.delay = 300 * time.Millisecond
	// TTL well below the handler's run time: the janitor sweeps several
	// times while the first event is still being handled.
	d := NewDispatcher(handler, 64, 20*time.Millisecond)
	defer d.Close()

	handler.handled.Add(2)
	if err := d.Route(Event{ChatID: "c1", Kind: EventText, QuestionID: 1}); err != nil {
		t.Fatalf("Route: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if err := d.Route(Event{ChatID: "c1", Kind: EventText, QuestionID: 2}); err != nil {
		t.Fatalf("Route: %v", err)
	}
	handler.handled.Wait()

	if got := handler.maxConcurrentFor("c1"); got != 1 {
		t.Fatalf("Expected one handler at a time per chat, %d ran concurrently", got)
	}
	got := handler.events("c1")
	if len(got) != 2 || got[0].QuestionID != 1 || got[1].QuestionID != 2 {
		t.Fatalf("Expected events handled in order on one queue, got %v", got)
	}
}

func TestDispatcherEvictsIdleQueues(t *testing.T) {
	handler := newRecordingHandler()
	d := NewDispatcher(handler, 64, 30*time.Millisecond)
	defer d.Close()

	handler.handled.Add(1)
	if err := d.Route(Event{ChatID: "c1", Kind: EventText}); err != nil {
		t.Fatalf("Route: %v", err)
	}
	handler.handled.Wait()

	if got := d.ActiveChats(); got != 1 {
		t.Fatalf("Expected one live queue, got %d", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.ActiveChats() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := d.ActiveChats(); got != 0 {
		t.Fatalf("Expected idle queue evicted, %d still live", got)
	}

	// The chat must transparently get a fresh queue afterwards.
	handler.handled.Add(1)
	if err := d.Route(Event{ChatID: "c1", Kind: EventText}); err != nil {
		t.Fatalf("Route after eviction: %v", err)
	}
	handler.handled.Wait()
	if got := handler.events("c1"); len(got) != 2 {
		t.Errorf("Expected event handled after re-creation, got %d", len(got))
	}
}
