package game

import (
	"sync"
	"testing"
	"time"
)

type routeRecorder struct {
	mu     sync.Mutex
	events []Event
	fired  chan Event
}

func newRouteRecorder() *routeRecorder {
	return &routeRecorder{fired: make(chan Event, 16)}
}

func (r *routeRecorder) route(ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.fired <- ev
	return nil
}

func (r *routeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestSchedulerFires(t *testing.T) {
	rec := newRouteRecorder()
	s := NewTimeoutScheduler(10 * time.Millisecond)
	s.Bind(rec.route)
	defer s.Stop()

	s.Schedule("c1", 7)

	select {
	case ev := <-rec.fired:
		if ev.Kind != EventTimeout || ev.ChatID != "c1" || ev.QuestionID != 7 {
			t.Errorf("Unexpected timeout event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Timer did not fire")
	}
}

func TestSchedulerRescheduleReplacesTimer(t *testing.T) {
	rec := newRouteRecorder()
	s := NewTimeoutScheduler(30 * time.Millisecond)
	s.Bind(rec.route)
	defer s.Stop()

	s.Schedule("c1", 1)
	s.Schedule("c1", 2)

	select {
	case ev := <-rec.fired:
		if ev.QuestionID != 2 {
			t.Errorf("Expected the replacing timer to fire, got question %d", ev.QuestionID)
		}
	case <-time.After(time.Second):
		t.Fatal("Timer did not fire")
	}

	// Only the replacement may fire.
	time.Sleep(60 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Errorf("Expected a single firing, got %d", got)
	}
}

func TestSchedulerCancel(t *testing.T) {
	rec := newRouteRecorder()
	s := NewTimeoutScheduler(20 * time.Millisecond)
	s.Bind(rec.route)
	defer s.Stop()

	s.Schedule("c1", 1)
	s.Cancel("c1")

	time.Sleep(60 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Errorf("Expected no firing after cancel, got %d", got)
	}
}

func TestSchedulerStopCancelsAll(t *testing.T) {
	rec := newRouteRecorder()
	s := NewTimeoutScheduler(20 * time.Millisecond)
	s.Bind(rec.route)

	s.Schedule("c1", 1)
	s.Schedule("c2", 2)
	s.Stop()

	time.Sleep(60 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Errorf("Expected no firings after stop, got %d", got)
	}
}

func TestSchedulerSupersededFiringKeepsReplacementHandle(t *testing.T) {
	rec := newRouteRecorder()
	s := NewTimeoutScheduler(time.Hour)
	s.Bind(rec.route)
	defer s.Stop()

	s.Schedule("c1", 1)
	s.mu.Lock()
	firstGen := s.timers["c1"].gen
	s.mu.Unlock()
	s.Schedule("c1", 2)

	// A firing from the replaced timer that raced with the reschedule
	// must neither route nor remove the replacement's handle.
	s.fire("c1", 1, firstGen)

	if got := rec.count(); got != 0 {
		t.Errorf("Expected superseded firing to route nothing, got %d events", got)
	}
	s.mu.Lock()
	_, ok := s.timers["c1"]
	s.mu.Unlock()
	if !ok {
		t.Fatal("Superseded firing removed the replacement timer handle")
	}

	// Cancel must still reach the live timer.
	s.Cancel("c1")
	s.mu.Lock()
	remaining := len(s.timers)
	s.mu.Unlock()
	if remaining != 0 {
		t.Errorf("Cancel could not reach the replacement timer, %d handles left", remaining)
	}
}

func TestSchedulerIndependentChats(t *testing.T) {
	rec := newRouteRecorder()
	s := NewTimeoutScheduler(10 * time.Millisecond)
	s.Bind(rec.route)
	defer s.Stop()

	s.Schedule("c1", 1)
	s.Schedule("c2", 2)

	got := map[string]uint{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-rec.fired:
			got[ev.ChatID] = ev.QuestionID
		case <-time.After(time.Second):
			t.Fatal("Timer did not fire")
		}
	}
	if got["c1"] != 1 || got["c2"] != 2 {
		t.Errorf("Expected both chats to fire independently, got %v", got)
	}
}
