package game

import (
	"sync"
	"time"

	"github.com/mkotelnikov/quizbot/pkg/logger"
)

// TimeoutScheduler arms one answer-window timer per chat. When the
// timer fires it routes an EventTimeout back through the dispatcher, so
// the expiry is serialized with the chat's regular events; the machine
// discards it if the question already moved on.
type TimeoutScheduler struct {
	window time.Duration
	route  func(Event) error

	mu     sync.Mutex
	gen    uint64
	timers map[string]*chatTimer
}

// chatTimer pairs a timer handle with the generation it was armed
// under, so a firing that lost a race with a reschedule can tell it was
// superseded.
type chatTimer struct {
	timer *time.Timer
	gen   uint64
}

func NewTimeoutScheduler(window time.Duration) *TimeoutScheduler {
	return &TimeoutScheduler{
		window: window,
		timers: make(map[string]*chatTimer),
	}
}

// Bind installs the routing function. Must be called before Schedule;
// kept separate because the dispatcher is constructed after the machine
// that holds the scheduler.
func (s *TimeoutScheduler) Bind(route func(Event) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route = route
}

// Schedule arms the timer for the question that just became current.
// A previously pending timer for the chat is replaced.
func (s *TimeoutScheduler) Schedule(chatID string, questionID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[chatID]; ok {
		prev.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timers[chatID] = &chatTimer{
		timer: time.AfterFunc(s.window, func() {
			s.fire(chatID, questionID, gen)
		}),
		gen: gen,
	}
}

// Cancel drops the pending timer for the chat, if any.
func (s *TimeoutScheduler) Cancel(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[chatID]; ok {
		t.timer.Stop()
		delete(s.timers, chatID)
	}
}

// Stop cancels every pending timer. Timers that already fired may still
// reach fire; the generation check drops them there.
func (s *TimeoutScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for chatID, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, chatID)
	}
}

// fire routes the timeout, unless this firing comes from a timer that
// was replaced or cancelled while it waited on the lock. Only the
// firing that still owns the stored handle may remove it, so Cancel and
// Stop always reach the live timer.
func (s *TimeoutScheduler) fire(chatID string, questionID uint, gen uint64) {
	s.mu.Lock()
	current, ok := s.timers[chatID]
	if !ok || current.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, chatID)
	route := s.route
	s.mu.Unlock()

	if route == nil {
		return
	}
	err := route(Event{ChatID: chatID, Kind: EventTimeout, QuestionID: questionID})
	if err != nil {
		logger.Warn("Failed to route timeout event", "chat_id", chatID, "question_id", questionID, "error", err)
	}
}
