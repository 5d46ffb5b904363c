package game

// EventKind is the closed set of chat events the machine understands.
type EventKind int

const (
	// EventInvite fires when the bot is added to a chat.
	EventInvite EventKind = iota
	// EventStartGame is the "start game" keyboard button.
	EventStartGame
	// EventFinishGame is the "finish game" keyboard button.
	EventFinishGame
	// EventResults is the "results" keyboard button.
	EventResults
	// EventText is a plain chat message, evaluated as an answer while a
	// game is running.
	EventText
	// EventTimeout is the internal answer-window expiry for a question.
	EventTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventInvite:
		return "invite"
	case EventStartGame:
		return "start_game"
	case EventFinishGame:
		return "finish_game"
	case EventResults:
		return "results"
	case EventText:
		return "text"
	case EventTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Event is one unit of work routed through the per-chat dispatcher.
// UserID and Text are set for EventText, QuestionID for EventTimeout.
type Event struct {
	ChatID     string
	Kind       EventKind
	UserID     int64
	Text       string
	QuestionID uint
}
