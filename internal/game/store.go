package game

import "github.com/mkotelnikov/quizbot/internal/models"

// GameStore is the persistence surface the machine mutates. The
// GORM-backed GameRepository satisfies it; tests use an in-memory fake.
type GameStore interface {
	ActiveGame(chatID string) (*models.Game, error)
	CreateGame(chatID string, users []*models.User, questionIDs []uint) (*models.Game, error)
	SetCurrentQuestion(gameID, questionID uint) error
	MarkQuestionAnswered(gameID, questionID uint) error
	FinishGame(gameID uint, winnerUserID *uint) error
	CreditScore(gameID, userID uint, delta int) error
	Scoreboard(gameID uint) ([]models.UserScore, error)
}

// QuestionStore reads the question pool. Read-only during gameplay.
type QuestionStore interface {
	ListQuestions(themeID uint) ([]models.Question, error)
	QuestionByID(id uint) (*models.Question, error)
}

// UserStore upserts chat members into persistent user records.
type UserStore interface {
	GetOrCreateUser(vkID int64, firstName, lastName string) (*models.User, error)
}

// Keyboard selects the reply markup attached to an outbound message.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardNavigate
)

// ChatMember is one user from the chat roster.
type ChatMember struct {
	VkID      int64
	FirstName string
	LastName  string
}

// Gateway is the outbound messaging surface. ChatMembers returns an
// error with code PERMISSION_DENIED when the bot cannot read the roster.
type Gateway interface {
	SendMessage(chatID, text string, keyboard Keyboard) error
	ChatMembers(chatID string) ([]ChatMember, error)
}

// Scheduler arms the answer-window timer for the question that just
// became current. At most one timer is pending per chat.
type Scheduler interface {
	Schedule(chatID string, questionID uint)
	Cancel(chatID string)
}
