package game

import (
	"fmt"
	"strings"

	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/pkg/errors"
	"github.com/mkotelnikov/quizbot/pkg/logger"
	"github.com/mkotelnikov/quizbot/pkg/utils"
)

// WinScore is credited to the first participant answering correctly.
const WinScore = 100

// Machine applies game transitions for one chat event at a time. It is
// store-backed and keeps no per-chat state of its own; the dispatcher
// guarantees events for one chat never run concurrently, so no locking
// happens here.
type Machine struct {
	games     GameStore
	questions QuestionStore
	users     UserStore
	gateway   Gateway
	scheduler Scheduler
	themeID   uint
}

func NewMachine(games GameStore, questions QuestionStore, users UserStore, gateway Gateway, scheduler Scheduler, themeID uint) *Machine {
	return &Machine{
		games:     games,
		questions: questions,
		users:     users,
		gateway:   gateway,
		scheduler: scheduler,
		themeID:   themeID,
	}
}

// HandleEvent applies exactly one transition. Store and gateway failures
// are logged and the event is dropped; one chat's failure never
// propagates to other chats.
func (m *Machine) HandleEvent(ev Event) {
	active, err := m.games.ActiveGame(ev.ChatID)
	if err != nil {
		logger.Error("Failed to load active game", "chat_id", ev.ChatID, "error", err)
		return
	}

	switch ev.Kind {
	case EventInvite:
		m.onInvite(ev)
	case EventStartGame:
		if active != nil {
			m.send(ev.ChatID, MsgAlreadyStarted, KeyboardNone)
			return
		}
		m.onStartGame(ev)
	case EventFinishGame:
		if active == nil {
			m.send(ev.ChatID, MsgAlreadyFinished, KeyboardNone)
			return
		}
		m.onFinishGame(ev, active)
	case EventResults:
		m.onResults(ev, active)
	case EventText:
		if active == nil || active.Status != models.GameStatusStarted || active.CurrentQuestionID == nil {
			return
		}
		m.onAnswer(ev, active)
	case EventTimeout:
		if active == nil {
			return
		}
		m.onTimeout(ev, active)
	}
}

func (m *Machine) onInvite(ev Event) {
	m.send(ev.ChatID, MsgInvite, KeyboardNavigate)
}

func (m *Machine) onStartGame(ev Event) {
	members, err := m.gateway.ChatMembers(ev.ChatID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodePermissionDenied) {
			m.send(ev.ChatID, MsgBotIsNotAdmin, KeyboardNone)
			return
		}
		logger.Error("Failed to fetch chat members", "chat_id", ev.ChatID, "error", err)
		return
	}

	users := make([]*models.User, 0, len(members))
	for _, member := range members {
		user, err := m.users.GetOrCreateUser(member.VkID, member.FirstName, member.LastName)
		if err != nil {
			logger.Error("Failed to upsert chat member", "chat_id", ev.ChatID, "vk_id", member.VkID, "error", err)
			return
		}
		users = append(users, user)
	}

	pool, err := m.questions.ListQuestions(m.themeID)
	if err != nil {
		logger.Error("Failed to load question pool", "chat_id", ev.ChatID, "error", err)
		return
	}
	if len(pool) == 0 {
		m.send(ev.ChatID, MsgNoQuestions, KeyboardNone)
		return
	}

	ids := make([]uint, len(pool))
	for i, q := range pool {
		ids[i] = q.ID
	}

	created, err := m.games.CreateGame(ev.ChatID, users, ids)
	if err != nil {
		logger.Error("Failed to create game", "chat_id", ev.ChatID, "error", err)
		return
	}

	first := pool[0]
	if err := m.games.SetCurrentQuestion(created.ID, first.ID); err != nil {
		logger.Error("Failed to set first question", "game_id", created.ID, "error", err)
		return
	}

	logger.Info("Game started", "chat_id", ev.ChatID, "game_id", created.ID, "pool_size", len(ids), "participants", len(users))
	m.send(ev.ChatID, fmt.Sprintf(fmtGameStarted, first.Title), KeyboardNavigate)
	m.scheduler.Schedule(ev.ChatID, first.ID)
}

// onFinishGame closes the game on explicit request. The winner is
// assigned here with the same first-max rule as natural exhaustion, so
// both finish paths agree.
func (m *Machine) onFinishGame(ev Event, active *models.Game) {
	scores, err := m.games.Scoreboard(active.ID)
	if err != nil {
		logger.Error("Failed to load scoreboard", "game_id", active.ID, "error", err)
		return
	}

	if err := m.games.FinishGame(active.ID, pickWinner(scores)); err != nil {
		logger.Error("Failed to finish game", "game_id", active.ID, "error", err)
		return
	}
	m.scheduler.Cancel(ev.ChatID)

	logger.Info("Game finished on request", "chat_id", ev.ChatID, "game_id", active.ID)
	m.send(ev.ChatID, MsgFinished, KeyboardNone)
}

func (m *Machine) onResults(ev Event, active *models.Game) {
	if active == nil || active.Status != models.GameStatusStarted {
		m.send(ev.ChatID, MsgNoCurrentGame, KeyboardNavigate)
		return
	}

	scores, err := m.games.Scoreboard(active.ID)
	if err != nil {
		logger.Error("Failed to load scoreboard", "game_id", active.ID, "error", err)
		return
	}

	m.send(ev.ChatID, fmt.Sprintf(fmtResults, active.ID, scoreboardText(scores)), KeyboardNavigate)
}

func (m *Machine) onAnswer(ev Event, active *models.Game) {
	questionID := *active.CurrentQuestionID
	question, err := m.questions.QuestionByID(questionID)
	if err != nil {
		logger.Error("Failed to load current question", "game_id", active.ID, "question_id", questionID, "error", err)
		return
	}

	correct, ok := question.CorrectAnswer()
	if !ok {
		logger.Error("Question has no correct answer", "question_id", questionID)
		return
	}

	if !utils.AnswersEqual(ev.Text, correct.Title) {
		m.send(ev.ChatID, MsgWrongAnswer, KeyboardNone)
		return
	}

	scores, err := m.games.Scoreboard(active.ID)
	if err != nil {
		logger.Error("Failed to load scoreboard", "game_id", active.ID, "error", err)
		return
	}

	answerer := findParticipant(scores, ev.UserID)
	if answerer == nil {
		// Correct answer from someone outside the roster does not count.
		logger.Debug("Answer from non-participant ignored", "chat_id", ev.ChatID, "vk_id", ev.UserID)
		return
	}

	if err := m.games.CreditScore(active.ID, answerer.UserID, WinScore); err != nil {
		logger.Error("Failed to credit score", "game_id", active.ID, "user_id", answerer.UserID, "error", err)
		return
	}
	if err := m.games.MarkQuestionAnswered(active.ID, questionID); err != nil {
		logger.Error("Failed to mark question answered", "game_id", active.ID, "question_id", questionID, "error", err)
		return
	}
	active.MarkAnswered(questionID)

	next, finalScores, err := m.advance(ev.ChatID, active)
	if err != nil {
		return
	}

	name := answerer.DisplayName()
	if next != nil {
		m.send(ev.ChatID, fmt.Sprintf(fmtCorrectNext, name, WinScore, next.Title), KeyboardNone)
		return
	}
	m.send(ev.ChatID, fmt.Sprintf(fmtCorrectFinished, name, WinScore, scoreboardText(finalScores)), KeyboardNone)
}

// onTimeout consumes the current question without credit when its answer
// window expired. Timeouts for questions the game already moved past are
// stale and discarded without a message or mutation.
func (m *Machine) onTimeout(ev Event, active *models.Game) {
	if active.Status != models.GameStatusStarted ||
		active.CurrentQuestionID == nil ||
		*active.CurrentQuestionID != ev.QuestionID {
		logger.Debug("Stale timeout discarded", "chat_id", ev.ChatID, "question_id", ev.QuestionID)
		return
	}

	if err := m.games.MarkQuestionAnswered(active.ID, ev.QuestionID); err != nil {
		logger.Error("Failed to mark timed-out question", "game_id", active.ID, "question_id", ev.QuestionID, "error", err)
		return
	}
	active.MarkAnswered(ev.QuestionID)

	next, finalScores, err := m.advance(ev.ChatID, active)
	if err != nil {
		return
	}

	if next != nil {
		m.send(ev.ChatID, fmt.Sprintf(fmtTimeUpNext, next.Title), KeyboardNone)
		return
	}
	m.send(ev.ChatID, fmt.Sprintf(fmtTimeUpFinished, scoreboardText(finalScores)), KeyboardNone)
}

// advance moves the game to the next unanswered pool question, arming
// its answer timer, or finishes the game when the pool is exhausted.
// Exactly one of the returns is set on success.
func (m *Machine) advance(chatID string, active *models.Game) (*models.Question, []models.UserScore, error) {
	if nextID, ok := active.NextUnanswered(); ok {
		next, err := m.questions.QuestionByID(nextID)
		if err != nil {
			logger.Error("Failed to load next question", "game_id", active.ID, "question_id", nextID, "error", err)
			return nil, nil, err
		}
		if err := m.games.SetCurrentQuestion(active.ID, next.ID); err != nil {
			logger.Error("Failed to set next question", "game_id", active.ID, "question_id", next.ID, "error", err)
			return nil, nil, err
		}
		active.CurrentQuestionID = &next.ID
		m.scheduler.Schedule(chatID, next.ID)
		return next, nil, nil
	}

	scores, err := m.games.Scoreboard(active.ID)
	if err != nil {
		logger.Error("Failed to load scoreboard", "game_id", active.ID, "error", err)
		return nil, nil, err
	}

	if err := m.games.FinishGame(active.ID, pickWinner(scores)); err != nil {
		logger.Error("Failed to finish game", "game_id", active.ID, "error", err)
		return nil, nil, err
	}
	m.scheduler.Cancel(chatID)

	logger.Info("Game finished, pool exhausted", "chat_id", chatID, "game_id", active.ID)
	return nil, scores, nil
}

func (m *Machine) send(chatID, text string, keyboard Keyboard) {
	if err := m.gateway.SendMessage(chatID, text, keyboard); err != nil {
		logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// pickWinner selects the participant with the highest points; ties go to
// the earliest roster position. Returns nil for an empty roster.
func pickWinner(scores []models.UserScore) *uint {
	if len(scores) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Points > scores[best].Points {
			best = i
		}
	}
	return &scores[best].UserID
}

func findParticipant(scores []models.UserScore, vkID int64) *models.UserScore {
	for i := range scores {
		if scores[i].VkID == vkID {
			return &scores[i]
		}
	}
	return nil
}

func scoreboardText(scores []models.UserScore) string {
	lines := make([]string, 0, len(scores))
	for _, s := range scores {
		lines = append(lines, fmt.Sprintf(fmtScoreLine, s.DisplayName(), s.Points))
	}
	return strings.Join(lines, "\n")
}
