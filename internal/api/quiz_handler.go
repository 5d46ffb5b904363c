package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/internal/security"
	"github.com/mkotelnikov/quizbot/pkg/errors"
	"github.com/mkotelnikov/quizbot/pkg/logger"
)

// QuizStore manages themes and questions for the admin API.
type QuizStore interface {
	CreateTheme(title string) (*models.Theme, error)
	ListThemes() ([]models.Theme, error)
	CreateQuestion(title string, themeID uint, answers []models.Answer) (*models.Question, error)
	ListQuestions(themeID uint) ([]models.Question, error)
}

type QuizHandler struct {
	quiz QuizStore
}

func NewQuizHandler(quiz QuizStore) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

type addThemeRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *QuizHandler) AddTheme(c *gin.Context) {
	var req addThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	theme, err := h.quiz.CreateTheme(security.SanitizeString(req.Title))
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "theme already exists"})
			return
		}
		logger.Error("Failed to create theme", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

func (h *QuizHandler) ListThemes(c *gin.Context) {
	themes, err := h.quiz.ListThemes()
	if err != nil {
		logger.Error("Failed to list themes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if themes == nil {
		themes = []models.Theme{}
	}
	c.JSON(http.StatusOK, gin.H{"themes": themes})
}

type addQuestionRequest struct {
	Title   string `json:"title" binding:"required"`
	ThemeID uint   `json:"theme_id" binding:"required"`
	Answers []struct {
		Title     string `json:"title" binding:"required"`
		IsCorrect bool   `json:"is_correct"`
	} `json:"answers" binding:"required"`
}

// AddQuestion creates a question with its answer set. The repository
// rejects sets without exactly one correct answer.
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	var req addQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, theme_id and answers are required"})
		return
	}

	answers := make([]models.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, models.Answer{
			Title:     security.SanitizeString(a.Title),
			IsCorrect: a.IsCorrect,
		})
	}

	question, err := h.quiz.CreateQuestion(security.SanitizeString(req.Title), req.ThemeID, answers)
	if err != nil {
		switch {
		case errors.HasCode(err, errors.ErrCodeValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.HasCode(err, errors.ErrCodeAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "question already exists"})
		case errors.HasCode(err, errors.ErrCodeNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "theme not found"})
		default:
			logger.Error("Failed to create question", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": question})
}

func (h *QuizHandler) ListQuestions(c *gin.Context) {
	var themeID uint
	if raw := c.Query("theme_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid theme_id"})
			return
		}
		themeID = uint(parsed)
	}

	questions, err := h.quiz.ListQuestions(themeID)
	if err != nil {
		logger.Error("Failed to list questions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}
