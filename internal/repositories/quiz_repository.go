package repositories

import (
	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/pkg/errors"
	"gorm.io/gorm"
)

type QuizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// CreateTheme creates a question theme with a unique title.
func (r *QuizRepository) CreateTheme(title string) (*models.Theme, error) {
	if title == "" {
		return nil, errors.New(errors.ErrCodeValidation, "theme title is required")
	}

	var existing models.Theme
	if err := r.db.Where("title = ?", title).First(&existing).Error; err == nil {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "theme already exists")
	}

	theme := models.Theme{Title: title}
	if err := r.db.Create(&theme).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create theme")
	}

	return &theme, nil
}

// ListThemes returns all themes in creation order.
func (r *QuizRepository) ListThemes() ([]models.Theme, error) {
	var themes []models.Theme
	if err := r.db.Order("id ASC").Find(&themes).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list themes")
	}
	return themes, nil
}

// CreateQuestion creates a question with its answers. A question must
// carry at least two answers, exactly one of them correct; anything else
// is a configuration error rejected here, never at game time.
func (r *QuizRepository) CreateQuestion(title string, themeID uint, answers []models.Answer) (*models.Question, error) {
	if err := validateQuestion(title, answers); err != nil {
		return nil, err
	}

	var theme models.Theme
	if err := r.db.First(&theme, themeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "theme not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check theme")
	}

	var existing models.Question
	if err := r.db.Where("title = ?", title).First(&existing).Error; err == nil {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "question already exists")
	}

	question := models.Question{Title: title, ThemeID: themeID}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].ID = 0
			answers[i].QuestionID = question.ID
		}
		return tx.Create(&answers).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create question")
	}

	question.Answers = answers
	return &question, nil
}

func validateQuestion(title string, answers []models.Answer) error {
	if title == "" {
		return errors.New(errors.ErrCodeValidation, "question title is required")
	}
	if len(answers) < 2 {
		return errors.New(errors.ErrCodeValidation, "question needs at least two answers")
	}

	correct := 0
	for _, a := range answers {
		if a.Title == "" {
			return errors.New(errors.ErrCodeValidation, "answer title is required")
		}
		if a.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return errors.New(errors.ErrCodeValidation, "question must have exactly one correct answer")
	}
	return nil
}

// ListQuestions returns questions with answers in stable id order.
// themeID 0 means all themes.
func (r *QuizRepository) ListQuestions(themeID uint) ([]models.Question, error) {
	var questions []models.Question
	query := r.db.Preload("Answers").Order("id ASC")
	if themeID != 0 {
		query = query.Where("theme_id = ?", themeID)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list questions")
	}
	return questions, nil
}

// QuestionByID retrieves one question with its answers.
func (r *QuizRepository) QuestionByID(id uint) (*models.Question, error) {
	var question models.Question
	result := r.db.Preload("Answers").First(&question, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "question not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get question")
	}

	return &question, nil
}
