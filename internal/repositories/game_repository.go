package repositories

import (
	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/pkg/errors"
	"gorm.io/gorm"
)

type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// ActiveGame retrieves the non-finished game for a chat, nil when the
// chat has no active game.
func (r *GameRepository) ActiveGame(chatID string) (*models.Game, error) {
	var game models.Game
	result := r.db.Where("chat_id = ? AND status != ?", chatID, models.GameStatusFinished).
		First(&game)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get active game")
	}

	return &game, nil
}

// CreateGame creates a started game with its participant roster and a
// fixed ordered question-pool snapshot. Zero-count score rows are
// created up front so the scoreboard always covers the full roster.
func (r *GameRepository) CreateGame(chatID string, users []*models.User, questionIDs []uint) (*models.Game, error) {
	game := &models.Game{
		ChatID:      chatID,
		Status:      models.GameStatusStarted,
		QuestionIDs: models.EncodeIDs(questionIDs),
		AnsweredIDs: models.EncodeIDs(nil),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		for i, user := range users {
			participant := models.GameUser{
				GameID:    game.ID,
				UserID:    user.ID,
				JoinOrder: i + 1,
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
			score := models.Score{GameID: game.ID, UserID: user.ID, Count: 0}
			if err := tx.Create(&score).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create game")
	}

	return game, nil
}

// SetCurrentQuestion updates the question currently open for answers.
func (r *GameRepository) SetCurrentQuestion(gameID, questionID uint) error {
	result := r.db.Model(&models.Game{}).
		Where("id = ?", gameID).
		Update("current_question_id", questionID)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to set current question")
	}

	return nil
}

// MarkQuestionAnswered appends a question id to the game's consumed set.
func (r *GameRepository) MarkQuestionAnswered(gameID, questionID uint) error {
	var game models.Game
	if err := r.db.First(&game, gameID).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to load game")
	}

	game.MarkAnswered(questionID)
	result := r.db.Model(&models.Game{}).
		Where("id = ?", gameID).
		Update("answered_ids", game.AnsweredIDs)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to mark question answered")
	}

	return nil
}

// FinishGame transitions a game to finished, setting finished_at and the
// winner exactly once. Already-finished games are left untouched.
func (r *GameRepository) FinishGame(gameID uint, winnerUserID *uint) error {
	updates := map[string]interface{}{
		"status":      models.GameStatusFinished,
		"finished_at": gorm.Expr("CURRENT_TIMESTAMP"),
	}
	if winnerUserID != nil {
		updates["winner_user_id"] = *winnerUserID
	}

	result := r.db.Model(&models.Game{}).
		Where("id = ? AND status != ?", gameID, models.GameStatusFinished).
		Updates(updates)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to finish game")
	}

	return nil
}

// CreditScore increments a participant's accumulated points.
func (r *GameRepository) CreditScore(gameID, userID uint, delta int) error {
	result := r.db.Model(&models.Score{}).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		Update("count", gorm.Expr("count + ?", delta))

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to credit score")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "score row not found")
	}

	return nil
}

// Scoreboard returns the roster with accumulated points, in join order.
// Join order is the tie-break order for winner selection.
func (r *GameRepository) Scoreboard(gameID uint) ([]models.UserScore, error) {
	var rows []models.UserScore
	err := r.db.Table("game_users").
		Select("game_users.user_id AS user_id, users.vk_id AS vk_id, users.first_name AS first_name, users.last_name AS last_name, COALESCE(scores.count, 0) AS points").
		Joins("JOIN users ON users.id = game_users.user_id").
		Joins("LEFT JOIN scores ON scores.game_id = game_users.game_id AND scores.user_id = game_users.user_id").
		Where("game_users.game_id = ?", gameID).
		Order("game_users.join_order ASC").
		Scan(&rows).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load scoreboard")
	}

	return rows, nil
}

// ListFinishedGames returns finished games, newest first, with winner info.
func (r *GameRepository) ListFinishedGames(limit, offset int) ([]models.GameSummary, error) {
	var games []models.Game
	err := r.db.Where("status = ?", models.GameStatusFinished).
		Order("finished_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&games).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list finished games")
	}

	summaries := make([]models.GameSummary, 0, len(games))
	for _, game := range games {
		summary := models.GameSummary{
			ID:         game.ID,
			ChatID:     game.ChatID,
			StartedAt:  game.StartedAt,
			FinishedAt: game.FinishedAt,
		}
		if game.FinishedAt != nil {
			summary.Duration = int64(game.FinishedAt.Sub(game.StartedAt).Seconds())
		}
		if game.WinnerUserID != nil {
			winner, err := r.winnerInfo(game.ID, *game.WinnerUserID)
			if err != nil {
				return nil, err
			}
			summary.Winner = winner
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (r *GameRepository) winnerInfo(gameID, userID uint) (*models.WinnerInfo, error) {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load winner")
	}

	var score models.Score
	points := 0
	if err := r.db.Where("game_id = ? AND user_id = ?", gameID, userID).First(&score).Error; err == nil {
		points = score.Count
	}

	return &models.WinnerInfo{VkID: user.VkID, Points: points}, nil
}

// CountFinishedGames returns the finished-games total.
func (r *GameRepository) CountFinishedGames() (int64, error) {
	var count int64
	err := r.db.Model(&models.Game{}).
		Where("status = ?", models.GameStatusFinished).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count finished games")
	}
	return count, nil
}

// ListWinners returns users ranked by number of games won.
func (r *GameRepository) ListWinners(limit, offset int) ([]models.WinnerStat, error) {
	var winners []models.WinnerStat
	err := r.db.Table("games").
		Select("users.vk_id AS vk_id, users.first_name AS first_name, users.last_name AS last_name, COUNT(games.id) AS win_count").
		Joins("JOIN users ON users.id = games.winner_user_id").
		Where("games.status = ? AND games.winner_user_id IS NOT NULL", models.GameStatusFinished).
		Group("users.id, users.vk_id, users.first_name, users.last_name").
		Order("win_count DESC, users.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&winners).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list winners")
	}

	return winners, nil
}

// AggregateStats computes finished-game totals: count, total duration,
// average duration and games-per-day average.
func (r *GameRepository) AggregateStats() (*models.GameStats, error) {
	var row struct {
		Total         int64
		DurationTotal float64
		DurationAvg   float64
		PerDay        float64
	}

	err := r.db.Raw(`
		SELECT COUNT(*) AS total,
		       COALESCE(EXTRACT(EPOCH FROM SUM(finished_at - started_at)), 0) AS duration_total,
		       COALESCE(EXTRACT(EPOCH FROM AVG(finished_at - started_at)), 0) AS duration_avg,
		       CASE WHEN COUNT(*) = 0 THEN 0
		            ELSE COUNT(*)::float / GREATEST(DATE_PART('day', NOW() - MIN(started_at)), 1)
		       END AS per_day
		FROM games
		WHERE status = ?`, models.GameStatusFinished).Scan(&row).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to aggregate stats")
	}

	return &models.GameStats{
		GamesTotal:         row.Total,
		DurationTotal:      int64(row.DurationTotal),
		DurationAverage:    int64(row.DurationAvg),
		GamesAveragePerDay: row.PerDay,
	}, nil
}
