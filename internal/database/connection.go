package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkotelnikov/quizbot/internal/config"
	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/pkg/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true, // Skip wrapping every operation in a transaction
		PrepareStmt:            true, // Cache prepared statements
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Theme{},
		&models.Question{},
		&models.Answer{},
		&models.Game{},
		&models.GameUser{},
		&models.Score{},
		&models.Admin{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SeedQuestions populates a starter theme when the question table is
// empty, so a fresh deployment can host a game immediately.
func SeedQuestions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Question{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		return nil
	}

	logger.Info("Seeding starter questions...")

	theme := models.Theme{Title: "Общие знания"}
	if err := db.Where(models.Theme{Title: theme.Title}).FirstOrCreate(&theme).Error; err != nil {
		return fmt.Errorf("failed to seed theme: %w", err)
	}

	seed := []struct {
		title   string
		correct string
		wrong   []string
	}{
		{"Столица Франции?", "Париж", []string{"Лондон", "Берлин"}},
		{"Какая планета известна как красная планета?", "Марс", []string{"Венера", "Юпитер"}},
		{"Сколько будет 7 умножить на 8?", "56", []string{"54", "63"}},
		{"Самый большой океан на Земле?", "Тихий", []string{"Атлантический", "Индийский"}},
		{"Автор романа \"Война и мир\"?", "Толстой", []string{"Достоевский", "Чехов"}},
	}

	for _, s := range seed {
		question := models.Question{Title: s.title, ThemeID: theme.ID}
		if err := db.Create(&question).Error; err != nil {
			return fmt.Errorf("failed to seed question: %w", err)
		}
		answers := []models.Answer{{QuestionID: question.ID, Title: s.correct, IsCorrect: true}}
		for _, w := range s.wrong {
			answers = append(answers, models.Answer{QuestionID: question.ID, Title: w})
		}
		if err := db.Create(&answers).Error; err != nil {
			return fmt.Errorf("failed to seed answers: %w", err)
		}
	}

	logger.Info("Starter questions seeded", "count", len(seed))
	return nil
}
