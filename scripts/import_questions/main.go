package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mkotelnikov/quizbot/internal/models"
)

// Imports quiz questions from an xlsx workbook. Each sheet becomes a
// theme named after the sheet; expected columns per row:
//
//	question | correct answer | wrong answer 1 | wrong answer 2 | ...
//
// Usage: go run ./scripts/import_questions questions.xlsx
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if len(os.Args) < 2 {
		log.Fatal("usage: import_questions <file.xlsx>")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	totalImported := 0

	for _, sheetName := range f.GetSheetList() {
		fmt.Printf("Importing sheet: %s\n", sheetName)
		rows, err := f.GetRows(sheetName)
		if err != nil {
			fmt.Printf("Error reading sheet %s: %v\n", sheetName, err)
			continue
		}

		theme := models.Theme{Title: strings.TrimSpace(sheetName)}
		if err := db.Where(models.Theme{Title: theme.Title}).FirstOrCreate(&theme).Error; err != nil {
			fmt.Printf("Error creating theme %s: %v\n", sheetName, err)
			continue
		}

		for i, row := range rows {
			if i == 0 || len(row) < 3 { // Skip header or invalid rows
				continue
			}

			title := strings.TrimSpace(row[0])
			correct := strings.TrimSpace(row[1])
			if title == "" || correct == "" {
				continue
			}

			var exists int64
			db.Model(&models.Question{}).Where("title = ?", title).Count(&exists)
			if exists > 0 {
				continue
			}

			question := models.Question{Title: title, ThemeID: theme.ID}
			if err := db.Create(&question).Error; err != nil {
				fmt.Printf("Error creating question %q: %v\n", title, err)
				continue
			}

			answers := []models.Answer{{QuestionID: question.ID, Title: correct, IsCorrect: true}}
			for _, cell := range row[2:] {
				wrong := strings.TrimSpace(cell)
				if wrong == "" {
					continue
				}
				answers = append(answers, models.Answer{QuestionID: question.ID, Title: wrong})
			}
			if err := db.Create(&answers).Error; err != nil {
				fmt.Printf("Error creating answers for %q: %v\n", title, err)
				continue
			}

			totalImported++
		}
	}

	fmt.Printf("Done. Imported %d questions.\n", totalImported)
}
