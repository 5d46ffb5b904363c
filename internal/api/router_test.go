package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/internal/security"
	"github.com/mkotelnikov/quizbot/pkg/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeAdminStore struct {
	admin *models.Admin
}

func (s *fakeAdminStore) GetByEmail(email string) (*models.Admin, error) {
	if s.admin != nil && s.admin.Email == email {
		return s.admin, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "admin not found")
}

type fakeGameReader struct {
	games   []models.GameSummary
	winners []models.WinnerStat
	stats   models.GameStats
}

func (r *fakeGameReader) ListFinishedGames(limit, offset int) ([]models.GameSummary, error) {
	if offset >= len(r.games) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.games) {
		end = len(r.games)
	}
	return r.games[offset:end], nil
}

func (r *fakeGameReader) CountFinishedGames() (int64, error) {
	return int64(len(r.games)), nil
}

func (r *fakeGameReader) ListWinners(limit, offset int) ([]models.WinnerStat, error) {
	return r.winners, nil
}

func (r *fakeGameReader) AggregateStats() (*models.GameStats, error) {
	stats := r.stats
	return &stats, nil
}

type fakeQuizStore struct {
	themes    []models.Theme
	questions []models.Question
	createErr error
}

func (s *fakeQuizStore) CreateTheme(title string) (*models.Theme, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	theme := models.Theme{ID: uint(len(s.themes) + 1), Title: title}
	s.themes = append(s.themes, theme)
	return &theme, nil
}

func (s *fakeQuizStore) ListThemes() ([]models.Theme, error) {
	return s.themes, nil
}

func (s *fakeQuizStore) CreateQuestion(title string, themeID uint, answers []models.Answer) (*models.Question, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	if len(answers) < 2 || correct != 1 {
		return nil, errors.New(errors.ErrCodeValidation, "question needs exactly one correct answer")
	}
	q := models.Question{ID: uint(len(s.questions) + 1), Title: title, ThemeID: themeID, Answers: answers}
	s.questions = append(s.questions, q)
	return &q, nil
}

func (s *fakeQuizStore) ListQuestions(themeID uint) ([]models.Question, error) {
	return s.questions, nil
}

func newTestRouter(games GameReader, quiz QuizStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		JWTSecret:      testSecret,
		RateLimitPerIP: 1000,
		Admins: &fakeAdminStore{admin: &models.Admin{
			ID:       1,
			Email:    "admin@example.com",
			Password: security.HashSHA256("secret123"),
		}},
		Games: games,
		Quiz:  quiz,
		Cache: nil, // no Redis in tests, cache always misses
	})
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/admin.login", "",
		`{"email":"admin@example.com","password":"secret123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("Expected a token")
	}
	return resp.Token
}

func TestLogin(t *testing.T) {
	router := newTestRouter(&fakeGameReader{}, &fakeQuizStore{})

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid credentials", `{"email":"admin@example.com","password":"secret123"}`, http.StatusOK},
		{"wrong password", `{"email":"admin@example.com","password":"nope"}`, http.StatusForbidden},
		{"unknown email", `{"email":"other@example.com","password":"secret123"}`, http.StatusForbidden},
		{"missing password", `{"email":"admin@example.com"}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/admin.login", "", tt.body)
			if w.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestCurrentRequiresToken(t *testing.T) {
	router := newTestRouter(&fakeGameReader{}, &fakeQuizStore{})

	if w := doRequest(t, router, http.MethodGet, "/admin.current", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
	if w := doRequest(t, router, http.MethodGet, "/admin.current", "garbage", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bad token, got %d", w.Code)
	}

	token := login(t, router)
	w := doRequest(t, router, http.MethodGet, "/admin.current", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 with valid token, got %d", w.Code)
	}
	var resp struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Email != "admin@example.com" {
		t.Errorf("Expected admin email, got %q", resp.Email)
	}
}

func TestFetchGamesEmpty(t *testing.T) {
	router := newTestRouter(&fakeGameReader{}, &fakeQuizStore{})
	token := login(t, router)

	w := doRequest(t, router, http.MethodGet, "/admin.fetch_games", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Total int64                `json:"total"`
		Page  int                  `json:"page"`
		Games []models.GameSummary `json:"games"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 0 || resp.Page != 1 {
		t.Errorf("Expected empty first page, got total=%d page=%d", resp.Total, resp.Page)
	}
	if resp.Games == nil {
		t.Error("Expected empty list, not null")
	}
}

func TestFetchGamesPagination(t *testing.T) {
	reader := &fakeGameReader{}
	for i := 0; i < 7; i++ {
		reader.games = append(reader.games, models.GameSummary{ID: uint(i + 1), ChatID: "c1"})
	}
	router := newTestRouter(reader, &fakeQuizStore{})
	token := login(t, router)

	w := doRequest(t, router, http.MethodGet, "/admin.fetch_games?page=2", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp struct {
		Total int64                `json:"total"`
		Games []models.GameSummary `json:"games"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 7 {
		t.Errorf("Expected total 7, got %d", resp.Total)
	}
	if len(resp.Games) != 2 {
		t.Errorf("Expected 2 games on page 2 with page size 5, got %d", len(resp.Games))
	}

	// Nonsense page parameter falls back to the first page.
	w = doRequest(t, router, http.MethodGet, "/admin.fetch_games?page=abc", token, "")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Games) != 5 {
		t.Errorf("Expected full first page, got %d games", len(resp.Games))
	}
}

func TestFetchGameStats(t *testing.T) {
	reader := &fakeGameReader{
		stats: models.GameStats{GamesTotal: 3, DurationTotal: 300, DurationAverage: 100},
		winners: []models.WinnerStat{
			{VkID: 101, WinCount: 2, FirstName: "Иван"},
		},
	}
	router := newTestRouter(reader, &fakeQuizStore{})
	token := login(t, router)

	w := doRequest(t, router, http.MethodGet, "/admin.fetch_game_stats", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Stats models.GameStats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Stats.GamesTotal != 3 {
		t.Errorf("Expected 3 games total, got %d", resp.Stats.GamesTotal)
	}
	if len(resp.Stats.WinnersTop) != 1 || resp.Stats.WinnersTop[0].VkID != 101 {
		t.Errorf("Expected winners leaderboard, got %+v", resp.Stats.WinnersTop)
	}
}

func TestAddTheme(t *testing.T) {
	router := newTestRouter(&fakeGameReader{}, &fakeQuizStore{})
	token := login(t, router)

	w := doRequest(t, router, http.MethodPost, "/admin.add_theme", token, `{"title":"География"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, http.MethodPost, "/admin.add_theme", token, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing title, got %d", w.Code)
	}
}

func TestAddThemeConflict(t *testing.T) {
	quiz := &fakeQuizStore{createErr: errors.New(errors.ErrCodeAlreadyExists, "theme already exists")}
	router := newTestRouter(&fakeGameReader{}, quiz)
	token := login(t, router)

	w := doRequest(t, router, http.MethodPost, "/admin.add_theme", token, `{"title":"География"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestAddQuestionValidation(t *testing.T) {
	router := newTestRouter(&fakeGameReader{}, &fakeQuizStore{})
	token := login(t, router)

	valid := `{"title":"Столица Франции?","theme_id":1,"answers":[` +
		`{"title":"Париж","is_correct":true},{"title":"Лондон","is_correct":false}]}`
	w := doRequest(t, router, http.MethodPost, "/admin.add_question", token, valid)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for valid question, got %d: %s", w.Code, w.Body.String())
	}

	// No correct answer in the set.
	noCorrect := `{"title":"Вопрос?","theme_id":1,"answers":[` +
		`{"title":"a","is_correct":false},{"title":"b","is_correct":false}]}`
	w = doRequest(t, router, http.MethodPost, "/admin.add_question", token, noCorrect)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a correct answer, got %d", w.Code)
	}

	// Two correct answers.
	twoCorrect := `{"title":"Вопрос?","theme_id":1,"answers":[` +
		`{"title":"a","is_correct":true},{"title":"b","is_correct":true}]}`
	w = doRequest(t, router, http.MethodPost, "/admin.add_question", token, twoCorrect)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 with two correct answers, got %d", w.Code)
	}

	w = doRequest(t, router, http.MethodPost, "/admin.add_question", token, `{"title":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing fields, got %d", w.Code)
	}
}
