package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkotelnikov/quizbot/internal/middleware"
)

// RouterConfig carries everything the admin HTTP surface needs.
type RouterConfig struct {
	JWTSecret      string
	RateLimitPerIP int
	Admins         AdminStore
	Games          GameReader
	Quiz           QuizStore
	Cache          *StatsCache
	AppEnv         string
}

// NewRouter assembles the admin API. Endpoints follow the dot-method
// naming of the original admin panel client.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID())

	auth := NewAuthHandler(cfg.Admins, cfg.JWTSecret)
	games := NewGameHandler(cfg.Games, cfg.Cache)
	quiz := NewQuizHandler(cfg.Quiz)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerIP, time.Minute)
	router.POST("/admin.login", RateLimit(limiter), auth.Login)

	protected := router.Group("/", Auth(cfg.JWTSecret))
	{
		protected.GET("/admin.current", auth.Current)
		protected.GET("/admin.fetch_games", games.FetchGames)
		protected.GET("/admin.fetch_game_stats", games.FetchGameStats)
		protected.GET("/admin.list_themes", quiz.ListThemes)
		protected.POST("/admin.add_theme", quiz.AddTheme)
		protected.GET("/admin.list_questions", quiz.ListQuestions)
		protected.POST("/admin.add_question", quiz.AddQuestion)
	}

	return router
}
