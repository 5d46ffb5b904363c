package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/pkg/logger"
)

// Finished games and winner rows per admin-panel page.
const pageSize = 5

// GameReader is the read-only game history surface of the admin API.
type GameReader interface {
	ListFinishedGames(limit, offset int) ([]models.GameSummary, error)
	CountFinishedGames() (int64, error)
	ListWinners(limit, offset int) ([]models.WinnerStat, error)
	AggregateStats() (*models.GameStats, error)
}

type GameHandler struct {
	games GameReader
	cache *StatsCache
}

func NewGameHandler(games GameReader, cache *StatsCache) *GameHandler {
	return &GameHandler{games: games, cache: cache}
}

// FetchGames lists finished games, newest first, paginated.
func (h *GameHandler) FetchGames(c *gin.Context) {
	page := parsePage(c.Query("page"))
	offset := (page - 1) * pageSize

	total, err := h.games.CountFinishedGames()
	if err != nil {
		logger.Error("Failed to count finished games", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	games, err := h.games.ListFinishedGames(pageSize, offset)
	if err != nil {
		logger.Error("Failed to list finished games", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if games == nil {
		games = []models.GameSummary{}
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"page":  page,
		"games": games,
	})
}

// FetchGameStats returns aggregated statistics plus a paginated winners
// leaderboard. The aggregate part is served from cache when fresh.
func (h *GameHandler) FetchGameStats(c *gin.Context) {
	page := parsePage(c.Query("page"))

	stats := h.cache.Get(c.Request.Context())
	if stats == nil {
		var err error
		stats, err = h.games.AggregateStats()
		if err != nil {
			logger.Error("Failed to aggregate game stats", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		h.cache.Set(c.Request.Context(), stats)
	}

	winners, err := h.games.ListWinners(pageSize, (page-1)*pageSize)
	if err != nil {
		logger.Error("Failed to list winners", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if winners == nil {
		winners = []models.WinnerStat{}
	}
	stats.WinnersTop = winners

	c.JSON(http.StatusOK, gin.H{
		"page":  page,
		"stats": stats,
	})
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
