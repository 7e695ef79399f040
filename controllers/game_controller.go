package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CUknot/arena_backend/game"
	"github.com/CUknot/arena_backend/models"
)

const historyLimit = 50

// GameLister lists the matches currently being played.
type GameLister interface {
	Games() []game.Summary
}

type ResultReader interface {
	ListGameResults(ctx context.Context, limit int) ([]models.GameResult, error)
}

type GameController struct {
	games   GameLister
	results ResultReader
}

func NewGameController(games GameLister, results ResultReader) *GameController {
	return &GameController{games: games, results: results}
}

// GetGames returns the running matches.
// @Router /api/games [get]
func (g *GameController) GetGames(c *gin.Context) {
	games := g.games.Games()
	if games == nil {
		games = []game.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// GetHistory returns finished matches, newest first.
// @Router /api/games/history [get]
func (g *GameController) GetHistory(c *gin.Context) {
	limit, ok := queryLimit(c, historyLimit, historyLimit)
	if !ok {
		return
	}

	results, err := g.results.ListGameResults(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch game history"})
		return
	}
	if results == nil {
		results = []models.GameResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
