package controller

import (
	"ctchen222/tic-tac-toe-minimax/internal/api/models"
	"ctchen222/tic-tac-toe-minimax/internal/api/response"
	"ctchen222/tic-tac-toe-minimax/internal/api/service"
	"ctchen222/tic-tac-toe-minimax/pkg/proto"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GameController handles game-related HTTP requests.
type GameController struct {
	gameService service.GameService
	authService service.AuthService
}

// NewGameController creates a new GameController.
func NewGameController(gameService service.GameService, authService service.AuthService) *GameController {
	return &GameController{
		gameService: gameService,
		authService: authService,
	}
}

// Create starts a new game and returns its access token.
func (gc *GameController) Create(c *gin.Context) {
	ctx := c.Request.Context()

	id, g, err := gc.gameService.Create(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create game", "error", err)
		response.ErrorResponse(c, response.StatusFor(err), response.Message(err))
		return
	}

	token, err := gc.authService.IssueToken(id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to issue token", "game.id", id, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, response.Message(err))
		return
	}

	response.SuccessResponse(c, http.StatusCreated, models.CreateGameResponse{
		GameID: id,
		Token:  token,
		State:  proto.NewGameState(id, g),
	})
}

// Get returns the current state of a game.
func (gc *GameController) Get(c *gin.Context) {
	id := c.Param("id")
	g, err := gc.gameService.Get(c.Request.Context(), id)
	if err != nil {
		response.ErrorResponse(c, response.StatusFor(err), response.Message(err))
		return
	}

	response.SuccessResponse(c, http.StatusOK, proto.NewGameState(id, g))
}

// Play applies the human's move; the response already includes the
// computer's reply.
func (gc *GameController) Play(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	id := c.Param("id")
	g, err := gc.gameService.Play(c.Request.Context(), id, *req.Cell)
	if err != nil {
		response.ErrorResponse(c, response.StatusFor(err), response.Message(err))
		return
	}

	response.SuccessResponse(c, http.StatusOK, proto.NewGameState(id, g))
}

// Restart resets a game to an empty board.
func (gc *GameController) Restart(c *gin.Context) {
	id := c.Param("id")
	g, err := gc.gameService.Restart(c.Request.Context(), id)
	if err != nil {
		response.ErrorResponse(c, response.StatusFor(err), response.Message(err))
		return
	}

	response.SuccessResponse(c, http.StatusOK, proto.NewGameState(id, g))
}

// RequireGameToken rejects requests whose token does not grant access to the
// game named by the :id path parameter. The token is read from the
// Authorization header, or from the token query parameter for WebSocket
// upgrades where browsers cannot set headers.
func (gc *GameController) RequireGameToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing token")
			return
		}

		gameID, err := gc.authService.ParseToken(token)
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		if gameID != c.Param("id") {
			response.AbortWithError(c, http.StatusUnauthorized, "token does not grant access to this game")
			return
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
