package repository

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"errors"

	"go.opentelemetry.io/otel"
)

//go:generate mockgen -source=repository.go -destination=mocks/mock_game_repository.go -package=mocks

var tracer = otel.Tracer("repository")

var ErrGameNotFound = errors.New("game not found")

// UpdateFunc mutates a game inside an atomic read-modify-write. Returning an
// error aborts the update and leaves the stored game untouched.
type UpdateFunc func(g *game.Game) error

// GameRepository defines the interface for game data operations.
type GameRepository interface {
	Create(ctx context.Context, id string, g *game.Game) error
	FindByID(ctx context.Context, id string) (*game.Game, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*game.Game, error)
	Delete(ctx context.Context, id string) error
}

func cloneGame(g *game.Game) *game.Game {
	c := *g
	if g.LastMove != nil {
		cell := *g.LastMove
		c.LastMove = &cell
	}
	return &c
}
