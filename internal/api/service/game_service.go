package service

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/events"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"ctchen222/tic-tac-toe-minimax/internal/repository"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("service")

var ErrNoMoveAvailable = errors.New("computer found no move")

// MoveCalculator picks the computer's move. It reports ok == false when the
// board has no empty cell.
type MoveCalculator interface {
	CalculateNextMove(ctx context.Context, board game.Board, mark game.PlayerMark) (cell int, ok bool)
}

// GameService defines the game use cases exposed over HTTP and WebSocket.
type GameService interface {
	Create(ctx context.Context) (string, *game.Game, error)
	Get(ctx context.Context, id string) (*game.Game, error)
	Play(ctx context.Context, id string, cell int) (*game.Game, error)
	Restart(ctx context.Context, id string) (*game.Game, error)
}

type gameService struct {
	repo      repository.GameRepository
	bot       MoveCalculator
	publisher events.Publisher
	human     game.PlayerMark
}

// NewGameService creates a GameService in which the human plays human.
func NewGameService(repo repository.GameRepository, bot MoveCalculator, publisher events.Publisher, human game.PlayerMark) GameService {
	return &gameService{
		repo:      repo,
		bot:       bot,
		publisher: publisher,
		human:     human,
	}
}

func (s *gameService) Create(ctx context.Context) (string, *game.Game, error) {
	ctx, span := tracer.Start(ctx, "GameService.Create")
	defer span.End()

	g, err := game.NewGame(s.human)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game")
		return "", nil, err
	}

	id := uuid.New().String()
	span.SetAttributes(attribute.String("game.id", id))

	if err := s.repo.Create(ctx, id, g); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store game")
		return "", nil, fmt.Errorf("failed to store game: %w", err)
	}

	slog.InfoContext(ctx, "Game created", "game.id", id, "player.mark", g.Human)
	return id, g, nil
}

func (s *gameService) Get(ctx context.Context, id string) (*game.Game, error) {
	ctx, span := tracer.Start(ctx, "GameService.Get", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	return s.repo.FindByID(ctx, id)
}

// Play applies the human's move and, if the game goes on, the computer's
// reply, as one atomic update.
func (s *gameService) Play(ctx context.Context, id string, cell int) (*game.Game, error) {
	ctx, span := tracer.Start(ctx, "GameService.Play", trace.WithAttributes(
		attribute.String("game.id", id),
		attribute.Int("game.cell", cell),
	))
	defer span.End()

	g, err := s.repo.Update(ctx, id, func(g *game.Game) error {
		if err := g.PlayHuman(cell); err != nil {
			return err
		}
		if g.Phase != game.AwaitingComputer {
			return nil
		}

		reply, ok := s.bot.CalculateNextMove(ctx, g.Board, g.Computer)
		if !ok {
			return ErrNoMoveAvailable
		}
		return g.PlayComputer(reply)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to play move")
		return nil, err
	}

	span.SetAttributes(attribute.String("game.phase", string(g.Phase)))
	if g.Phase == game.Finished {
		slog.InfoContext(ctx, "Game finished", "game.id", id, "game.result", g.Outcome.Result, "game.winner", g.Outcome.Winner)
	}

	s.publish(ctx, events.GameUpdated, id, g)
	return g, nil
}

func (s *gameService) Restart(ctx context.Context, id string) (*game.Game, error) {
	ctx, span := tracer.Start(ctx, "GameService.Restart", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	g, err := s.repo.Update(ctx, id, func(g *game.Game) error {
		g.Restart()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to restart game")
		return nil, err
	}

	slog.InfoContext(ctx, "Game restarted", "game.id", id)
	s.publish(ctx, events.GameRestarted, id, g)
	return g, nil
}

// publish notifies subscribers. The state is already stored, so a failure
// here is logged and not returned.
func (s *gameService) publish(ctx context.Context, eventType, id string, g *game.Game) {
	event, err := events.NewGameStateEvent(eventType, id, g)
	if err == nil {
		err = s.publisher.Publish(ctx, id, event)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish game event", "game.id", id, "event.type", eventType, "error", err)
	}
}
