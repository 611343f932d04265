package bot

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("bot")
	meter  = otel.Meter("bot")
)

// BotMoveCalculator implements the service.MoveCalculator interface on top of
// the minimax Searcher, recording a span and search metrics for every call.
type BotMoveCalculator struct {
	opts     []Option
	nodes    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewBotMoveCalculator creates a calculator whose searches use opts.
func NewBotMoveCalculator(opts ...Option) (*BotMoveCalculator, error) {
	nodes, err := meter.Int64Counter("bot.search.nodes",
		metric.WithDescription("Positions visited by the minimax search"),
		metric.WithUnit("{position}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create nodes counter: %w", err)
	}

	duration, err := meter.Float64Histogram("bot.search.duration",
		metric.WithDescription("Wall time of one minimax search"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &BotMoveCalculator{opts: opts, nodes: nodes, duration: duration}, nil
}

// CalculateNextMove returns the optimal cell for mark, or ok == false when the
// board is full.
func (c *BotMoveCalculator) CalculateNextMove(ctx context.Context, board game.Board, mark game.PlayerMark) (cell int, ok bool) {
	ctx, span := tracer.Start(ctx, "bot.CalculateNextMove", trace.WithAttributes(
		attribute.String("bot.mark", string(mark)),
		attribute.Int("board.empty_cells", len(board.EmptyCells())),
	))
	defer span.End()

	searcher := NewSearcher(c.opts...)
	start := time.Now()
	cell, ok = searcher.BestMove(board, mark)
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(attribute.String("bot.mark", string(mark)))
	c.nodes.Add(ctx, int64(searcher.Nodes()), attrs)
	c.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)

	span.SetAttributes(
		attribute.Int("bot.nodes", searcher.Nodes()),
		attribute.Int("bot.depth", searcher.Depth()),
	)

	if !ok {
		slog.WarnContext(ctx, "Bot found no move", "bot.mark", mark, "board", board.String())
		span.SetStatus(codes.Error, "No move available")
		return -1, false
	}

	span.SetAttributes(attribute.Int("bot.cell", cell))
	slog.DebugContext(ctx, "Bot chose move",
		"bot.mark", mark,
		"bot.cell", cell,
		"bot.nodes", searcher.Nodes(),
		"elapsed", elapsed,
	)
	return cell, true
}
