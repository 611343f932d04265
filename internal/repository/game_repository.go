package repository

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Hash fields of a stored game.
const (
	FieldBoard    = "board"
	FieldHuman    = "human"
	FieldComputer = "computer"
	FieldPhase    = "phase"
	FieldResult   = "result"
	FieldWinner   = "winner"
	FieldMoves    = "moves"
	FieldLastMove = "last_move"
)

const maxUpdateRetries = 5

type redisGameRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewGameRepository creates a Redis-backed GameRepository. Every write
// refreshes the key's expiry to ttl.
func NewGameRepository(rdb *redis.Client, ttl time.Duration) GameRepository {
	return &redisGameRepository{rdb: rdb, ttl: ttl}
}

func gameKey(id string) string {
	return fmt.Sprintf("game:%s", id)
}

func encodeGame(g *game.Game) (map[string]any, error) {
	boardJSON, err := json.Marshal(g.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}

	lastMove := ""
	if g.LastMove != nil {
		lastMove = strconv.Itoa(*g.LastMove)
	}

	return map[string]any{
		FieldBoard:    boardJSON,
		FieldHuman:    string(g.Human),
		FieldComputer: string(g.Computer),
		FieldPhase:    string(g.Phase),
		FieldResult:   string(g.Outcome.Result),
		FieldWinner:   string(g.Outcome.Winner),
		FieldMoves:    g.Moves,
		FieldLastMove: lastMove,
	}, nil
}

func decodeGame(data map[string]string) (*game.Game, error) {
	g := &game.Game{
		Human:    game.PlayerMark(data[FieldHuman]),
		Computer: game.PlayerMark(data[FieldComputer]),
		Phase:    game.Phase(data[FieldPhase]),
		Outcome: game.Outcome{
			Result: game.GameResult(data[FieldResult]),
			Winner: game.PlayerMark(data[FieldWinner]),
		},
	}

	if err := json.Unmarshal([]byte(data[FieldBoard]), &g.Board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	moves, err := strconv.Atoi(data[FieldMoves])
	if err != nil {
		return nil, fmt.Errorf("failed to parse moves: %w", err)
	}
	g.Moves = moves

	if v := data[FieldLastMove]; v != "" {
		cell, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last move: %w", err)
		}
		g.LastMove = &cell
	}

	return g, nil
}

// Create stores a new game under id.
func (r *redisGameRepository) Create(ctx context.Context, id string, g *game.Game) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Create", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	fields, err := encodeGame(g)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode game")
		return err
	}

	key := gameKey(id)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game")
		return fmt.Errorf("failed to create game in redis: %w", err)
	}
	return nil
}

// FindByID retrieves a game, or ErrGameNotFound.
func (r *redisGameRepository) FindByID(ctx context.Context, id string) (*game.Game, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.FindByID", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, gameKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read game")
		return nil, fmt.Errorf("failed to get game from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrGameNotFound
	}

	return decodeGame(data)
}

// Update runs fn against the stored game under WATCH, retrying when another
// writer changes the key first.
func (r *redisGameRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*game.Game, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.Update", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	key := gameKey(id)
	var updated *game.Game

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return ErrGameNotFound
		}

		g, err := decodeGame(data)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}

		fields, err := encodeGame(g)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			pipe.Expire(ctx, key, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		updated = g
		return nil
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			span.AddEvent("transaction conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to update game")
			return nil, err
		}
		return updated, nil
	}

	err := fmt.Errorf("failed to update game %s: too many concurrent writers", id)
	span.RecordError(err)
	span.SetStatus(codes.Error, "Update retries exhausted")
	return nil, err
}

// Delete removes a game. Deleting a missing game is not an error.
func (r *redisGameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Delete", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	if err := r.rdb.Del(ctx, gameKey(id)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete game")
		return fmt.Errorf("failed to delete game from redis: %w", err)
	}
	return nil
}
