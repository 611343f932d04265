package session

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/api/response"
	"ctchen222/tic-tac-toe-minimax/internal/validator"
	"ctchen222/tic-tac-toe-minimax/pkg/proto"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HandleMessage handles one client message. Successful moves and restarts
// reach the client through the game's event stream; rejected input is
// answered with an error message.
func (s *Session) HandleMessage(ctx context.Context, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "session.HandleMessage", trace.WithAttributes(
		attribute.String("game.id", s.GameID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "game.id", s.GameID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		s.reject(ctx, "malformed message")
		return
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from client", "game.id", s.GameID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		s.reject(ctx, "invalid message")
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	var err error
	switch message.Type {
	case proto.TypeMove:
		span.SetAttributes(attribute.Int("game.cell", *message.Cell))
		_, err = s.games.Play(ctx, s.GameID, *message.Cell)
	case proto.TypeRestart:
		_, err = s.games.Restart(ctx, s.GameID)
	}
	if err != nil {
		slog.WarnContext(ctx, "client request rejected", "game.id", s.GameID, "message.type", message.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Request rejected")
		s.reject(ctx, response.Message(err))
	}
}

func (s *Session) reject(ctx context.Context, reason string) {
	if err := s.Send(proto.NewErrorMessage(reason)); err != nil {
		slog.WarnContext(ctx, "Failed to send error message", "game.id", s.GameID, "error", err)
	}
}
