package session

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/api/service"
	"ctchen222/tic-tac-toe-minimax/internal/events"
	"ctchen222/tic-tac-toe-minimax/pkg/proto"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session")

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Session binds one WebSocket connection to one game. Client messages are
// applied through the game service; every event published for the game is
// pushed back to the client.
type Session struct {
	GameID string

	conn       Connection
	games      service.GameService
	subscriber events.Subscriber
	heartbeat  time.Duration

	writeMu sync.Mutex
}

func NewSession(gameID string, conn Connection, games service.GameService, subscriber events.Subscriber, heartbeat time.Duration) *Session {
	return &Session{
		GameID:     gameID,
		conn:       conn,
		games:      games,
		subscriber: subscriber,
		heartbeat:  heartbeat,
	}
}

// Run serves the connection until the client goes away or ctx is done. When
// ctx ends first the client receives a going-away close frame. The connection
// is closed on return.
func (s *Session) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session.Run", trace.WithAttributes(attribute.String("game.id", s.GameID)))
	defer span.End()

	// shutdown ends only when the caller is done with the session.
	shutdown := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.conn.Close()

	updates, unsubscribe, err := s.subscriber.Subscribe(ctx, s.GameID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to subscribe to game events")
		return fmt.Errorf("failed to subscribe to game %s: %w", s.GameID, err)
	}
	defer unsubscribe()

	g, err := s.games.Get(ctx, s.GameID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load game")
		return fmt.Errorf("failed to load game %s: %w", s.GameID, err)
	}
	if err := s.Send(proto.NewUpdateMessage(proto.NewGameState(s.GameID, g))); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Session started", "game.id", s.GameID)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		s.writePump(ctx, updates)
	}()

	s.readPump(ctx)
	if shutdown.Err() != nil {
		// The server is going away; tell the client before closing.
		closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		if err := s.write(websocket.CloseMessage, closeMsg); err != nil {
			slog.WarnContext(ctx, "Failed to send close frame", "game.id", s.GameID, "error", err)
		}
	}
	cancel()
	// Unblock a read still waiting on the socket when ctx ended first.
	s.conn.Close()
	wg.Wait()

	slog.InfoContext(ctx, "Session ended", "game.id", s.GameID)
	return nil
}

// Send writes message to the client. Writes are serialized.
func (s *Session) Send(message *proto.ServerToClientMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return s.write(websocket.TextMessage, data)
}

func (s *Session) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// readPump hands every client message to HandleMessage until the connection
// fails or ctx is done.
func (s *Session) readPump(ctx context.Context) {
	readErr := make(chan error, 1)
	go func() {
		for {
			_, msg, err := s.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			s.HandleMessage(ctx, msg)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-readErr:
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			slog.WarnContext(ctx, "Client connection error", "game.id", s.GameID, "error", err)
		}
	}
}

// writePump forwards game events to the client and keeps the connection
// alive with pings.
func (s *Session) writePump(ctx context.Context, updates <-chan events.Event) {
	pingTicker := time.NewTicker(s.heartbeat)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-updates:
			if !ok {
				return
			}
			payload, err := event.DecodeGameState()
			if err != nil {
				slog.ErrorContext(ctx, "Could not decode game event", "game.id", s.GameID, "event.type", event.Type, "error", err)
				continue
			}
			if err := s.Send(proto.NewUpdateMessage(proto.NewGameState(payload.GameID, payload.Game))); err != nil {
				slog.WarnContext(ctx, "Failed to push update, closing session", "game.id", s.GameID, "error", err)
				return
			}

		case <-pingTicker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "Failed to send ping, assuming disconnect", "game.id", s.GameID, "error", err)
				return
			}
		}
	}
}
