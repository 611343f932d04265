package events

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("events")

// Event types
const (
	GameUpdated   = "game_updated"
	GameRestarted = "game_restarted"
)

// subscriberBuffer is how many events a slow subscriber may fall behind
// before further events for it are dropped.
const subscriberBuffer = 16

// GameChannel returns the Pub/Sub channel carrying events for one game.
func GameChannel(gameID string) string {
	return fmt.Sprintf("channel:game:%s", gameID)
}

// Event represents a message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GameStatePayload is the payload for the "game_updated" and
// "game_restarted" events.
type GameStatePayload struct {
	GameID string     `json:"game_id"`
	Game   *game.Game `json:"game"`
}

// NewEvent marshals payload into an Event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// NewGameStateEvent builds a game state event for g.
func NewGameStateEvent(eventType, gameID string, g *game.Game) (Event, error) {
	return NewEvent(eventType, GameStatePayload{GameID: gameID, Game: g})
}

// DecodeGameState extracts the game state carried by e.
func (e Event) DecodeGameState() (*GameStatePayload, error) {
	var payload GameStatePayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return &payload, nil
}

// Publisher sends events to everyone watching a game.
type Publisher interface {
	Publish(ctx context.Context, gameID string, event Event) error
}

// Subscriber delivers the events of one game until ctx is done or the
// returned cancel func is called. The channel is closed afterwards.
type Subscriber interface {
	Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error)
}

// Broker is both ends of the event stream.
type Broker interface {
	Publisher
	Subscriber
}
