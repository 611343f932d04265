package proto

import (
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"ctchen222/tic-tac-toe-minimax/internal/validator"

	playground "github.com/go-playground/validator/v10"
)

func init() {
	validator.GetValidator().RegisterStructValidation(validateClientMessage, ClientToServerMessage{})
}

// Client message types
const (
	TypeMove    = "move"
	TypeRestart = "restart"
)

// Server message types
const (
	TypeUpdate = "update"
	TypeError  = "error"
)

// ClientToServerMessage represents a message from the client to the server.
// Cell is only read for moves.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required,oneof=move restart"`
	Cell *int   `json:"cell,omitempty" validate:"required_if=Type move"`
}

// validateClientMessage range-checks the cell of a move. Other message types
// ignore the cell, so it is not checked for them.
func validateClientMessage(sl playground.StructLevel) {
	msg := sl.Current().Interface().(ClientToServerMessage)
	if msg.Type != TypeMove || msg.Cell == nil {
		return
	}
	if *msg.Cell < game.CellMin || *msg.Cell > game.CellMax {
		sl.ReportError(msg.Cell, "Cell", "Cell", "cell", "")
	}
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type   string     `json:"type" validate:"required"`
	Reason string     `json:"reason,omitempty"`
	State  *GameState `json:"state,omitempty"`
}

// GameState is the client-facing view of a game.
type GameState struct {
	ID       string              `json:"id"`
	Board    [][]game.PlayerMark `json:"board"`
	Human    game.PlayerMark     `json:"human"`
	Computer game.PlayerMark     `json:"computer"`
	Next     game.PlayerMark     `json:"next,omitempty"`
	Phase    game.Phase          `json:"phase"`
	Result   game.GameResult     `json:"result"`
	Winner   game.PlayerMark     `json:"winner,omitempty"`
	LastMove *int                `json:"last_move,omitempty"`
	Moves    int                 `json:"moves"`
}

// NewGameState converts a game to its client view.
func NewGameState(id string, g *game.Game) *GameState {
	return &GameState{
		ID:       id,
		Board:    g.Board.Rows(),
		Human:    g.Human,
		Computer: g.Computer,
		Next:     g.Turn(),
		Phase:    g.Phase,
		Result:   g.Outcome.Result,
		Winner:   g.Outcome.Winner,
		LastMove: g.LastMove,
		Moves:    g.Moves,
	}
}

func NewUpdateMessage(state *GameState) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeUpdate, State: state}
}

func NewErrorMessage(reason string) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeError, Reason: reason}
}
