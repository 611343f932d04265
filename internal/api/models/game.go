package models

import "ctchen222/tic-tac-toe-minimax/pkg/proto"

// MoveRequest is the body of POST /api/games/:id/moves.
type MoveRequest struct {
	Cell *int `json:"cell" binding:"required,min=0,max=8"`
}

// CreateGameResponse is returned when a new game is created. Token grants
// access to that game only.
type CreateGameResponse struct {
	GameID string           `json:"game_id"`
	Token  string           `json:"token"`
	State  *proto.GameState `json:"state"`
}
