package bot

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"testing"
)

func TestNewBotMoveCalculator(t *testing.T) {
	calc, err := NewBotMoveCalculator(WithPruning())
	if err != nil {
		t.Fatalf("NewBotMoveCalculator() error = %v", err)
	}
	if len(calc.opts) != 1 {
		t.Errorf("Expected 1 search option, got %d", len(calc.opts))
	}
	if calc.nodes == nil || calc.duration == nil {
		t.Error("Expected metric instruments to be created")
	}
}

func TestBotMoveCalculator_CalculateNextMove(t *testing.T) {
	calc, err := NewBotMoveCalculator()
	if err != nil {
		t.Fatalf("NewBotMoveCalculator() error = %v", err)
	}

	tests := []struct {
		name     string
		board    game.Board
		mark     game.PlayerMark
		wantCell int
		wantOK   bool
	}{
		{
			name:     "Takes the win",
			board:    game.Board{E, E, E, X, X, E, O, O, E},
			mark:     X,
			wantCell: 5,
			wantOK:   true,
		},
		{
			name:     "Blocks the diagonal as O",
			board:    game.Board{E, E, E, E, X, E, O, E, X},
			mark:     O,
			wantCell: 0,
			wantOK:   true,
		},
		{
			name:     "Full board",
			board:    game.Board{X, O, X, O, X, O, O, X, O},
			mark:     X,
			wantCell: -1,
			wantOK:   false,
		},
	}

	reachable := reachableSet()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reachable[position{board: tt.board, toMove: tt.mark}] {
				t.Fatalf("fixture is not reachable by alternating play with %s to move:\n%s", tt.mark, tt.board)
			}
			cell, ok := calc.CalculateNextMove(context.Background(), tt.board, tt.mark)
			if cell != tt.wantCell || ok != tt.wantOK {
				t.Errorf("CalculateNextMove() got (%d, %v), want (%d, %v)", cell, ok, tt.wantCell, tt.wantOK)
			}
		})
	}
}

func TestBotMoveCalculator_MatchesBestMove(t *testing.T) {
	calc, err := NewBotMoveCalculator(WithPruning())
	if err != nil {
		t.Fatalf("NewBotMoveCalculator() error = %v", err)
	}

	board := game.Board{X, E, E, E, O, E, E, E, E}
	want, _ := BestMove(board, X)
	got, ok := calc.CalculateNextMove(context.Background(), board, X)
	if !ok || got != want {
		t.Errorf("CalculateNextMove() = %d, %v, want %d", got, ok, want)
	}
}
