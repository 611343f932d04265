package bot

import (
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"math"
)

// Scores of terminal boards. X is always the maximizing side; the depth of a
// win does not change its score.
const (
	WinScore  = 10
	LossScore = -10
	DrawScore = 0
)

// Score maps a terminal outcome to the search payoff. Non-terminal outcomes
// score as a draw.
func Score(o game.Outcome) int {
	if o.Result != game.Win {
		return DrawScore
	}
	if o.Winner == game.PlayerX {
		return WinScore
	}
	return LossScore
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithPruning enables alpha-beta pruning. Results are identical to the plain
// search; only the number of visited positions changes.
func WithPruning() Option {
	return func(s *Searcher) {
		s.pruning = true
	}
}

// Searcher runs exhaustive minimax over the game tree. A Searcher is not safe
// for concurrent use; create one per search.
type Searcher struct {
	pruning  bool
	nodes    int
	maxDepth int
}

// NewSearcher creates a Searcher.
func NewSearcher(opts ...Option) *Searcher {
	s := &Searcher{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Nodes returns the number of positions visited by the last BestMove call.
func (s *Searcher) Nodes() int {
	return s.nodes
}

// Depth returns the deepest ply reached by the last BestMove call.
func (s *Searcher) Depth() int {
	return s.maxDepth
}

// BestMove returns the empty cell that gives mark the best minimax score.
// Equal scores resolve to the lowest index. ok is false when the board has no
// empty cell or mark is not a player mark.
//
// The search keeps the fixed convention that X maximizes and O minimizes; only
// the root depends on mark, which makes the result correct for either side.
// The board is taken by value, so the caller's board is never modified.
func (s *Searcher) BestMove(board game.Board, mark game.PlayerMark) (cell int, ok bool) {
	s.nodes, s.maxDepth = 0, 0
	if !mark.Valid() {
		return -1, false
	}
	maximizing := mark == game.PlayerX

	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}
	cell = -1
	for _, c := range board.EmptyCells() {
		board[c] = mark
		var score int
		if maximizing {
			score = s.search(&board, 1, false, best, math.MaxInt)
		} else {
			score = s.search(&board, 1, true, math.MinInt, best)
		}
		board[c] = game.None

		if (maximizing && score > best) || (!maximizing && score < best) || cell == -1 {
			best = score
			cell = c
		}
	}

	return cell, cell != -1
}

// Minimax scores board with the maximizer (X) or the minimizer (O) to move.
// board is restored before Minimax returns.
func (s *Searcher) Minimax(board *game.Board, depth int, maximizing bool) int {
	return s.search(board, depth, maximizing, math.MinInt, math.MaxInt)
}

// search is minimax with optional fail-soft alpha-beta. Without pruning alpha
// and beta are ignored and every child is visited.
func (s *Searcher) search(board *game.Board, depth int, maximizing bool, alpha, beta int) int {
	s.nodes++
	s.maxDepth = max(s.maxDepth, depth)

	if outcome := game.Evaluate(*board); outcome.IsTerminal() {
		return Score(outcome)
	}

	if maximizing {
		best := math.MinInt
		for _, c := range board.EmptyCells() {
			board[c] = game.PlayerX
			score := s.search(board, depth+1, false, alpha, beta)
			board[c] = game.None

			best = max(best, score)
			if s.pruning {
				alpha = max(alpha, best)
				if alpha >= beta {
					break
				}
			}
		}
		return best
	}

	best := math.MaxInt
	for _, c := range board.EmptyCells() {
		board[c] = game.PlayerO
		score := s.search(board, depth+1, true, alpha, beta)
		board[c] = game.None

		best = min(best, score)
		if s.pruning {
			beta = min(beta, best)
			if alpha >= beta {
				break
			}
		}
	}
	return best
}

// BestMove runs a plain minimax search for mark on board.
func BestMove(board game.Board, mark game.PlayerMark) (cell int, ok bool) {
	return NewSearcher().BestMove(board, mark)
}
