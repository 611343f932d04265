package game

// GameResult classifies a board: still being played, won, or drawn.
type GameResult string

const (
	InProgress GameResult = "in_progress"
	Win        GameResult = "win"
	Draw       GameResult = "draw"
)

// Outcome is the derived result of a board. Winner is set only when Result is Win.
type Outcome struct {
	Result GameResult `json:"result"`
	Winner PlayerMark `json:"winner,omitempty"`
}

// IsTerminal reports whether no further moves can be made.
func (o Outcome) IsTerminal() bool {
	return o.Result == Win || o.Result == Draw
}

// Evaluate determines whether a player has won the board, whether it is drawn,
// or whether the game continues.
//
// Lines are scanned in the order of Lines and the first complete one wins, so
// a board with two complete lines (impossible in alternating play) reports the
// earlier line's mark.
func Evaluate(b Board) Outcome {
	for _, line := range Lines {
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			return Outcome{Result: Win, Winner: a}
		}
	}

	if b.IsFull() {
		return Outcome{Result: Draw}
	}

	return Outcome{Result: InProgress}
}
