package game

import (
	"fmt"
	"strings"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// BoardSize is the number of cells on the 3x3 board.
	BoardSize = 9

	// Cell boundaries
	CellMin = 0
	CellMax = BoardSize - 1
)

// Board holds the 9 cells of the grid in row-major order: cell 3*row + col.
type Board [BoardSize]PlayerMark

// Lines are the 8 winning triples, in the order they are checked:
// the three rows, the three columns, then the main and anti diagonals.
var Lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Valid reports whether m is one of the two player marks.
func (m PlayerMark) Valid() bool {
	return m == PlayerX || m == PlayerO
}

// Opponent returns the other player's mark. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// ParseMark converts "X" or "O" (any case) to a PlayerMark.
func ParseMark(s string) (PlayerMark, error) {
	m := PlayerMark(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return None, fmt.Errorf("%w: %q", ErrInvalidMark, s)
	}
	return m, nil
}

// ValidateCell checks that cell is on the board.
func ValidateCell(cell int) error {
	if cell < CellMin || cell > CellMax {
		return fmt.Errorf("%w: %d", ErrInvalidCell, cell)
	}
	return nil
}

// EmptyCells returns the indices of the empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range b {
		if cell == None {
			cells = append(cells, i)
		}
	}
	return cells
}

// IsFull reports whether every cell holds a mark.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// Rows converts the board to a slice of 3 rows, the layout clients render.
func (b Board) Rows() [][]PlayerMark {
	rows := make([][]PlayerMark, 3)
	for r := range rows {
		rows[r] = make([]PlayerMark, 3)
		copy(rows[r], b[r*3:r*3+3])
	}
	return rows
}

func (b Board) String() string {
	var sb strings.Builder
	for r := range 3 {
		if r > 0 {
			sb.WriteString("\n-+-+-\n")
		}
		for c := range 3 {
			if c > 0 {
				sb.WriteByte('|')
			}
			cell := b[r*3+c]
			if cell == None {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(string(cell))
			}
		}
	}
	return sb.String()
}
