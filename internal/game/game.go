package game

import "fmt"

// Phase is the position of a game in its turn cycle.
type Phase string

const (
	AwaitingHuman    Phase = "awaiting_human"
	AwaitingComputer Phase = "awaiting_computer"
	Finished         Phase = "finished"
)

// Game is one human-versus-computer game. The human always moves first;
// the caller is expected to ask the bot for a move whenever Phase is
// AwaitingComputer.
type Game struct {
	Board    Board      `json:"board"`
	Human    PlayerMark `json:"human"`
	Computer PlayerMark `json:"computer"`
	Phase    Phase      `json:"phase"`
	Outcome  Outcome    `json:"outcome"`
	Moves    int        `json:"moves"`
	LastMove *int       `json:"last_move,omitempty"`
}

// NewGame creates an empty game in which the human plays the given mark and
// the computer plays the other one.
func NewGame(human PlayerMark) (*Game, error) {
	if !human.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMark, human)
	}
	return &Game{
		Human:    human,
		Computer: human.Opponent(),
		Phase:    AwaitingHuman,
		Outcome:  Outcome{Result: InProgress},
	}, nil
}

// PlayHuman applies the human's move.
func (g *Game) PlayHuman(cell int) error {
	if err := g.checkTurn(AwaitingHuman); err != nil {
		return err
	}
	if err := g.place(g.Human, cell); err != nil {
		return err
	}
	g.advance(AwaitingComputer)
	return nil
}

// PlayComputer applies the computer's move and records it as LastMove.
func (g *Game) PlayComputer(cell int) error {
	if err := g.checkTurn(AwaitingComputer); err != nil {
		return err
	}
	if err := g.place(g.Computer, cell); err != nil {
		return err
	}
	g.LastMove = &cell
	g.advance(AwaitingHuman)
	return nil
}

// Restart clears the board and returns to the initial phase, whatever the
// current phase is. Marks are kept.
func (g *Game) Restart() {
	g.Board = Board{}
	g.Phase = AwaitingHuman
	g.Outcome = Outcome{Result: InProgress}
	g.Moves = 0
	g.LastMove = nil
}

// Turn returns the mark expected to move next, or None once the game is over.
func (g *Game) Turn() PlayerMark {
	switch g.Phase {
	case AwaitingHuman:
		return g.Human
	case AwaitingComputer:
		return g.Computer
	default:
		return None
	}
}

func (g *Game) checkTurn(want Phase) error {
	if g.Phase == Finished {
		return ErrGameFinished
	}
	if g.Phase != want {
		return ErrNotYourTurn
	}
	return nil
}

func (g *Game) place(mark PlayerMark, cell int) error {
	if err := ValidateCell(cell); err != nil {
		return err
	}
	if g.Board[cell] != None {
		return fmt.Errorf("%w: %d", ErrCellOccupied, cell)
	}
	g.Board[cell] = mark
	g.Moves++
	return nil
}

// advance re-evaluates the board after a move and moves to next unless the
// game has ended.
func (g *Game) advance(next Phase) {
	g.Outcome = Evaluate(g.Board)
	if g.Outcome.IsTerminal() {
		g.Phase = Finished
		return
	}
	g.Phase = next
}
