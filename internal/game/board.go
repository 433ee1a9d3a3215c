package game

import (
	"errors"
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
)

const (
	// BoardSize is the number of cells on the board, indexed row-major.
	BoardSize = 9

	// NoMove is returned when no legal move exists.
	NoMove = -1
)

var (
	ErrInvalidBoard = errors.New("invalid board")
	ErrInvalidMark  = errors.New("invalid player mark")
)

// winLines are the 8 canonical lines: rows, columns, diagonals.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Opponent returns the other player's mark, or None for a non-player mark.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	}
	return None
}

// IsPlayer reports whether m is X or O.
func (m PlayerMark) IsPlayer() bool {
	return m == PlayerX || m == PlayerO
}

// ParseMark accepts "X"/"O" in either case.
func ParseMark(s string) (PlayerMark, error) {
	m := PlayerMark(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsPlayer() {
		return None, fmt.Errorf("%w: %q", ErrInvalidMark, s)
	}
	return m, nil
}

// Board is a 3x3 grid stored row-major: index = row*3 + col.
type Board [BoardSize]PlayerMark

// ParseBoard builds a Board from exactly nine cells. "" and " " are empty.
func ParseBoard(cells []string) (Board, error) {
	var b Board
	if len(cells) != BoardSize {
		return b, fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidBoard, BoardSize, len(cells))
	}
	for i, c := range cells {
		switch c {
		case "", " ":
			b[i] = None
		case string(PlayerX), string(PlayerO):
			b[i] = PlayerMark(c)
		default:
			return Board{}, fmt.Errorf("%w: cell %d holds %q", ErrInvalidBoard, i, c)
		}
	}
	return b, nil
}

// Validate rejects cells outside {None, X, O} and boards where both sides
// hold a winning line.
func (b *Board) Validate() error {
	for i, c := range b {
		if c != None && !c.IsPlayer() {
			return fmt.Errorf("%w: cell %d holds %q", ErrInvalidBoard, i, c)
		}
	}
	if b.Winner(PlayerX) && b.Winner(PlayerO) {
		return fmt.Errorf("%w: both players have a winning line", ErrInvalidBoard)
	}
	return nil
}

// Winner reports whether mark occupies any full line.
func (b *Board) Winner(mark PlayerMark) bool {
	for _, line := range winLines {
		if b[line[0]] == mark && b[line[1]] == mark && b[line[2]] == mark {
			return true
		}
	}
	return false
}

// IsFull reports whether no empty cell remains.
func (b *Board) IsFull() bool {
	for _, c := range b {
		if c == None {
			return false
		}
	}
	return true
}

// LegalMoves returns the indices of empty cells in ascending order.
func (b *Board) LegalMoves() []int {
	moves := make([]int, 0, BoardSize)
	for i, c := range b {
		if c == None {
			moves = append(moves, i)
		}
	}
	return moves
}

// IsLegal reports whether index is on the board and empty.
func (b *Board) IsLegal(index int) bool {
	return index >= 0 && index < BoardSize && b[index] == None
}

// Place puts mark on index without any checks; pair with Clear to undo.
func (b *Board) Place(index int, mark PlayerMark) {
	b[index] = mark
}

// Clear empties index.
func (b *Board) Clear(index int) {
	b[index] = None
}

// Evaluate scores a terminal board: +1 if O has won, -1 if X has won and 0
// for a full board without a winner. terminal is false while play goes on.
// O is the maximizing side.
func Evaluate(b *Board) (score int, terminal bool) {
	switch {
	case b.Winner(PlayerO):
		return 1, true
	case b.Winner(PlayerX):
		return -1, true
	case b.IsFull():
		return 0, true
	}
	return 0, false
}

// Rows converts the board to a slice of rows for JSON payloads.
func (b *Board) Rows() [][]PlayerMark {
	rows := make([][]PlayerMark, 3)
	for r := range rows {
		rows[r] = make([]PlayerMark, 3)
		copy(rows[r], b[r*3:r*3+3])
	}
	return rows
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			sb.WriteString("\n---------\n")
		}
		for c := 0; c < 3; c++ {
			if c > 0 {
				sb.WriteString(" | ")
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
