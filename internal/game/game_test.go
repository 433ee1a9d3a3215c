package game

import (
	"errors"
	"testing"
)

const (
	X = PlayerX
	O = PlayerO
	E = None
)

func TestWinner(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		mark  PlayerMark
		want  bool
	}{
		{
			name:  "No winner - empty board",
			board: Board{},
			mark:  X,
			want:  false,
		},
		{
			name:  "No winner - partial board",
			board: Board{X, E, E, E, O, E, E, E, E},
			mark:  X,
			want:  false,
		},
		{
			name:  "X wins - first row",
			board: Board{X, X, X, E, O, E, E, E, O},
			mark:  X,
			want:  true,
		},
		{
			name:  "O wins - second column",
			board: Board{X, O, E, X, O, E, E, O, E},
			mark:  O,
			want:  true,
		},
		{
			name:  "X wins - main diagonal",
			board: Board{X, E, E, E, X, E, E, E, X},
			mark:  X,
			want:  true,
		},
		{
			name:  "O wins - anti-diagonal",
			board: Board{E, E, O, E, O, E, O, E, E},
			mark:  O,
			want:  true,
		},
		{
			name:  "X line does not count for O",
			board: Board{X, X, X, E, O, E, E, E, O},
			mark:  O,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.board.Winner(tt.mark); got != tt.want {
				t.Errorf("Winner(%s) got = %v, want %v", tt.mark, got, tt.want)
			}
		})
	}
}

func TestIsFull(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		want  bool
	}{
		{name: "Empty board is not full", board: Board{}, want: false},
		{name: "Partial board is not full", board: Board{X, E, E, E, O, E, E, E, E}, want: false},
		{name: "Full board is full", board: Board{X, O, X, X, O, O, O, X, X}, want: true},
		{name: "Full board with winner is full", board: Board{X, X, X, O, O, X, O, X, O}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.board.IsFull(); got != tt.want {
				t.Errorf("IsFull() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLegalMovesAscending(t *testing.T) {
	b := Board{X, E, E, O, E, X, E, E, O}
	want := []int{1, 2, 4, 6, 7}

	for run := 0; run < 3; run++ {
		got := b.LegalMoves()
		if len(got) != len(want) {
			t.Fatalf("LegalMoves() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("LegalMoves() = %v, want %v", got, want)
			}
		}
	}

	full := Board{X, O, X, X, O, O, O, X, X}
	if moves := full.LegalMoves(); len(moves) != 0 {
		t.Errorf("LegalMoves() on full board = %v, want none", moves)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		board        Board
		wantScore    int
		wantTerminal bool
	}{
		{name: "O wins scores +1", board: Board{O, O, O, X, X, E, X, E, E}, wantScore: 1, wantTerminal: true},
		{name: "X wins scores -1", board: Board{X, O, O, X, O, E, X, E, E}, wantScore: -1, wantTerminal: true},
		{name: "Full draw scores 0", board: Board{X, O, X, X, O, O, O, X, X}, wantScore: 0, wantTerminal: true},
		{name: "Open board is not terminal", board: Board{X, E, E, E, O, E, E, E, E}, wantTerminal: false},
		{name: "Empty board is not terminal", board: Board{}, wantTerminal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, terminal := Evaluate(&tt.board)
			if terminal != tt.wantTerminal {
				t.Fatalf("Evaluate() terminal = %v, want %v", terminal, tt.wantTerminal)
			}
			if terminal && score != tt.wantScore {
				t.Errorf("Evaluate() score = %d, want %d", score, tt.wantScore)
			}
			again, terminalAgain := Evaluate(&tt.board)
			if again != score || terminalAgain != terminal {
				t.Errorf("Evaluate() not stable: (%d,%v) then (%d,%v)", score, terminal, again, terminalAgain)
			}
		})
	}
}

func TestPlaceClearRoundTrip(t *testing.T) {
	b := Board{X, E, E, E, O, E, E, E, E}
	before := b
	for _, m := range b.LegalMoves() {
		b.Place(m, X)
		b.Clear(m)
		if b != before {
			t.Fatalf("board changed after place/clear on %d: %v", m, b)
		}
	}
}

func TestParseBoard(t *testing.T) {
	b, err := ParseBoard([]string{"X", " ", " ", "O", " ", " ", " ", " ", ""})
	if err != nil {
		t.Fatalf("ParseBoard() error = %v", err)
	}
	if b[0] != X || b[3] != O || b[8] != E {
		t.Errorf("ParseBoard() = %v", b)
	}

	if _, err := ParseBoard([]string{"X", "O"}); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("short board: got %v, want ErrInvalidBoard", err)
	}
	if _, err := ParseBoard([]string{"X", "Z", "", "", "", "", "", "", ""}); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("bad symbol: got %v, want ErrInvalidBoard", err)
	}
}

func TestValidate(t *testing.T) {
	bad := Board{X, "Q", E, E, E, E, E, E, E}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("Validate() = %v, want ErrInvalidBoard", err)
	}
	both := Board{X, X, X, O, O, O, E, E, E}
	if err := both.Validate(); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("Validate() with two winners = %v, want ErrInvalidBoard", err)
	}
	ok := Board{X, E, E, O, E, E, E, E, E}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	seen := make(map[Key]Board)
	boards := []Board{
		{},
		{X, E, E, E, E, E, E, E, E},
		{E, X, E, E, E, E, E, E, E},
		{O, E, E, E, E, E, E, E, E},
		{X, O, X, X, O, O, O, X, X},
		{O, O, O, O, O, O, O, O, O},
	}
	for _, b := range boards {
		k := b.Key()
		if k >= MaxKey {
			t.Fatalf("Key() = %d out of range", k)
		}
		if other, dup := seen[k]; dup {
			t.Fatalf("Key collision between %v and %v", other, b)
		}
		seen[k] = b

		decoded, err := k.Board()
		if err != nil {
			t.Fatalf("Board() error = %v", err)
		}
		if decoded != b {
			t.Errorf("Board() = %v, want %v", decoded, b)
		}

		parsed, err := ParseKey(k.String())
		if err != nil || parsed != k {
			t.Errorf("ParseKey(%q) = %d, %v", k.String(), parsed, err)
		}
	}
	if _, err := ParseKey("19683"); err == nil {
		t.Error("ParseKey accepted an out of range key")
	}
}

func TestGameMove(t *testing.T) {
	g := NewGame()
	if g.CurrentTurn != X {
		t.Fatalf("first turn = %s, want X", g.CurrentTurn)
	}

	for _, idx := range []int{0, 3, 1, 4} {
		if err := g.Move(idx); err != nil {
			t.Fatalf("Move(%d) error = %v", idx, err)
		}
	}
	if err := g.Move(4); !errors.Is(err, ErrCellOccupied) {
		t.Errorf("Move on occupied cell = %v, want ErrCellOccupied", err)
	}
	if err := g.Move(9); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Move(9) = %v, want ErrOutOfRange", err)
	}
	if err := g.Move(2); err != nil {
		t.Fatalf("winning Move(2) error = %v", err)
	}
	if g.Winner != X {
		t.Errorf("Winner = %s, want X", g.Winner)
	}
	if !g.IsOver() || g.IsDraw() {
		t.Errorf("IsOver() = %v, IsDraw() = %v", g.IsOver(), g.IsDraw())
	}
	if err := g.Move(5); !errors.Is(err, ErrGameFinished) {
		t.Errorf("Move after win = %v, want ErrGameFinished", err)
	}
}

func TestGameDraw(t *testing.T) {
	g := NewGame()
	// X O X / X O O / O X X
	for _, idx := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
		if err := g.Move(idx); err != nil {
			t.Fatalf("Move(%d) error = %v", idx, err)
		}
	}
	if !g.IsDraw() {
		t.Errorf("IsDraw() = false on %v", g.Board)
	}
}

func TestRandomMark(t *testing.T) {
	seenX, seenO := false, false
	for i := 0; i < 100; i++ {
		switch RandomMark() {
		case X:
			seenX = true
		case O:
			seenO = true
		default:
			t.Fatal("RandomMark() returned a non-player mark")
		}
	}
	if !seenX || !seenO {
		t.Errorf("RandomMark() did not return both marks over 100 runs. Seen X: %v, Seen O: %v", seenX, seenO)
	}
}
