package bot

import (
	"math/rand/v2"
	"testing"

	"ctchen222/adaptive-tictactoe/internal/game"
)

const (
	X = game.PlayerX
	O = game.PlayerO
	E = game.None
)

// exhaustive is plain minimax without pruning, used as a reference.
func exhaustive(b *game.Board, oToMove bool) int {
	if score, terminal := game.Evaluate(b); terminal {
		return score
	}
	mark, best := X, MaxScore
	if oToMove {
		mark, best = O, MinScore
	}
	for _, m := range b.LegalMoves() {
		b.Place(m, mark)
		score := exhaustive(b, !oToMove)
		b.Clear(m)
		if oToMove {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}

func TestMinimaxEmptyBoardIsDraw(t *testing.T) {
	var b game.Board
	if got := Minimax(&b, false, O, X, MinScore, MaxScore); got != 0 {
		t.Errorf("Minimax(empty, X to move) = %d, want 0", got)
	}
	if got := Minimax(&b, true, O, X, MinScore, MaxScore); got != 0 {
		t.Errorf("Minimax(empty, O to move) = %d, want 0", got)
	}
}

func TestMinimaxTerminal(t *testing.T) {
	won := game.Board{O, O, O, X, X, E, X, E, E}
	if got := Minimax(&won, false, O, X, MinScore, MaxScore); got != 1 {
		t.Errorf("Minimax(O won) = %d, want 1", got)
	}
	lost := game.Board{X, X, X, O, O, E, E, E, E}
	if got := Minimax(&lost, true, O, X, MinScore, MaxScore); got != -1 {
		t.Errorf("Minimax(X won) = %d, want -1", got)
	}
}

func TestMinimaxRestoresBoard(t *testing.T) {
	b := game.Board{X, E, E, E, O, E, E, E, E}
	before := b
	Minimax(&b, false, O, X, MinScore, MaxScore)
	if b != before {
		t.Errorf("Minimax mutated the board: got %v, want %v", b, before)
	}
}

func TestMinimaxMatchesExhaustiveSearch(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		// Random legal position reached by alternating play from X.
		var b game.Board
		mark := X
		plies := r.IntN(7)
		for p := 0; p < plies; p++ {
			if _, terminal := game.Evaluate(&b); terminal {
				break
			}
			legal := b.LegalMoves()
			b.Place(legal[r.IntN(len(legal))], mark)
			mark = mark.Opponent()
		}

		oToMove := mark == O
		want := exhaustive(&b, oToMove)
		got := Minimax(&b, oToMove, O, X, MinScore, MaxScore)
		if got != want {
			t.Fatalf("Minimax(%v, oToMove=%v) = %d, exhaustive = %d", b, oToMove, got, want)
		}
	}
}

func TestBestMoves(t *testing.T) {
	tests := []struct {
		name  string
		board game.Board
		mark  game.PlayerMark
		want  []int
	}{
		{
			name:  "O takes the win",
			board: game.Board{O, O, E, X, X, E, X, E, E},
			mark:  O,
			want:  []int{2},
		},
		{
			name:  "X takes the win",
			board: game.Board{X, X, E, O, O, E, E, E, E},
			mark:  X,
			want:  []int{2},
		},
		{
			name:  "X blocks into a fork",
			board: game.Board{O, O, E, E, X, E, E, E, X},
			mark:  X,
			want:  []int{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bestMoves(tt.board, tt.mark)
			if len(got) != len(tt.want) {
				t.Fatalf("bestMoves() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("bestMoves() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
