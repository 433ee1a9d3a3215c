package bot

import "ctchen222/adaptive-tictactoe/internal/game"

// Score bounds used as the initial alpha-beta window.
const (
	MinScore = -2
	MaxScore = 2
)

// Minimax returns the exact game value of b under game.Evaluate, searching
// with alpha-beta pruning. maxMark is placed on maximizing plies and minMark
// on minimizing plies; since Evaluate scores O wins as +1, callers pass
// maxMark=O and minMark=X. Moves are tried in ascending index order and every
// placement is undone, so b is unchanged when Minimax returns.
func Minimax(b *game.Board, maximizing bool, maxMark, minMark game.PlayerMark, alpha, beta int) int {
	if score, terminal := game.Evaluate(b); terminal {
		return score
	}

	if maximizing {
		best := MinScore
		for _, m := range b.LegalMoves() {
			b.Place(m, maxMark)
			score := Minimax(b, false, maxMark, minMark, alpha, beta)
			b.Clear(m)
			best = max(best, score)
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := MaxScore
	for _, m := range b.LegalMoves() {
		b.Place(m, minMark)
		score := Minimax(b, true, maxMark, minMark, alpha, beta)
		b.Clear(m)
		best = min(best, score)
		beta = min(beta, best)
		if beta <= alpha {
			break
		}
	}
	return best
}

// bestMoves scores every legal move for mark and returns the moves sharing
// the best score (highest for O, lowest for X) in ascending index order.
func bestMoves(b game.Board, mark game.PlayerMark) []int {
	var best []int
	bestScore := MaxScore
	if mark == game.PlayerO {
		bestScore = MinScore
	}

	for _, m := range b.LegalMoves() {
		b.Place(m, mark)
		// After mark moves it is the opponent's turn; O is the maximizer.
		score := Minimax(&b, mark == game.PlayerX, game.PlayerO, game.PlayerX, MinScore, MaxScore)
		b.Clear(m)

		better := score < bestScore
		if mark == game.PlayerO {
			better = score > bestScore
		}
		switch {
		case better:
			bestScore = score
			best = []int{m}
		case score == bestScore:
			best = append(best, m)
		}
	}
	return best
}
