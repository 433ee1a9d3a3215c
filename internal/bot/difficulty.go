package bot

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty selects how a move is chosen.
type Difficulty string

const (
	// Easy picks uniformly among legal moves.
	Easy Difficulty = "easy"
	// Medium consults memory with probability AdaptivityLevel, else random.
	Medium Difficulty = "medium"
	// Hard consults memory and falls back to exact search.
	Hard Difficulty = "hard"
)

var ErrInvalidDifficulty = errors.New("invalid difficulty")

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q (use easy, medium or hard)", ErrInvalidDifficulty, s)
}
