package game

import (
	"fmt"
	"strconv"
)

// Key is a base-3 packing of the nine cells (None=0, X=1, O=2), cell 0 in
// the least significant trit. 3^9 fits in 16 bits.
type Key uint16

// MaxKey is one past the largest valid key.
const MaxKey Key = 19683

// Key returns the canonical key of the board.
func (b *Board) Key() Key {
	var k Key
	for i := BoardSize - 1; i >= 0; i-- {
		k *= 3
		switch b[i] {
		case PlayerX:
			k += 1
		case PlayerO:
			k += 2
		}
	}
	return k
}

// Board decodes the key back into a board.
func (k Key) Board() (Board, error) {
	var b Board
	if k >= MaxKey {
		return b, fmt.Errorf("%w: key %d out of range", ErrInvalidBoard, k)
	}
	for i := 0; i < BoardSize; i++ {
		switch k % 3 {
		case 1:
			b[i] = PlayerX
		case 2:
			b[i] = PlayerO
		}
		k /= 3
	}
	return b, nil
}

func (k Key) String() string {
	return strconv.FormatUint(uint64(k), 10)
}

// ParseKey reads a key written by Key.String.
func ParseKey(s string) (Key, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse board key %q: %w", s, err)
	}
	if Key(v) >= MaxKey {
		return 0, fmt.Errorf("%w: key %d out of range", ErrInvalidBoard, v)
	}
	return Key(v), nil
}
