package bot

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"ctchen222/adaptive-tictactoe/internal/game"
	"ctchen222/adaptive-tictactoe/internal/memory"
)

func newTestEngine(t *testing.T, cfg Config, seed uint64) *Engine {
	t.Helper()
	e, err := New(memory.NewLocalTables(memory.DefaultCapacity), cfg, WithSeed(seed))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

// failingStore returns an error from every call.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Get(context.Context, game.Key) (memory.Entry, bool, error) {
	return memory.Entry{}, false, errStoreDown
}
func (failingStore) Update(context.Context, game.Key, func(*memory.Entry)) error { return errStoreDown }
func (failingStore) Evict(context.Context) (game.Key, bool, error)               { return 0, false, errStoreDown }
func (failingStore) Len(context.Context) (int, error)                            { return 0, errStoreDown }
func (failingStore) Clear(context.Context) error                                 { return errStoreDown }

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdaptivityLevel = 1.5
	if _, err := New(memory.NewLocalTables(10), cfg); err == nil {
		t.Error("New() accepted adaptivity level 1.5")
	}
	if _, err := New(memory.Tables{}, DefaultConfig()); err == nil {
		t.Error("New() accepted missing tables")
	}
}

func TestAiMoveInputValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, DefaultConfig(), 1)

	bad := game.Board{X, "Z", E, E, E, E, E, E, E}
	if _, err := e.AiMove(ctx, bad, O, Hard); !errors.Is(err, game.ErrInvalidBoard) {
		t.Errorf("AiMove(bad board) error = %v, want ErrInvalidBoard", err)
	}
	if _, err := e.AiMove(ctx, game.Board{}, E, Hard); !errors.Is(err, game.ErrInvalidMark) {
		t.Errorf("AiMove(no mark) error = %v, want ErrInvalidMark", err)
	}
}

func TestAiMoveFullBoard(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, DefaultConfig(), 1)
	full := game.Board{X, O, X, X, O, O, O, X, X}

	for _, d := range []Difficulty{Easy, Medium, Hard} {
		move, err := e.AiMove(ctx, full, O, d)
		if err != nil {
			t.Fatalf("AiMove(%s) error = %v", d, err)
		}
		if move != game.NoMove {
			t.Errorf("AiMove(%s) on a full board = %d, want NoMove", d, move)
		}
	}
}

func TestAiMoveEasyIsLegalAndSpread(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, DefaultConfig(), 3)
	b := game.Board{X, E, E, E, O, E, E, E, X}

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		move, err := e.AiMove(ctx, b, O, Easy)
		if err != nil {
			t.Fatalf("AiMove() error = %v", err)
		}
		if !b.IsLegal(move) {
			t.Fatalf("AiMove() returned illegal move %d", move)
		}
		seen[move] = true
	}
	if len(seen) != len(b.LegalMoves()) {
		t.Errorf("easy moves covered %d of %d legal cells", len(seen), len(b.LegalMoves()))
	}
}

func TestAiMoveIsReproducibleWithSeed(t *testing.T) {
	ctx := context.Background()
	a := newTestEngine(t, DefaultConfig(), 42)
	b := newTestEngine(t, DefaultConfig(), 42)

	for i := 0; i < 20; i++ {
		ma, _ := a.AiMove(ctx, game.Board{}, X, Easy)
		mb, _ := b.AiMove(ctx, game.Board{}, X, Easy)
		if ma != mb {
			t.Fatalf("run %d: seeded engines diverged: %d vs %d", i, ma, mb)
		}
	}
}

func TestAiMoveMediumUsesMemory(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.AdaptivityLevel = 1
	e := newTestEngine(t, cfg, 5)
	b := game.Board{X, E, E, E, E, E, E, E, E}

	err := e.Memory().For(O).Update(ctx, b.Key(), func(en *memory.Entry) {
		en.Moves = []int{4}
		en.Weights = []float64{1}
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	for i := 0; i < 50; i++ {
		move, err := e.AiMove(ctx, b, O, Medium)
		if err != nil {
			t.Fatalf("AiMove() error = %v", err)
		}
		if move != 4 {
			t.Fatalf("AiMove() = %d, want remembered move 4", move)
		}
	}
}

func TestAiMoveMediumWithoutAdaptivityIgnoresMemory(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.AdaptivityLevel = 0
	e := newTestEngine(t, cfg, 5)
	b := game.Board{}

	_ = e.Memory().For(X).Update(ctx, b.Key(), func(en *memory.Entry) {
		en.Moves = []int{4}
		en.Weights = []float64{1}
	})

	seen := make(map[int]bool)
	for i := 0; i < 100; i++ {
		move, _ := e.AiMove(ctx, b, X, Medium)
		seen[move] = true
	}
	if len(seen) < 2 {
		t.Errorf("medium with adaptivity 0 kept playing %v", seen)
	}
}

func TestAiMoveStaleAndCorruptMemoryFallBack(t *testing.T) {
	ctx := context.Background()
	b := game.Board{X, O, E, E, E, E, E, E, E}

	entries := map[string]memory.Entry{
		"stale move":      {Moves: []int{0}, Weights: []float64{1}},
		"length mismatch": {Moves: []int{2, 3}, Weights: []float64{1}},
		"zero weights":    {Moves: []int{2}, Weights: []float64{0}},
	}
	for name, entry := range entries {
		t.Run(name, func(t *testing.T) {
			for _, d := range []Difficulty{Medium, Hard} {
				cfg := DefaultConfig()
				cfg.AdaptivityLevel = 1
				e := newTestEngine(t, cfg, 9)
				_ = e.Memory().For(X).Update(ctx, b.Key(), func(en *memory.Entry) { *en = entry })

				for i := 0; i < 20; i++ {
					move, err := e.AiMove(ctx, b, X, d)
					if err != nil {
						t.Fatalf("AiMove(%s) error = %v", d, err)
					}
					if !b.IsLegal(move) {
						t.Fatalf("AiMove(%s) = %d, not legal", d, move)
					}
				}
			}
		})
	}
}

func TestAiMoveHardUsesMemoryHit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, DefaultConfig(), 5)
	b := game.Board{}

	// A deliberately poor remembered move still wins over search on a hit.
	_ = e.Memory().For(X).Update(ctx, b.Key(), func(en *memory.Entry) {
		en.Moves = []int{1}
		en.Weights = []float64{1}
	})
	move, err := e.AiMove(ctx, b, X, Hard)
	if err != nil {
		t.Fatalf("AiMove() error = %v", err)
	}
	if move != 1 {
		t.Errorf("AiMove() = %d, want remembered move 1", move)
	}
}

func TestAiMoveHardRecordsSearchedMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, DefaultConfig(), 5)
	b := game.Board{O, O, E, X, X, E, X, E, E}

	move, err := e.AiMove(ctx, b, O, Hard)
	if err != nil {
		t.Fatalf("AiMove() error = %v", err)
	}
	if move != 2 {
		t.Fatalf("AiMove() = %d, want winning move 2", move)
	}

	entry, ok, err := e.Memory().For(O).Get(ctx, b.Key())
	if err != nil || !ok {
		t.Fatalf("searched move not recorded under the pre-move key: ok=%v err=%v", ok, err)
	}
	if len(entry.Moves) != 1 || entry.Moves[0] != 2 || entry.Weights[0] != 1.0 {
		t.Errorf("recorded entry = %+v, want move 2 with win weight 1.0", entry)
	}
	if _, ok, _ := e.Memory().For(X).Get(ctx, b.Key()); ok {
		t.Error("O's decision leaked into X's table")
	}
}

func TestAiMoveHardSurvivesStoreErrors(t *testing.T) {
	ctx := context.Background()
	e, err := New(memory.Tables{X: failingStore{}, O: failingStore{}}, DefaultConfig(), WithSeed(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b := game.Board{X, X, E, O, O, E, E, E, E}
	move, err := e.AiMove(ctx, b, O, Hard)
	if err != nil {
		t.Fatalf("AiMove() error = %v", err)
	}
	if move != 5 {
		t.Errorf("AiMove() = %d, want winning move 5", move)
	}
}

func TestAiMoveDoesNotMutateBoard(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, DefaultConfig(), 5)
	b := game.Board{X, E, E, E, O, E, E, E, E}
	before := b
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		_, _ = e.AiMove(ctx, b, X, d)
	}
	if b != before {
		t.Errorf("board changed: %v", b)
	}
}

// playSelf plays a full game with both sides on the given difficulty and
// returns the final board.
func playSelf(t *testing.T, e *Engine, d Difficulty) game.Board {
	t.Helper()
	ctx := context.Background()
	g := game.NewGame()
	for !g.IsOver() {
		move, err := e.AiMove(ctx, g.Board, g.CurrentTurn, d)
		if err != nil {
			t.Fatalf("AiMove() error = %v", err)
		}
		if err := g.Move(move); err != nil {
			t.Fatalf("Move(%d) error = %v on %v", move, err, g.Board)
		}
	}
	return g.Board
}

func TestHardSelfPlayAlwaysDraws(t *testing.T) {
	ctx := context.Background()
	for seed := uint64(0); seed < 25; seed++ {
		e := newTestEngine(t, DefaultConfig(), seed)
		if err := e.Memory().Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		final := playSelf(t, e, Hard)
		if score, _ := game.Evaluate(&final); score != 0 || final.Winner(X) || final.Winner(O) {
			t.Fatalf("seed %d: hard self-play did not draw:\n%v", seed, final)
		}
	}
}

func TestHardDoesNotLoseFromScenario(t *testing.T) {
	ctx := context.Background()
	cells := []string{"X", " ", " ", "O", " ", " ", " ", " ", " "}
	b, err := game.ParseBoard(cells)
	if err != nil {
		t.Fatalf("ParseBoard() error = %v", err)
	}

	// Best value O can secure by any move, with X replying next.
	bestValue := MinScore
	for _, m := range b.LegalMoves() {
		b.Place(m, O)
		bestValue = max(bestValue, exhaustive(&b, false))
		b.Clear(m)
	}

	for seed := uint64(0); seed < 10; seed++ {
		e := newTestEngine(t, DefaultConfig(), seed)
		move, err := e.AiMove(ctx, b, O, Hard)
		if err != nil {
			t.Fatalf("AiMove() error = %v", err)
		}
		after := b
		after.Place(move, O)
		value := exhaustive(&after, false)
		if value < 0 {
			t.Fatalf("seed %d: move %d lets X force a win", seed, move)
		}
		if value != bestValue {
			t.Errorf("seed %d: move %d has value %d, optimal is %d", seed, move, value, bestValue)
		}
	}
}

func TestRecordOutcome(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, DefaultConfig(), 1)
	b := game.Board{X, E, E, E, E, E, E, E, E}

	if err := e.RecordOutcome(ctx, b, 4, O, memory.Pending); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}
	if err := e.RecordOutcome(ctx, b, 4, O, memory.Win); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}
	entry, ok, _ := e.Memory().For(O).Get(ctx, b.Key())
	if !ok || len(entry.Moves) != 1 || entry.Weights[0] != 0.6 {
		t.Errorf("entry = %+v, want move 4 weighted 0.1+0.5", entry)
	}

	tests := []struct {
		name    string
		board   game.Board
		move    int
		mark    game.PlayerMark
		outcome memory.Outcome
		wantErr error
	}{
		{name: "occupied cell", board: b, move: 0, mark: O, outcome: memory.Win, wantErr: ErrInvalidMove},
		{name: "off board", board: b, move: 9, mark: O, outcome: memory.Win, wantErr: ErrInvalidMove},
		{name: "bad mark", board: b, move: 4, mark: "Q", outcome: memory.Win, wantErr: game.ErrInvalidMark},
		{name: "bad outcome", board: b, move: 4, mark: O, outcome: "loss", wantErr: memory.ErrInvalidOutcome},
		{name: "bad board", board: game.Board{"?"}, move: 4, mark: O, outcome: memory.Win, wantErr: game.ErrInvalidBoard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.RecordOutcome(ctx, tt.board, tt.move, tt.mark, tt.outcome)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordOutcome() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordOutcomeDrivesMediumChoice(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.AdaptivityLevel = 1
	e := newTestEngine(t, cfg, 2)
	b := game.Board{}

	for i := 0; i < 4; i++ {
		_ = e.RecordOutcome(ctx, b, 4, X, memory.Win)
	}
	_ = e.RecordOutcome(ctx, b, 0, X, memory.Pending)

	hits := 0
	for i := 0; i < 1000; i++ {
		if move, _ := e.AiMove(ctx, b, X, Medium); move == 4 {
			hits++
		}
	}
	// Weights 2.0 vs 0.1.
	if hits < 900 {
		t.Errorf("reinforced move chosen %d/1000 times", hits)
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, s := range []string{"easy", "Medium", " HARD "} {
		if _, err := ParseDifficulty(s); err != nil {
			t.Errorf("ParseDifficulty(%q) error = %v", s, err)
		}
	}
	if _, err := ParseDifficulty("impossible"); !errors.Is(err, ErrInvalidDifficulty) {
		t.Errorf("ParseDifficulty(impossible) error = %v", err)
	}
}

func TestWithRandInjection(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))
	e, err := New(memory.NewLocalTables(10), DefaultConfig(), WithRand(r))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if e.rng.r != r {
		t.Error("WithRand did not install the given source")
	}
}
