package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestTranspositionTableSize(t *testing.T) {
	tt := NewTranspositionTable(1)
	if got, want := tt.Size(), 1<<16; got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
	// 3MB rounds down to 2MB worth of entries.
	if got, want := NewTranspositionTable(3).Size(), 1<<17; got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
}

func TestTranspositionRetrieveBounds(t *testing.T) {
	move := board.NewMove(board.E2, board.E4, board.Quiet)
	tests := []struct {
		name        string
		bound       Bound
		score       int
		alpha, beta int
		depth       int
		wantOK      bool
	}{
		{"exact always", BoundExact, 10, -50, 50, 4, true},
		{"lower reaching beta", BoundLower, 60, -50, 50, 4, true},
		{"lower below beta", BoundLower, 40, -50, 50, 4, false},
		{"upper at alpha", BoundUpper, -50, -50, 50, 4, true},
		{"upper above alpha", BoundUpper, -40, -50, 50, 4, false},
		{"too shallow", BoundExact, 10, -50, 50, 6, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := NewTranspositionTable(1)
			const key = 0xDEADBEEF12345678
			tt.Save(key, move, tc.score, tc.bound, 5, 0)
			p, ok := tt.Retrieve(key, tc.depth, 0, tc.alpha, tc.beta)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if p.Move != move || p.Score != tc.score || p.Bound != tc.bound || p.Depth != 5 {
				t.Errorf("probe = %+v", p)
			}
		})
	}
}

func TestTranspositionMissAndMove(t *testing.T) {
	tt := NewTranspositionTable(1)
	move := board.NewMove(board.G1, board.F3, board.Quiet)
	tt.Save(42, move, 0, BoundExact, 3, 0)

	if _, ok := tt.Retrieve(43, 0, 0, -Infinity, Infinity); ok {
		t.Error("retrieved a different key")
	}
	if got := tt.Move(42); got != move {
		t.Errorf("Move(42) = %v, want %v", got, move)
	}
	if got := tt.Move(42 + uint64(tt.Size())); got != board.NullMove {
		t.Errorf("Move of colliding key = %v, want NullMove", got)
	}
	tt.Clear()
	if got := tt.Move(42); got != board.NullMove {
		t.Errorf("Move after Clear = %v", got)
	}
}

func TestTranspositionReplacement(t *testing.T) {
	tt := NewTranspositionTable(1)
	a := board.NewMove(board.E2, board.E4, board.Quiet)
	b := board.NewMove(board.D2, board.D4, board.Quiet)

	tt.Save(7, a, 10, BoundExact, 6, 0)
	tt.Save(7, b, 20, BoundExact, 4, 0)
	if got := tt.Move(7); got != a {
		t.Errorf("shallower save replaced deeper entry of the same search")
	}

	tt.Save(7, b, 20, BoundExact, 8, 0)
	if got := tt.Move(7); got != b {
		t.Errorf("deeper save did not replace")
	}

	tt.Age()
	tt.Save(7, a, 5, BoundUpper, 1, 0)
	if got := tt.Move(7); got != a {
		t.Errorf("entry of an older search was not replaced")
	}
}

func TestTranspositionMateScoresAreNodeRelative(t *testing.T) {
	tt := NewTranspositionTable(1)
	// Mate in 3 plies found at ply 5 is mate in 8 plies from the root.
	score := Checkmate - 8
	tt.Save(99, board.NullMove, score, BoundExact, 2, 5)

	p, ok := tt.Retrieve(99, 0, 5, -Infinity, Infinity)
	if !ok || p.Score != score {
		t.Errorf("same ply: score %d ok %v, want %d", p.Score, ok, score)
	}
	p, _ = tt.Retrieve(99, 0, 1, -Infinity, Infinity)
	if want := Checkmate - 4; p.Score != want {
		t.Errorf("ply 1: score %d, want %d", p.Score, want)
	}

	tt.Save(100, board.NullMove, -Checkmate+6, BoundExact, 2, 2)
	p, _ = tt.Retrieve(100, 0, 4, -Infinity, Infinity)
	if want := -Checkmate + 8; p.Score != want {
		t.Errorf("mated: score %d, want %d", p.Score, want)
	}
}

func TestHashFull(t *testing.T) {
	tt := NewTranspositionTable(1)
	if got := tt.HashFull(); got != 0 {
		t.Errorf("empty HashFull = %d", got)
	}
	for k := uint64(0); k < 500; k++ {
		tt.Save(k, board.NullMove, 0, BoundExact, 1, 0)
	}
	if got := tt.HashFull(); got != 500 {
		t.Errorf("HashFull = %d, want 500", got)
	}
	tt.Age()
	if got := tt.HashFull(); got != 0 {
		t.Errorf("HashFull after Age = %d, want 0", got)
	}
}
