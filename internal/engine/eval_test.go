package engine

import (
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

// mirrorFEN swaps the colours of a position and flips the board vertically.
func mirrorFEN(fen string) string {
	f := strings.Fields(fen)
	ranks := strings.Split(f[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	swap := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z':
				return r - 'a' + 'A'
			case r >= 'A' && r <= 'Z':
				return r - 'A' + 'a'
			}
			return r
		}, s)
	}
	f[0] = swap(strings.Join(ranks, "/"))
	if f[1] == "w" {
		f[1] = "b"
	} else {
		f[1] = "w"
	}
	if f[2] != "-" {
		f[2] = swap(f[2])
	}
	if f[3] != "-" {
		rank := map[byte]byte{'3': '6', '6': '3'}[f[3][1]]
		f[3] = string([]byte{f[3][0], rank})
	}
	return strings.Join(f, " ")
}

var evalFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"4k3/1pp5/8/P7/8/6P1/P4PP1/4K3 b - - 0 1",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	"2b1k3/8/8/8/8/8/8/2BBK3 w - - 0 1",
}

func TestEvaluatorsAreColourSymmetric(t *testing.T) {
	evals := map[string]Evaluator{
		"material": MaterialEvaluator{},
		"pst":      NewPSTEvaluator(1),
	}
	for name, eval := range evals {
		for _, fen := range evalFENs {
			t.Run(name+"/"+fen, func(t *testing.T) {
				pos := board.MustParseFEN(fen)
				mirrored := board.MustParseFEN(mirrorFEN(fen))
				if a, b := eval.Evaluate(pos), eval.Evaluate(mirrored); a != b {
					t.Errorf("eval %d, mirrored eval %d", a, b)
				}
			})
		}
	}
}

func TestEvaluateStartPosition(t *testing.T) {
	pos := board.NewPosition()
	if got := (MaterialEvaluator{}).Evaluate(pos); got != 0 {
		t.Errorf("material = %d", got)
	}
	if got := NewPSTEvaluator(1).Evaluate(pos); got != 0 {
		t.Errorf("pst = %d", got)
	}
}

func TestEvaluateFavoursMaterial(t *testing.T) {
	up := board.MustParseFEN("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	eval := NewPSTEvaluator(1)
	if got := eval.Evaluate(up); got < RookValue-100 {
		t.Errorf("rook up scores %d", got)
	}
	down := board.MustParseFEN("4k3/8/8/8/8/8/8/R3K3 b - - 0 1")
	if got := eval.Evaluate(down); got > -(RookValue - 100) {
		t.Errorf("rook down scores %d", got)
	}
}

func TestPawnStructure(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		mg, eg   int
	}{
		{"none", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", 0, 0},
		// a lone passed, isolated pawn on the fifth rank
		{"passed isolated", "4k3/8/8/P7/8/8/8/4K3 w - - 0 1", 70 + isolatedPawnMgPenalty, 105 + isolatedPawnEgPenalty},
		// doubled and isolated on the e-file; only the front pawn is passed
		{"doubled", "4k3/8/8/8/4P3/4P3/8/4K3 w - - 0 1",
			doubledPawnMgPenalty + 2*isolatedPawnMgPenalty + 40,
			doubledPawnEgPenalty + 2*isolatedPawnEgPenalty + 60},
		// blocked by an enemy pawn on the neighbouring file: not passed
		{"not passed", "4k3/3p4/8/8/4P3/8/8/4K3 w - - 0 1", 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mg, eg := evaluatePawnStructure(board.MustParseFEN(tc.fen))
			if mg != tc.mg || eg != tc.eg {
				t.Errorf("pawn structure = (%d, %d), want (%d, %d)", mg, eg, tc.mg, tc.eg)
			}
		})
	}
}

func TestPawnTable(t *testing.T) {
	pt := NewPawnTable(1)
	if _, _, ok := pt.Probe(12345); ok {
		t.Fatal("probe hit on an empty table")
	}
	pt.Store(12345, 17, -9)
	mg, eg, ok := pt.Probe(12345)
	if !ok || mg != 17 || eg != -9 {
		t.Errorf("Probe = (%d, %d, %v)", mg, eg, ok)
	}
	// Key zero is a valid key, not an empty slot marker.
	pt.Store(0, 3, 4)
	if mg, eg, ok := pt.Probe(0); !ok || mg != 3 || eg != 4 {
		t.Errorf("Probe(0) = (%d, %d, %v)", mg, eg, ok)
	}
	pt.Clear()
	if _, _, ok := pt.Probe(12345); ok {
		t.Error("probe hit after Clear")
	}
}
