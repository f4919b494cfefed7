package board

import (
	"sort"
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

func TestPerft(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		expected []uint64
	}{
		{"start", StartFEN, []uint64{20, 400, 8902, 197281}},
		// Kiwipete: castling, pins and promotions all over the place.
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []uint64{48, 2039, 97862}},
		{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []uint64{14, 191, 2812, 43238}},
		{"promotions", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []uint64{6, 264, 9467}},
		{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []uint64{44, 1486, 62379}},
		// Black's e4xd3 would expose the a4 king to the h4 rook.
		{"ep horizontal pin", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []uint64{6, 94}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			for i, want := range tc.expected {
				if got := pos.Perft(i + 1); got != want {
					t.Errorf("perft(%d) = %d, want %d", i+1, got, want)
				}
			}
			if got := pos.FEN(); got != MustParseFEN(tc.fen).FEN() {
				t.Errorf("perft left the position changed: %s", got)
			}
		})
	}
}

func TestEnPassantHorizontalPin(t *testing.T) {
	pos := MustParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	var ml MoveList
	pos.GenerateLegal(&ml)
	for _, m := range ml.Slice() {
		if m.IsEnPassant() {
			t.Errorf("en passant %v should be illegal", m)
		}
	}
}

// TestLegalMovesMatchReference walks a few plies of every legal line and
// compares the legal move set against an independent generator.
func TestLegalMovesMatchReference(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			compareWithReference(t, MustParseFEN(fen), 2)
		})
	}
}

func compareWithReference(t *testing.T, pos *Position, depth int) {
	t.Helper()
	ref := dragontoothmg.ParseFen(pos.FEN())

	var want []string
	for _, m := range ref.GenerateLegalMoves() {
		want = append(want, m.String())
	}
	var ml MoveList
	pos.GenerateLegal(&ml)
	var got []string
	for _, m := range ml.Slice() {
		got = append(got, m.String())
	}
	sort.Strings(want)
	sort.Strings(got)
	if len(got) != len(want) {
		t.Fatalf("%s: %d legal moves, reference has %d\ngot  %v\nwant %v", pos.FEN(), len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s: move lists differ\ngot  %v\nwant %v", pos.FEN(), got, want)
		}
	}

	if depth <= 1 {
		return
	}
	for _, m := range ml.Slice() {
		u := pos.Make(m)
		compareWithReference(t, pos, depth-1)
		pos.Unmake(u)
	}
}
