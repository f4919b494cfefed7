package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
		"4k3/8/8/8/8/8/8/4K2R b K - 17 42",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := pos.FEN(); got != fen {
				t.Errorf("FEN() = %q", got)
			}
			if err := pos.Validate(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestParseFENNormalises(t *testing.T) {
	tests := []struct {
		name, fen, want string
	}{
		{"counters default", "4k3/8/8/8/8/8/8/4K3 w - -", "4k3/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"en passant without pawn dropped", "4k3/8/8/8/8/8/8/4K3 b - e3 0 1", "4k3/8/8/8/8/8/8/4K3 b - - 0 1"},
		{"castling without rook dropped", "r3k3/8/8/8/8/8/8/4K2R w KQkq - 0 1", "r3k3/8/8/8/8/8/8/4K2R w Kq - 0 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MustParseFEN(tc.fen).FEN(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseFENErrors(t *testing.T) {
	tests := []struct {
		name, fen string
	}{
		{"empty", ""},
		{"too few fields", "8/8/8/8/8/8/8/8 w"},
		{"seven ranks", "4k3/8/8/8/8/8/4K3 w - - 0 1"},
		{"long rank", "4k4/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"bad piece", "4k3/8/8/8/8/8/8/4X3 w - - 0 1"},
		{"no white king", "4k3/8/8/8/8/8/8/8 w - - 0 1"},
		{"two black kings", "3kk3/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"pawn on last rank", "3Pk3/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"bad side", "4k3/8/8/8/8/8/8/4K3 x - - 0 1"},
		{"bad castling", "4k3/8/8/8/8/8/8/4K3 w Z - 0 1"},
		{"bad en passant", "4k3/8/8/8/8/8/8/4K3 w - e4 0 1"},
		{"negative clock", "4k3/8/8/8/8/8/8/4K3 w - - -1 1"},
		{"zero move number", "4k3/8/8/8/8/8/8/4K3 w - - 0 0"},
		{"side not to move in check", "4k2R/8/8/8/8/8/8/4K3 w - - 0 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFEN(tc.fen)
			if !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("err = %v, want ErrInvalidFEN", err)
			}
		})
	}
}
