package perft

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestDivide(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		depth  int
		splits int
		nodes  uint64
	}{
		{"start", board.StartFEN, 3, 20, 8902},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, 48, 2039},
		{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 4, 14, 43238},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := board.MustParseFEN(tc.fen)
			res, err := Divide(context.Background(), pos, tc.depth, 3)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Splits) != tc.splits || res.Nodes != tc.nodes {
				t.Errorf("got %d splits / %d nodes, want %d / %d", len(res.Splits), res.Nodes, tc.splits, tc.nodes)
			}
			if got := pos.Perft(tc.depth); got != res.Nodes {
				t.Errorf("serial perft %d, divide %d", got, res.Nodes)
			}
			if pos.FEN() != tc.fen {
				t.Errorf("divide modified the position: %s", pos.FEN())
			}
			for i := 1; i < len(res.Splits); i++ {
				if res.Splits[i-1].Move.String() >= res.Splits[i].Move.String() {
					t.Fatalf("splits not sorted at %d", i)
				}
			}
		})
	}
}

func TestDivideKnownSplit(t *testing.T) {
	res, err := Divide(context.Background(), board.NewPosition(), 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range res.Splits {
		if s.Nodes != 20 {
			t.Errorf("%v: %d nodes, want 20", s.Move, s.Nodes)
		}
	}
}

func TestDivideErrors(t *testing.T) {
	if _, err := Divide(context.Background(), board.NewPosition(), 0, 1); err == nil {
		t.Error("depth 0 accepted")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Divide(ctx, board.NewPosition(), 3, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWrite(t *testing.T) {
	res, err := Divide(context.Background(), board.NewPosition(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"a2a3: 1\n", "g1f3: 1\n", "Nodes searched: 20 "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
