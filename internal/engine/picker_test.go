package engine

import (
	"sort"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

var pickerFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"rnbqkbnr/ppp2ppp/8/3pp3/4P3/5Q2/PPPP1PPP/RNB1KBNR b KQkq - 1 3",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	"n1n5/PPPk4/8/8/8/8/4Kppp/5N1N b - - 0 1",
	"4k3/8/8/8/8/8/3q4/4K3 w - - 0 1",
}

func drain(mp *MovePicker) []board.Move {
	var out []board.Move
	for m := mp.Next(); m != board.NullMove; m = mp.Next() {
		out = append(out, m)
	}
	return out
}

func sortedStrings(moves []board.Move) []string {
	s := make([]string, len(moves))
	for i, m := range moves {
		s[i] = m.String()
	}
	sort.Strings(s)
	return s
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPickerYieldsEveryMoveOnce(t *testing.T) {
	for _, fen := range pickerFENs {
		t.Run(fen, func(t *testing.T) {
			pos := board.MustParseFEN(fen)
			var legal board.MoveList
			pos.GenerateLegal(&legal)

			h := NewHistory()
			// A valid quiet killer and a stale one.
			var quiets board.MoveList
			pos.GenerateQuiets(&quiets)
			if quiets.Len() > 0 {
				h.addKiller(1, quiets.Get(quiets.Len()-1))
			}
			h.addKiller(1, board.NewMove(board.A3, board.H5, board.Quiet))

			var ttMove board.Move
			if legal.Len() > 0 {
				ttMove = legal.Get(legal.Len() / 2)
			}
			mp := NewMovePicker(pos, h, ttMove, 1, false)
			got := drain(&mp)

			seen := map[board.Move]bool{}
			var legalGot []board.Move
			for _, m := range got {
				if seen[m] {
					t.Fatalf("move %v yielded twice", m)
				}
				seen[m] = true
				if pos.Legal(m) {
					legalGot = append(legalGot, m)
				}
			}
			if ttMove != board.NullMove && got[0] != ttMove {
				t.Errorf("first move = %v, want hash move %v", got[0], ttMove)
			}
			if a, b := sortedStrings(legalGot), sortedStrings(legal.Slice()); !equalStrings(a, b) {
				t.Errorf("legal moves from picker\n got %v\nwant %v", a, b)
			}
		})
	}
}

func TestPickerQuiescence(t *testing.T) {
	for _, fen := range pickerFENs {
		t.Run(fen, func(t *testing.T) {
			pos := board.MustParseFEN(fen)
			var want board.MoveList
			if pos.InCheck() {
				pos.GenerateEvasions(&want)
			} else {
				pos.GenerateCaptures(&want)
			}
			mp := NewMovePicker(pos, NewHistory(), board.NullMove, 0, true)
			got := drain(&mp)
			if a, b := sortedStrings(got), sortedStrings(want.Slice()); !equalStrings(a, b) {
				t.Errorf("quiescence moves\n got %v\nwant %v", a, b)
			}
		})
	}
}

func TestPickerRejectsQuietHashMoveInQuiescence(t *testing.T) {
	pos := board.NewPosition()
	ttMove := board.NewMove(board.E2, board.E4, board.Quiet)
	mp := NewMovePicker(pos, NewHistory(), ttMove, 0, true)
	if got := drain(&mp); len(got) != 0 {
		t.Errorf("quiescence at the start position yielded %v", got)
	}
}

func TestPickerOrdersCapturesByVictim(t *testing.T) {
	// The knight on d5 can take a queen on c7 or a pawn on e7; the rook on
	// h1 can take the pawn on h7.
	pos := board.MustParseFEN("4k3/2q1p2p/8/3N4/8/8/8/4K2R w - - 0 1")
	mp := NewMovePicker(pos, NewHistory(), board.NullMove, 0, false)
	first := mp.Next()
	if want := board.NewMove(board.D5, board.C7, board.Capture); first != want {
		t.Errorf("first move = %v, want %v", first, want)
	}
	// Pawn captures: the knight is the cheaper attacker.
	second := mp.Next()
	if want := board.NewMove(board.D5, board.E7, board.Capture); second != want {
		t.Errorf("second move = %v, want %v", second, want)
	}
}
