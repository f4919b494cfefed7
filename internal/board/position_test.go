package board

import "testing"

// playout makes up to n random legal moves from pos, validating after each,
// and returns the undo stack.
func playout(t *testing.T, pos *Position, rng *prng, n int) []Undo {
	t.Helper()
	var stack []Undo
	for i := 0; i < n; i++ {
		var ml MoveList
		pos.GenerateLegal(&ml)
		if ml.Len() == 0 {
			break
		}
		m := ml.Get(int(rng.next() % uint64(ml.Len())))
		stack = append(stack, pos.Make(m))
		if err := pos.Validate(); err != nil {
			t.Fatalf("after %v: %v\n%s", m, err, pos)
		}
	}
	return stack
}

func TestMakeUnmakeRestoresPosition(t *testing.T) {
	rng := &prng{state: 0xC0FFEE}
	for _, fen := range []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	} {
		for game := 0; game < 20; game++ {
			pos := MustParseFEN(fen)
			before := *pos
			stack := playout(t, pos, rng, 60)
			for i := len(stack) - 1; i >= 0; i-- {
				pos.Unmake(stack[i])
			}
			if pos.FEN() != fen || pos.Hash() != before.Hash() || pos.PawnHash() != before.PawnHash() {
				t.Fatalf("unmake did not restore %s: got %s", fen, pos.FEN())
			}
			if pos.board != before.board || pos.pieces != before.pieces || pos.Ply() != 0 {
				t.Fatalf("unmake left placement or ply changed")
			}
		}
	}
}

func TestIncrementalHashMatchesFEN(t *testing.T) {
	rng := &prng{state: 42}
	pos := NewPosition()
	for i := 0; i < 200; i++ {
		if len(playout(t, pos, rng, 1)) == 0 {
			break
		}
		fresh := MustParseFEN(pos.FEN())
		if fresh.Hash() != pos.Hash() {
			t.Fatalf("move %d: incremental key %016x, fresh key %016x for %s", i, pos.Hash(), fresh.Hash(), pos.FEN())
		}
	}
}

func TestSpecialMoves(t *testing.T) {
	tests := []struct {
		name, fen, move, want string
	}{
		{
			"en passant removes the pawn beside",
			"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
			"e5f6",
			"rnbqkbnr/ppp1p1pp/5P2/3p4/8/8/PPPP1PPP/RNBQKBNR b KQkq - 0 3",
		},
		{
			"white castles short",
			"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			"e1g1",
			"r3k2r/8/8/8/8/8/8/R4RK1 b kq - 1 1",
		},
		{
			"black castles long",
			"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1",
			"e8c8",
			"2kr3r/8/8/8/8/8/8/R3K2R w KQ - 1 2",
		},
		{
			"rook capture removes castling right",
			"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			"a1a8",
			"R3k2r/8/8/8/8/8/8/4K2R b Kk - 0 1",
		},
		{
			"capture promotion",
			"1r2k3/P7/8/8/8/8/8/4K3 w - - 0 1",
			"a7b8n",
			"1N2k3/8/8/8/8/8/8/4K3 b - - 0 1",
		},
		{
			"double push sets en passant",
			StartFEN,
			"e2e4",
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			m, err := pos.ParseMove(tc.move)
			if err != nil {
				t.Fatal(err)
			}
			u := pos.Make(m)
			if got := pos.FEN(); got != tc.want {
				t.Errorf("after %s: %s, want %s", tc.move, got, tc.want)
			}
			if err := pos.Validate(); err != nil {
				t.Error(err)
			}
			pos.Unmake(u)
			if got := pos.FEN(); got != tc.fen && got != MustParseFEN(tc.fen).FEN() {
				t.Errorf("after unmake: %s", got)
			}
		})
	}
}

func TestNullMove(t *testing.T) {
	pos := MustParseFEN("rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3")
	fen, key := pos.FEN(), pos.Hash()
	u := pos.MakeNull()
	if pos.SideToMove() != Black || pos.EnPassantFile() != NoFile {
		t.Fatalf("null move: side %v ep %d", pos.SideToMove(), pos.EnPassantFile())
	}
	if err := pos.Validate(); err != nil {
		t.Fatal(err)
	}
	pos.Unmake(u)
	if pos.FEN() != fen || pos.Hash() != key {
		t.Fatalf("null unmake: %s", pos.FEN())
	}
}

func TestRepetition(t *testing.T) {
	pos := NewPosition()
	for i, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		pos.Make(m)
		if i < 3 && pos.IsRepetition() {
			t.Fatalf("repetition reported after %d moves", i+1)
		}
	}
	if !pos.IsRepetition() {
		t.Fatal("start position repeated but not detected")
	}
}

func TestDrawRules(t *testing.T) {
	tests := []struct {
		fen          string
		fifty, insuf bool
	}{
		{"4k3/8/8/8/8/8/8/4K3 w - - 0 1", false, true},
		{"4k3/8/8/8/8/8/8/4KN2 w - - 0 1", false, true},
		{"4k3/8/8/8/8/8/8/3BKN2 w - - 0 1", false, false},
		{"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", false, false},
		{"4k3/8/8/8/8/8/8/4K2R w - - 100 80", true, false},
		{"4k3/8/8/8/8/8/8/4K2R w - - 99 80", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.fen, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			if got := pos.IsFiftyMoveDraw(); got != tc.fifty {
				t.Errorf("IsFiftyMoveDraw = %v", got)
			}
			if got := pos.IsInsufficientMaterial(); got != tc.insuf {
				t.Errorf("IsInsufficientMaterial = %v", got)
			}
		})
	}
}

func TestCopyIsIndependent(t *testing.T) {
	pos := NewPosition()
	cp := pos.Copy()
	m, _ := cp.ParseMove("e2e4")
	cp.Make(m)
	if pos.FEN() != StartFEN {
		t.Fatalf("original changed: %s", pos.FEN())
	}
	if pos.Attacks() != cp.Attacks() {
		t.Fatal("copy should share attack tables")
	}
}
