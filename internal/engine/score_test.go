package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestScoreStrings(t *testing.T) {
	tests := []struct {
		score int
		human string
		uci   string
	}{
		{0, "0.00", "cp 0"},
		{105, "1.05", "cp 105"},
		{-250, "-2.50", "cp -250"},
		{-7, "-0.07", "cp -7"},
		{Checkmate - 1, "Mate in 1", "mate 1"},
		{Checkmate - 4, "Mate in 2", "mate 2"},
		{Checkmate - 5, "Mate in 3", "mate 3"},
		{-Checkmate + 2, "Mated in 1", "mate -1"},
		{-Checkmate + 5, "Mated in 2", "mate -2"},
		{-Checkmate, "Mated in 0", "mate 0"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.human {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.human)
		}
		if got := UCIScore(tc.score); got != tc.uci {
			t.Errorf("UCIScore(%d) = %q, want %q", tc.score, got, tc.uci)
		}
	}
}

func TestIsMateScore(t *testing.T) {
	if IsMateScore(QueenValue * 9) {
		t.Error("material score taken for a mate")
	}
	if !IsMateScore(Checkmate-MaxPly) || !IsMateScore(-Checkmate+MaxPly) {
		t.Error("deepest mate score not recognised")
	}
}

func TestFormatPV(t *testing.T) {
	pv := []board.Move{
		board.NewMove(board.E2, board.E4, board.Quiet),
		board.NewMove(board.E7, board.E5, board.Quiet),
		board.NewPromotion(board.A7, board.A8, board.Queen),
	}
	if got, want := FormatPV(pv), "e2e4 e7e5 a7a8q"; got != want {
		t.Errorf("FormatPV = %q, want %q", got, want)
	}
	if got := FormatPV(nil); got != "" {
		t.Errorf("FormatPV(nil) = %q", got)
	}
}
