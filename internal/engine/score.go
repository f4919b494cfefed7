package engine

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	Checkmate = 29000
	MaxPly    = 128

	// Scores beyond mateBound encode a forced mate.
	mateBound = Checkmate - MaxPly
)

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool {
	return score >= mateBound || score <= -mateBound
}

// MateIn converts a mate score to full moves until mate, negative (or zero
// when already mated) if the side to move is losing.
func MateIn(score int) int {
	if score > 0 {
		return (Checkmate - score + 1) / 2
	}
	return -(Checkmate + score) / 2
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if IsMateScore(score) {
		n := MateIn(score)
		if n > 0 {
			return "Mate in " + strconv.Itoa(n)
		}
		return "Mated in " + strconv.Itoa(-n)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return sign + strconv.Itoa(score/100) + "." + twoDigits(score%100)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// UCIScore renders a score as the "cp N" or "mate N" fragment of an info line.
func UCIScore(score int) string {
	if IsMateScore(score) {
		return "mate " + strconv.Itoa(MateIn(score))
	}
	return "cp " + strconv.Itoa(score)
}

// FormatPV joins a line in long algebraic notation.
func FormatPV(pv []board.Move) string {
	return strings.Join(lo.Map(pv, func(m board.Move, _ int) string { return m.String() }), " ")
}
