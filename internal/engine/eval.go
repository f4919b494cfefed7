// Package engine implements the chess AI search engine.
package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Evaluator scores a position from the side to move's point of view. Scores
// must stay well inside ±mateBound.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
)

// Piece values array for quick lookup
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 0, 0}

// MaterialEvaluator counts material only.
type MaterialEvaluator struct{}

func (MaterialEvaluator) Evaluate(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces(board.White, pt).PopCount() * pieceValues[pt]
		score -= pos.Pieces(board.Black, pt).PopCount() * pieceValues[pt]
	}
	if pos.SideToMove() == board.Black {
		return -score
	}
	return score
}

// Passed pawn bonuses by relative rank
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

// Bishop pair bonus (having two bishops)
const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

// Pawn structure penalties
const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
)

// Piece-Square Tables (PST) for positional evaluation.
// Rows run from rank 8 down to rank 1 as seen by White; index with
// pstIndex.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// King PST (middlegame) - encourages castling
var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

// King PST (endgame) - king should be active
var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var psts = [...][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST, kingMidgamePST,
}

// phaseWeight feeds the tapered blend; a full set of pieces sums to maxPhase.
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24

func pstIndex(c board.Color, sq board.Square) board.Square {
	if c == board.White {
		return sq.Flip()
	}
	return sq
}

// adjacentFiles[f] is the files either side of f.
var adjacentFiles = func() (adj [8]board.Bitboard) {
	for f := 0; f < 8; f++ {
		if f > 0 {
			adj[f] |= board.FileMask[f-1]
		}
		if f < 7 {
			adj[f] |= board.FileMask[f+1]
		}
	}
	return adj
}()

// passedSpan[c][sq] is every square an enemy pawn could use to stop a pawn
// of colour c on sq: the file ahead and both neighbouring files.
var passedSpan = func() (span [2][64]board.Bitboard) {
	for sq := board.A1; sq <= board.H8; sq++ {
		files := board.FileMask[sq.File()] | adjacentFiles[sq.File()]
		for r := 0; r < 8; r++ {
			switch {
			case r > sq.Rank():
				span[board.White][sq] |= files & board.RankMask[r]
			case r < sq.Rank():
				span[board.Black][sq] |= files & board.RankMask[r]
			}
		}
	}
	return span
}()

// PSTEvaluator is a tapered material + piece-square evaluation with pawn
// structure cached by pawn key. It keeps a cache and is therefore owned by
// one search at a time.
type PSTEvaluator struct {
	pawns *PawnTable
}

// NewPSTEvaluator creates an evaluator with a pawn cache of pawnMB megabytes.
func NewPSTEvaluator(pawnMB int) *PSTEvaluator {
	return &PSTEvaluator{pawns: NewPawnTable(pawnMB)}
}

func (e *PSTEvaluator) Evaluate(pos *board.Position) int {
	var mgScore, egScore, phase int

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			for bb := pos.Pieces(c, pt); bb != 0; {
				idx := pstIndex(c, bb.PopLSB())
				mgScore += sign * pieceValues[pt]
				egScore += sign * pieceValues[pt]
				if pt == board.King {
					mgScore += sign * kingMidgamePST[idx]
					egScore += sign * kingEndgamePST[idx]
				} else {
					mgScore += sign * psts[pt][idx]
					egScore += sign * psts[pt][idx]
				}
				phase += phaseWeight[pt]
			}
		}
		if pos.Pieces(c, board.Bishop).Several() {
			mgScore += sign * bishopPairMgBonus
			egScore += sign * bishopPairEgBonus
		}
	}

	psMg, psEg := e.pawnStructure(pos)
	mgScore += psMg
	egScore += psEg

	phase = min(phase, maxPhase)
	score := (mgScore*phase + egScore*(maxPhase-phase)) / maxPhase
	if pos.SideToMove() == board.Black {
		return -score
	}
	return score
}

func (e *PSTEvaluator) pawnStructure(pos *board.Position) (mg, eg int) {
	key := pos.PawnHash()
	if mg, eg, found := e.pawns.Probe(key); found {
		return mg, eg
	}
	mg, eg = evaluatePawnStructure(pos)
	e.pawns.Store(key, mg, eg)
	return mg, eg
}

// evaluatePawnStructure scores doubled, isolated and passed pawns from
// White's point of view. It depends on pawns only.
func evaluatePawnStructure(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		own := pos.Pieces(c, board.Pawn)
		enemy := pos.Pieces(c.Other(), board.Pawn)

		for f := 0; f < 8; f++ {
			n := (own & board.FileMask[f]).PopCount()
			if n > 1 {
				mg += sign * doubledPawnMgPenalty * (n - 1)
				eg += sign * doubledPawnEgPenalty * (n - 1)
			}
			if n > 0 && own&adjacentFiles[f] == 0 {
				mg += sign * isolatedPawnMgPenalty * n
				eg += sign * isolatedPawnEgPenalty * n
			}
		}

		for bb := own; bb != 0; {
			sq := bb.PopLSB()
			if enemy&passedSpan[c][sq] != 0 {
				continue
			}
			// Only the frontmost of doubled pawns counts as passed.
			if own&passedSpan[c][sq]&board.FileMask[sq.File()] != 0 {
				continue
			}
			bonus := passedPawnBonus[sq.RelativeRank(c)]
			mg += sign * bonus
			eg += sign * bonus * 3 / 2
		}
	}
	return mg, eg
}

// Clear empties the pawn cache.
func (e *PSTEvaluator) Clear() {
	e.pawns.Clear()
}
