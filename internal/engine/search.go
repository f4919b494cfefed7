package engine

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Pruning constants
const (
	reverseFutilityMaxDepth = 9
	reverseFutilityMargin   = 75
	nullMoveMinDepth        = 3
	nullMoveReduction       = 3
	futilityMaxDepth        = 10
	futilityConstant        = 100
	futilityLinear          = 35
	lmrMinSearched          = 3
)

// lmrTable[depth][searched] is the late move reduction in plies.
var lmrTable = func() (t [64][64]int) {
	for d := range t {
		for m := range t[d] {
			t[d][m] = int(math.Round(-1.75 + 1.03*math.Log(float64(d+1))*math.Log(float64(m+1))))
		}
	}
	return t
}()

// PVTable stores the principal variation, rebuilt bottom-up: row ply holds
// the line from that ply.
type PVTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

func (pv *PVTable) clear(ply int) {
	pv.length[ply] = ply
}

// update makes m followed by the child's line the PV of ply.
func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	n := copy(pv.moves[ply][ply+1:], pv.moves[ply+1][ply+1:pv.length[ply+1]])
	pv.length[ply] = ply + 1 + n
}

// single sets the PV of ply to just m.
func (pv *PVTable) single(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	pv.length[ply] = ply + 1
}

// Line returns a copy of the root PV.
func (pv *PVTable) Line() []board.Move {
	return append([]board.Move(nil), pv.moves[0][:pv.length[0]]...)
}

// searcher is the context of one search: it owns the position and every
// table the recursion touches.
type searcher struct {
	pos      *board.Position
	eval     Evaluator
	tt       *TranspositionTable
	hist     *History
	features Features

	nullVerifyDepth int

	stop      *atomic.Bool
	ctx       context.Context
	deadline  time.Time
	nodeLimit uint64

	nodes    uint64
	seldepth int
	moves    [MaxPly + 1]board.Move
	pv       PVTable
}

// stopped polls the stop flag, refreshing it from the clock, the node limit
// and the context every 1024 nodes.
func (s *searcher) stopped() bool {
	if s.nodes&1023 == 0 && !s.stop.Load() {
		if (!s.deadline.IsZero() && time.Now().After(s.deadline)) ||
			(s.nodeLimit > 0 && s.nodes >= s.nodeLimit) ||
			(s.ctx != nil && s.ctx.Err() != nil) {
			s.stop.Store(true)
		}
	}
	return s.stop.Load()
}

func (s *searcher) isDraw() bool {
	return s.pos.IsFiftyMoveDraw() || s.pos.IsRepetition() || s.pos.IsInsufficientMaterial()
}

// negamax is the fail-soft principal variation search. A cancelled search
// returns 0 at every level; the caller discards the iteration.
func (s *searcher) negamax(alpha, beta, depth, ply int) int {
	if s.stopped() {
		return 0
	}
	s.pv.clear(ply)
	pos := s.pos
	inCheck := pos.InCheck()
	if depth <= 0 && !inCheck {
		return s.quiescence(alpha, beta, ply)
	}
	if ply >= MaxPly {
		return s.eval.Evaluate(pos)
	}

	s.nodes++
	s.hist.clearKillers(ply + 1)
	s.seldepth = max(s.seldepth, ply)
	pvNode := beta-alpha > 1
	root := ply == 0

	if !root && s.isDraw() {
		return 0
	}

	var probe Probe
	if s.features.TT {
		var ok bool
		probe, ok = s.tt.Retrieve(pos.Hash(), depth, ply, alpha, beta)
		if ok && !root {
			if probe.Move != board.NullMove {
				s.pv.single(ply, probe.Move)
			}
			return probe.Score
		}
	}

	eval := -Infinity
	if !inCheck {
		eval = s.eval.Evaluate(pos)
		switch probe.Bound {
		case BoundExact:
			eval = probe.Score
		case BoundLower:
			eval = max(eval, probe.Score)
		case BoundUpper:
			eval = min(eval, probe.Score)
		}
	}

	if !pvNode && !inCheck {
		if s.features.ReverseFutility && depth < reverseFutilityMaxDepth &&
			abs(beta) < mateBound && eval-reverseFutilityMargin*depth >= beta {
			return eval
		}

		if s.features.NullMove && depth >= nullMoveMinDepth && eval >= beta &&
			ply > 0 && s.moves[ply-1] != board.NullMove &&
			pos.HasNonPawnMaterial(pos.SideToMove()) &&
			!(probe.Bound == BoundUpper && probe.Score < beta) {
			if score, ok := s.nullMove(beta, depth, ply); ok {
				return score
			}
			if s.stop.Load() {
				return 0
			}
			s.pv.clear(ply)
		}
	}

	futile := s.features.Futility && !pvNode && !inCheck && depth < futilityMaxDepth &&
		eval+futilityConstant+futilityLinear*depth < alpha

	alphaOrig := alpha
	bestScore, bestMove := -Infinity, board.NullMove
	legal, searched := 0, 0
	var quiets, captures board.MoveList

	mp := NewMovePicker(pos, s.hist, probe.Move, ply, false)
	for m := mp.Next(); m != board.NullMove; m = mp.Next() {
		if !pos.Legal(m) {
			continue
		}
		legal++
		quiet := !isTactical(pos, m)

		u := pos.Make(m)
		// Quiet checks are never futile.
		if futile && quiet && legal > 1 && !pos.InCheck() {
			pos.Unmake(u)
			continue
		}
		s.moves[ply] = m
		newDepth := depth - 1
		if s.features.CheckExtension && pvNode && inCheck {
			newDepth++
		}

		var score int
		if legal == 1 {
			score = -s.negamax(-beta, -alpha, newDepth, ply+1)
		} else {
			if s.features.LMR && !pvNode && !inCheck && searched > lmrMinSearched {
				r := max(0, lmrTable[min(depth, 63)][min(searched, 63)])
				if r > 0 {
					probeScore := -s.negamax(-alpha-1, -alpha, newDepth-r, ply+1)
					if probeScore <= alpha {
						pos.Unmake(u)
						if s.stop.Load() {
							return 0
						}
						continue
					}
				}
			}
			score = -s.negamax(-alpha-1, -alpha, newDepth, ply+1)
			if score > alpha && score < beta {
				score = -s.negamax(-beta, -alpha, newDepth, ply+1)
			}
		}
		pos.Unmake(u)
		searched++
		if quiet {
			quiets.Add(m)
		} else {
			captures.Add(m)
		}

		if s.stop.Load() {
			return 0
		}

		if score > bestScore {
			bestScore, bestMove = score, m
			if score > alpha {
				alpha = score
				s.pv.update(ply, m)
				if alpha >= beta {
					break
				}
			}
		}
	}

	if legal == 0 {
		if inCheck {
			return -Checkmate + ply
		}
		return 0
	}
	if bestScore >= beta {
		if !isTactical(pos, bestMove) {
			s.hist.UpdateQuiet(pos.SideToMove(), ply, depth, bestMove, quiets.Slice())
		}
		s.hist.UpdateCapture(pos, depth, bestMove, captures.Slice())
	}

	if s.features.TT {
		bound := BoundExact
		switch {
		case bestScore >= beta:
			bound = BoundLower
		case bestScore <= alphaOrig:
			bound = BoundUpper
		}
		s.tt.Save(pos.Hash(), bestMove, bestScore, bound, depth, ply)
	}
	return bestScore
}

// nullMove passes the turn and searches the reply at reduced depth. At high
// depth a fail-high is confirmed by a reduced search of the real moves.
func (s *searcher) nullMove(beta, depth, ply int) (int, bool) {
	pos := s.pos
	u := pos.MakeNull()
	s.moves[ply] = board.NullMove
	score := -s.negamax(-beta, -beta+1, depth-nullMoveReduction, ply+1)
	pos.Unmake(u)
	if s.stop.Load() || score < beta {
		return 0, false
	}
	if depth < s.nullVerifyDepth {
		return beta, true
	}
	v := s.negamax(beta-1, beta, depth-nullMoveReduction, ply)
	if v >= beta {
		return v, true
	}
	return 0, false
}

// quiescence resolves captures (or all evasions when in check) until the
// position is quiet enough to trust the evaluation.
func (s *searcher) quiescence(alpha, beta, ply int) int {
	if s.stopped() {
		return 0
	}
	s.pv.clear(ply)
	pos := s.pos
	s.nodes++
	s.seldepth = max(s.seldepth, ply)

	if s.isDraw() {
		return 0
	}
	if ply >= MaxPly {
		return s.eval.Evaluate(pos)
	}

	var ttMove board.Move
	if s.features.TT {
		probe, ok := s.tt.Retrieve(pos.Hash(), 0, ply, alpha, beta)
		if ok {
			return probe.Score
		}
		ttMove = probe.Move
	}

	inCheck := pos.InCheck()
	best := -Checkmate + ply
	if !inCheck {
		best = s.eval.Evaluate(pos)
		if best >= beta {
			return best
		}
		alpha = max(alpha, best)
	}

	mp := NewMovePicker(pos, s.hist, ttMove, ply, true)
	for m := mp.Next(); m != board.NullMove; m = mp.Next() {
		if !pos.Legal(m) {
			continue
		}
		u := pos.Make(m)
		s.moves[ply] = m
		score := -s.quiescence(-beta, -alpha, ply+1)
		pos.Unmake(u)
		if s.stop.Load() {
			return 0
		}
		if score > best {
			best = score
			if score > alpha {
				alpha = score
				s.pv.update(ply, m)
				if alpha >= beta {
					break
				}
			}
		}
	}
	return best
}
