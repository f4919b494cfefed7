package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

type pickStage uint8

const (
	stageTT pickStage = iota
	stageCapturesInit
	stageCaptures
	stageKillers
	stageQuietsInit
	stageQuiets
	stageEvasionsInit
	stageEvasions
	stageDone
)

// Ordering bonuses; captures always sort above quiet evasions.
const (
	captureBonus = 1 << 20
	killerBonus  = 1 << 18
)

// MovePicker hands out pseudo-legal moves one at a time, best first, in
// stages: hash move, captures, killers, quiet moves. In check it yields all
// evasions instead. Each stage is generated only when reached and sorted
// lazily by selection, so a cutoff skips the rest. Callers still check
// Legal before making a move.
type MovePicker struct {
	pos        *board.Position
	hist       *History
	ttMove     board.Move
	killers    [2]board.Move
	quiescence bool

	stage  pickStage
	list   board.MoveList
	scores [board.MaxMoves]int
	next   int
	killer int
}

// NewMovePicker prepares a picker for the node at ply. In quiescence mode
// only captures (or evasions when in check) are produced.
func NewMovePicker(pos *board.Position, hist *History, ttMove board.Move, ply int, quiescence bool) MovePicker {
	mp := MovePicker{
		pos:        pos,
		hist:       hist,
		ttMove:     ttMove,
		quiescence: quiescence,
	}
	if !quiescence {
		mp.killers = hist.Killers(ply)
	}
	return mp
}

// isTactical reports whether m changes material: captures, en passant and
// promotions.
func isTactical(pos *board.Position, m board.Move) bool {
	return pos.PieceAt(m.To()) != board.NoPiece || m.IsEnPassant() || m.IsPromotion()
}

// Next returns the next move, NullMove when exhausted.
func (mp *MovePicker) Next() board.Move {
	pos := mp.pos
	for {
		switch mp.stage {
		case stageTT:
			mp.stage = stageCapturesInit
			if pos.InCheck() {
				mp.stage = stageEvasionsInit
			}
			m := mp.ttMove
			if m != board.NullMove && pos.FastMoveValid(m) &&
				(!mp.quiescence || pos.InCheck() || isTactical(pos, m)) {
				return m
			}
			mp.ttMove = board.NullMove

		case stageCapturesInit:
			mp.list.Clear()
			pos.GenerateCaptures(&mp.list)
			for i, m := range mp.list.Slice() {
				mp.scores[i] = mp.captureScore(m)
			}
			mp.next = 0
			mp.stage = stageCaptures

		case stageCaptures:
			if m := mp.selectBest(); m != board.NullMove {
				return m
			}
			if mp.quiescence {
				mp.stage = stageDone
			} else {
				mp.stage = stageKillers
			}

		case stageKillers:
			for mp.killer < len(mp.killers) {
				m := mp.killers[mp.killer]
				mp.killer++
				if m != board.NullMove && m != mp.ttMove && !isTactical(pos, m) && pos.FastMoveValid(m) {
					return m
				}
			}
			mp.stage = stageQuietsInit

		case stageQuietsInit:
			mp.list.Clear()
			pos.GenerateQuiets(&mp.list)
			us := pos.SideToMove()
			for i, m := range mp.list.Slice() {
				mp.scores[i] = mp.hist.QuietScore(us, m)
			}
			mp.next = 0
			mp.stage = stageQuiets

		case stageQuiets:
			for {
				m := mp.selectBest()
				if m == board.NullMove {
					break
				}
				if m != mp.killers[0] && m != mp.killers[1] {
					return m
				}
			}
			mp.stage = stageDone

		case stageEvasionsInit:
			mp.list.Clear()
			pos.GenerateEvasions(&mp.list)
			us := pos.SideToMove()
			for i, m := range mp.list.Slice() {
				switch {
				case isTactical(pos, m):
					mp.scores[i] = captureBonus + mp.captureScore(m)
				case m == mp.killers[0] || m == mp.killers[1]:
					mp.scores[i] = killerBonus
				default:
					mp.scores[i] = mp.hist.QuietScore(us, m)
				}
			}
			mp.next = 0
			mp.stage = stageEvasions

		case stageEvasions:
			if m := mp.selectBest(); m != board.NullMove {
				return m
			}
			mp.stage = stageDone

		default:
			return board.NullMove
		}
	}
}

// captureScore orders captures by victim value first (MVV/LVA), then by
// capture history.
func (mp *MovePicker) captureScore(m board.Move) int {
	pos := mp.pos
	victim := pos.PieceAt(m.To()).Type()
	value := 0
	if victim != board.NoPieceType {
		value = pieceValues[victim]
	} else if m.IsEnPassant() {
		value = PawnValue
	}
	if m.IsPromotion() {
		value += pieceValues[m.Promotion()] - PawnValue
	}
	attacker := pos.PieceAt(m.From()).Type()
	return value*64 - int(attacker) + mp.hist.CaptureScore(pos, m)/32
}

// selectBest swaps the best remaining move to the front and returns it,
// skipping the hash move which has already been tried.
func (mp *MovePicker) selectBest() board.Move {
	for mp.next < mp.list.Len() {
		best := mp.next
		for i := mp.next + 1; i < mp.list.Len(); i++ {
			if mp.scores[i] > mp.scores[best] {
				best = i
			}
		}
		mp.list.Swap(mp.next, best)
		mp.scores[mp.next], mp.scores[best] = mp.scores[best], mp.scores[mp.next]
		m := mp.list.Get(mp.next)
		mp.next++
		if m != mp.ttMove {
			return m
		}
	}
	return board.NullMove
}
