package engine

import (
	"golang.org/x/exp/constraints"

	"github.com/hailam/chesscore/internal/board"
)

// History heuristic constants
const (
	maxHistoryBonus   = 400
	historyMultiplier = 32
	historyDivisor    = 512
	maxHistory        = historyMultiplier * historyDivisor
)

// History holds the move-ordering statistics of one search: quiet history
// by side and from/to, capture history by moving piece, destination and
// captured type, and two killer slots per ply.
type History struct {
	quiet   [2][64][64]int
	capture [12][64][6]int
	killers [MaxPly + 2][2]board.Move
}

// NewHistory returns empty tables.
func NewHistory() *History {
	return &History{}
}

// Clear resets every table. Called at the start of each search.
func (h *History) Clear() {
	*h = History{}
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// gravity moves an entry towards the bonus, slowing down as it saturates.
func gravity(entry *int, delta int) {
	e := *entry + historyMultiplier*delta - *entry*abs(delta)/historyDivisor
	*entry = clamp(e, -maxHistory, maxHistory)
}

func historyBonus(depth int) int {
	return min(depth*depth, maxHistoryBonus)
}

// QuietScore returns the quiet history of a move for side c.
func (h *History) QuietScore(c board.Color, m board.Move) int {
	return h.quiet[c][m.From()][m.To()]
}

// CaptureScore returns the capture history of a tactical move in pos.
func (h *History) CaptureScore(pos *board.Position, m board.Move) int {
	piece, captured := captureKey(pos, m)
	return h.capture[piece][m.To()][captured]
}

// captureKey indexes capture history. Straight promotions and en passant
// count as capturing a pawn.
func captureKey(pos *board.Position, m board.Move) (board.Piece, board.PieceType) {
	victim := pos.PieceAt(m.To()).Type()
	if victim == board.NoPieceType {
		victim = board.Pawn
	}
	return pos.PieceAt(m.From()), victim
}

// UpdateQuiet rewards best, which caused a cutoff at ply, and penalises the
// other quiet moves tried before it. best also becomes the newest killer.
func (h *History) UpdateQuiet(c board.Color, ply, depth int, best board.Move, tried []board.Move) {
	h.addKiller(ply, best)
	if len(tried) == 1 && depth < 4 {
		return
	}
	bonus := historyBonus(depth)
	for _, m := range tried {
		delta := -bonus
		if m == best {
			delta = bonus
		}
		gravity(&h.quiet[c][m.From()][m.To()], delta)
	}
}

// UpdateCapture rewards best if it is among tried and penalises the other
// captures tried at a cutoff node. pos must be the node's position.
func (h *History) UpdateCapture(pos *board.Position, depth int, best board.Move, tried []board.Move) {
	bonus := historyBonus(depth)
	for _, m := range tried {
		delta := -bonus
		if m == best {
			delta = bonus
		}
		piece, captured := captureKey(pos, m)
		gravity(&h.capture[piece][m.To()][captured], delta)
	}
}

// Killers returns the two killer moves of ply, newest first.
func (h *History) Killers(ply int) [2]board.Move {
	return h.killers[ply]
}

func (h *History) addKiller(ply int, m board.Move) {
	if h.killers[ply][0] != m {
		h.killers[ply][1] = h.killers[ply][0]
		h.killers[ply][0] = m
	}
}

func (h *History) clearKillers(ply int) {
	h.killers[ply] = [2]board.Move{}
}
