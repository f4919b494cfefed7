package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Bound indicates the type of bound stored in the transposition table.
type Bound uint8

const (
	BoundNone  Bound = iota // Empty slot or key mismatch
	BoundExact              // Score is exact
	BoundLower              // Failed high (beta cutoff)
	BoundUpper              // Failed low
)

// ttEntry is one slot of the table.
type ttEntry struct {
	key   uint64
	move  board.Move
	score int16
	depth int8
	bound Bound
	age   uint8
}

// Probe is what the table knows about a position, usable for a cutoff or
// not. Bound is BoundNone when the key is absent.
type Probe struct {
	Move  board.Move
	Score int
	Depth int
	Bound Bound
}

// TranspositionTable memoizes search results by position key. It belongs to
// one search at a time and is not safe for concurrent use.
type TranspositionTable struct {
	entries []ttEntry
	mask    uint64
	age     uint8
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 16
	n := uint64(max(sizeMB, 1)) * 1024 * 1024 / entrySize
	n = roundDownToPowerOf2(n)
	return &TranspositionTable{
		entries: make([]ttEntry, n),
		mask:    n - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Retrieve looks key up. ok is true only when the stored depth is at least
// depth and the bound settles the [alpha, beta] window: exact always, lower
// when the score reaches beta, upper when it does not exceed alpha. The
// probe is filled whenever the key is present so callers can use the move
// and score as hints.
func (tt *TranspositionTable) Retrieve(key uint64, depth, ply, alpha, beta int) (p Probe, ok bool) {
	e := &tt.entries[key&tt.mask]
	if e.bound == BoundNone || e.key != key {
		return Probe{}, false
	}
	p = Probe{
		Move:  e.move,
		Score: scoreFromTT(int(e.score), ply),
		Depth: int(e.depth),
		Bound: e.bound,
	}
	if p.Depth < depth {
		return p, false
	}
	switch p.Bound {
	case BoundExact:
		ok = true
	case BoundLower:
		ok = p.Score >= beta
	case BoundUpper:
		ok = p.Score <= alpha
	}
	return p, ok
}

// Move returns the stored move for key regardless of depth, NullMove if none.
func (tt *TranspositionTable) Move(key uint64) board.Move {
	e := &tt.entries[key&tt.mask]
	if e.bound == BoundNone || e.key != key {
		return board.NullMove
	}
	return e.move
}

// Save writes a result. An entry from the current generation searched at
// least as deep is kept; anything else is overwritten.
func (tt *TranspositionTable) Save(key uint64, move board.Move, score int, bound Bound, depth, ply int) {
	e := &tt.entries[key&tt.mask]
	if e.bound != BoundNone && e.age == tt.age && int(e.depth) >= depth {
		return
	}
	*e = ttEntry{
		key:   key,
		move:  move,
		score: int16(scoreToTT(score, ply)),
		depth: int8(depth),
		bound: bound,
		age:   tt.age,
	}
}

// Age starts a new search generation. Older entries become preferred victims.
func (tt *TranspositionTable) Age() {
	tt.age++
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.age = 0
}

// HashFull returns the permille of sampled slots holding current entries.
func (tt *TranspositionTable) HashFull() int {
	n := min(1000, len(tt.entries))
	used := 0
	for i := 0; i < n; i++ {
		if tt.entries[i].bound != BoundNone && tt.entries[i].age == tt.age {
			used++
		}
	}
	return used * 1000 / n
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() int {
	return len(tt.entries)
}

// Mate scores are stored relative to the node, not the root.
func scoreToTT(score, ply int) int {
	if score >= mateBound {
		return score + ply
	}
	if score <= -mateBound {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score >= mateBound {
		return score - ply
	}
	if score <= -mateBound {
		return score + ply
	}
	return score
}
