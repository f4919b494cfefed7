package board

import "sync"

// Attacks holds the precomputed attack sets. It is immutable once built and
// safe to share between positions and goroutines.
type Attacks struct {
	knight  [64]Bitboard
	king    [64]Bitboard
	pawn    [2][64]Bitboard
	between [64][64]Bitboard
	line    [64][64]Bitboard

	bishop [64]magic
	rook   [64]magic
	table  []Bitboard
}

var (
	defaultAttacks     *Attacks
	defaultAttacksOnce sync.Once
)

// DefaultAttacks returns the process-wide tables, building them on first use.
func DefaultAttacks() *Attacks {
	defaultAttacksOnce.Do(func() {
		defaultAttacks = NewAttacks()
	})
	return defaultAttacks
}

// NewAttacks builds a fresh set of tables.
func NewAttacks() *Attacks {
	a := &Attacks{table: make([]Bitboard, bishopTableSize+rookTableSize)}

	knightSteps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps := [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	for sq := A1; sq <= H8; sq++ {
		a.knight[sq] = stepAttacks(sq, knightSteps[:])
		a.king[sq] = stepAttacks(sq, kingSteps[:])
		bb := SquareBB(sq)
		a.pawn[White][sq] = bb.NorthEast() | bb.NorthWest()
		a.pawn[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}

	rng := &prng{state: 0x6A09E667F3BCC909}
	next := buildMagics(&a.bishop, a.table, 0, &bishopMagicSeeds, bishopRays, rng)
	buildMagics(&a.rook, a.table, next, &rookMagicSeeds, rookRays, rng)

	for s1 := A1; s1 <= H8; s1++ {
		for _, rays := range []slider{bishopRays, rookRays} {
			reach := rays(s1, Empty)
			for s2 := A1; s2 <= H8; s2++ {
				if !reach.Has(s2) {
					continue
				}
				a.line[s1][s2] = (reach & rays(s2, Empty)) | SquareBB(s1) | SquareBB(s2)
				a.between[s1][s2] = rays(s1, SquareBB(s2)) & rays(s2, SquareBB(s1))
			}
		}
	}
	return a
}

func stepAttacks(sq Square, steps [][2]int) Bitboard {
	var out Bitboard
	for _, d := range steps {
		f, r := sq.File()+d[0], sq.Rank()+d[1]
		if f >= 0 && f < 8 && r >= 0 && r < 8 {
			out |= SquareBB(NewSquare(f, r))
		}
	}
	return out
}

func (a *Attacks) Knight(sq Square) Bitboard { return a.knight[sq] }
func (a *Attacks) King(sq Square) Bitboard   { return a.king[sq] }

// Pawn returns the squares a pawn of colour c on sq attacks.
func (a *Attacks) Pawn(c Color, sq Square) Bitboard { return a.pawn[c][sq] }

func (a *Attacks) Bishop(sq Square, occ Bitboard) Bitboard {
	return a.table[a.bishop[sq].index(occ)]
}

func (a *Attacks) Rook(sq Square, occ Bitboard) Bitboard {
	return a.table[a.rook[sq].index(occ)]
}

func (a *Attacks) Queen(sq Square, occ Bitboard) Bitboard {
	return a.Bishop(sq, occ) | a.Rook(sq, occ)
}

// Between returns the squares strictly between two aligned squares, or
// Empty when they do not share a rank, file or diagonal.
func (a *Attacks) Between(s1, s2 Square) Bitboard { return a.between[s1][s2] }

// Line returns the full edge-to-edge line through two aligned squares.
func (a *Attacks) Line(s1, s2 Square) Bitboard { return a.line[s1][s2] }

// PieceAttacks returns the attack set of a piece of type pt and colour c.
func (a *Attacks) PieceAttacks(pt PieceType, c Color, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return a.pawn[c][sq]
	case Knight:
		return a.knight[sq]
	case Bishop:
		return a.Bishop(sq, occ)
	case Rook:
		return a.Rook(sq, occ)
	case Queen:
		return a.Queen(sq, occ)
	case King:
		return a.king[sq]
	}
	return Empty
}
