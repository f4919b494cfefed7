package board

// magic maps the relevant blockers of one square to its slot in the shared
// attack table: table[offset + ((occ&mask)*mult)>>shift].
type magic struct {
	mask   Bitboard
	mult   uint64
	shift  uint8
	offset uint32
}

func (m *magic) index(occ Bitboard) uint32 {
	return m.offset + uint32((uint64(occ&m.mask)*m.mult)>>m.shift)
}

// Candidate multipliers tried first. Each is checked against every blocker
// subset while the table is filled; a failing one is replaced by search.
var bishopMagicSeeds = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMagicSeeds = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

const (
	bishopTableSize = 5248
	rookTableSize   = 102400
)

// slider computes attacks by ray casting. It fills the magic tables and
// serves as the reference the lookups are tested against.
type slider func(sq Square, occ Bitboard) Bitboard

var (
	bishopDirs = [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	rookDirs   = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

func rayAttacks(sq Square, occ Bitboard, dirs [4][2]int) Bitboard {
	var out Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d[0], sq.Rank()+d[1]
		for f >= 0 && f < 8 && r >= 0 && r < 8 {
			s := NewSquare(f, r)
			out |= SquareBB(s)
			if occ.Has(s) {
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return out
}

func bishopRays(sq Square, occ Bitboard) Bitboard { return rayAttacks(sq, occ, bishopDirs) }
func rookRays(sq Square, occ Bitboard) Bitboard   { return rayAttacks(sq, occ, rookDirs) }

// relevantMask drops board edges that cannot change the attack set, except
// those on the piece's own file or rank.
func relevantMask(sq Square, rays slider) Bitboard {
	edges := ((Rank1 | Rank8) &^ RankMask[sq.Rank()]) | ((FileA | FileH) &^ FileMask[sq.File()])
	return rays(sq, Empty) &^ edges
}

// subset returns the index-th blocker subset of mask (carry-rippler order).
func subset(index int, mask Bitboard) Bitboard {
	var occ Bitboard
	for i := 0; mask != 0; i++ {
		sq := mask.PopLSB()
		if index&(1<<i) != 0 {
			occ |= SquareBB(sq)
		}
	}
	return occ
}

// buildMagics fills table[base:] for all 64 squares and returns the next
// free offset.
func buildMagics(magics *[64]magic, table []Bitboard, base uint32, seeds *[64]uint64, rays slider, rng *prng) uint32 {
	offset := base
	for sq := A1; sq <= H8; sq++ {
		mask := relevantMask(sq, rays)
		bits := mask.PopCount()
		size := 1 << bits

		occs := make([]Bitboard, size)
		atts := make([]Bitboard, size)
		for i := 0; i < size; i++ {
			occs[i] = subset(i, mask)
			atts[i] = rays(sq, occs[i])
		}

		m := magic{mask: mask, shift: uint8(64 - bits), offset: offset}
		slots := table[offset : offset+uint32(size)]
		for m.mult = seeds[sq]; !tryMagic(&m, slots, occs, atts); m.mult = nextCandidate(rng, mask) {
		}
		magics[sq] = m
		offset += uint32(size)
	}
	return offset
}

func nextCandidate(rng *prng, mask Bitboard) uint64 {
	for {
		c := rng.sparse()
		if Bitboard((uint64(mask)*c)&0xFF00000000000000).PopCount() >= 6 {
			return c
		}
	}
}

// tryMagic fills slots with m and reports whether no two subsets with
// different attack sets collide. Slider attacks are never empty, so a zero
// slot is free.
func tryMagic(m *magic, slots, occs, atts []Bitboard) bool {
	clear(slots)
	for i, occ := range occs {
		idx := (uint64(occ) * m.mult) >> m.shift
		switch slots[idx] {
		case Empty:
			slots[idx] = atts[i]
		case atts[i]:
		default:
			return false
		}
	}
	return true
}
