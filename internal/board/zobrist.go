package board

// zobristKeys are fixed for the life of the process so hashes are
// reproducible across runs (the analysis store relies on it).
type zobristKeys struct {
	piece     [13][64]uint64 // NoPiece row stays zero
	enPassant [8]uint64
	castling  [16]uint64
	side      uint64
}

var zobrist = newZobristKeys(0x98F107A2BEEF1234)

// xorshift64*
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// sparse returns a value with roughly an eighth of its bits set, the shape
// magic multipliers want.
func (p *prng) sparse() uint64 {
	return p.next() & p.next() & p.next()
}

func newZobristKeys(seed uint64) *zobristKeys {
	rng := &prng{state: seed}
	z := &zobristKeys{}
	for pc := WhitePawn; pc < NoPiece; pc++ {
		for sq := A1; sq <= H8; sq++ {
			z.piece[pc][sq] = rng.next()
		}
	}
	for f := range z.enPassant {
		z.enPassant[f] = rng.next()
	}
	for i := range z.castling {
		z.castling[i] = rng.next()
	}
	z.side = rng.next()
	return z
}
