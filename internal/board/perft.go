package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
// Leaves at depth 1 are counted without being made.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	var ml MoveList
	p.GenerateLegal(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for _, m := range ml.Slice() {
		u := p.Make(m)
		nodes += p.Perft(depth - 1)
		p.Unmake(u)
	}
	return nodes
}
