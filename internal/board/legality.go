package board

// Legal reports whether a pseudo-legal move leaves the mover's king safe.
// It never touches the board: the occupancy after the move is simulated
// and the king square re-examined for attackers.
func (p *Position) Legal(m Move) bool {
	us, them := p.side, p.side.Other()
	from, to := m.From(), m.To()
	ksq := p.kings[us]

	occ := p.all&^SquareBB(from) | SquareBB(to)
	removed := SquareBB(to)
	switch {
	case m.IsEnPassant():
		victim := to ^ 8
		occ &^= SquareBB(victim)
		removed = SquareBB(victim)
	case from == ksq:
		ksq = to
	}
	return p.AttackersOf(ksq, them, occ)&^removed == 0
}

// MoveValid is the full check for a move of unknown origin: it must still
// be applicable to this board and must not leave the king in check.
func (p *Position) MoveValid(m Move) bool {
	return p.FastMoveValid(m) && p.Legal(m)
}

// FastMoveValid reports whether m is pseudo-legal here. The search uses it
// on hash and killer moves that were generated for some other position.
func (p *Position) FastMoveValid(m Move) bool {
	if m == NullMove {
		return false
	}
	us := p.side
	from, to := m.From(), m.To()
	mover := p.board[from]
	if mover == NoPiece || mover.Color() != us || from == to {
		return false
	}
	target := p.board[to]
	if target != NoPiece && (target.Color() == us || target.Type() == King) {
		return false
	}

	switch kind := m.Kind(); {
	case kind == Castle:
		if mover.Type() != King {
			return false
		}
		for i := range castlePaths[us] {
			cp := &castlePaths[us][i]
			if cp.kingFrom == from && cp.to == to {
				return p.canCastle(cp)
			}
		}
		return false
	case kind == EnPassant:
		return mover.Type() == Pawn && p.epFile != NoFile && to == p.EnPassantSquare() &&
			p.at.pawn[us][from].Has(to)
	case kind == Capture && target == NoPiece, kind == Quiet && target != NoPiece:
		return false
	}

	if mover.Type() != Pawn {
		return !m.IsPromotion() && p.at.PieceAttacks(mover.Type(), us, from, p.all).Has(to)
	}

	if m.IsPromotion() != lastRank[us].Has(to) {
		return false
	}
	if target != NoPiece {
		return p.at.pawn[us][from].Has(to)
	}
	delta := pushDelta(us)
	switch int(to) - int(from) {
	case delta:
		return true
	case 2 * delta:
		mid := Square(int(from) + delta)
		return thirdRank[us].Has(mid) && p.board[mid] == NoPiece
	}
	return false
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GeneratePseudoLegal(&ml)
	for _, m := range ml.Slice() {
		if p.Legal(m) {
			return true
		}
	}
	return false
}

func (p *Position) IsCheckmate() bool { return p.checkers != 0 && !p.HasLegalMoves() }
func (p *Position) IsStalemate() bool { return p.checkers == 0 && !p.HasLegalMoves() }
