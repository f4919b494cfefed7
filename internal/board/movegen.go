package board

// Generation is pseudo-legal: moves respect piece movement, occupancy and
// castling rules, but only evasion king moves are checked for safety.
// Filter with Legal (or MoveValid for moves from elsewhere) before trusting.

// lastRank is the promotion rank of each colour.
var lastRank = [2]Bitboard{Rank8, Rank1}

// thirdRank holds the squares single pushes from the start rank land on.
var thirdRank = [2]Bitboard{Rank3, Rank6}

func pushDelta(c Color) int {
	if c == White {
		return 8
	}
	return -8
}

// GeneratePseudoLegal fills ml with evasions when in check, otherwise with
// captures followed by quiet moves.
func (p *Position) GeneratePseudoLegal(ml *MoveList) {
	if p.checkers != 0 {
		p.GenerateEvasions(ml)
		return
	}
	p.GenerateCaptures(ml)
	p.GenerateQuiets(ml)
}

// GenerateLegal fills ml with the legal moves only.
func (p *Position) GenerateLegal(ml *MoveList) {
	p.GeneratePseudoLegal(ml)
	n := 0
	for i := 0; i < ml.Len(); i++ {
		if m := ml.Get(i); p.Legal(m) {
			ml.Set(n, m)
			n++
		}
	}
	ml.Truncate(n)
}

// GenerateEvasions adds the replies to a check. A single checker can be
// captured, blocked or escaped from; a double check only by a king move.
func (p *Position) GenerateEvasions(ml *MoveList) {
	us, them := p.side, p.side.Other()
	ksq := p.kings[us]

	without := p.all &^ SquareBB(ksq)
	for tos := p.at.king[ksq] &^ p.occupied[us]; tos != 0; {
		to := tos.PopLSB()
		if p.AttackersOf(to, them, without) == 0 {
			p.addMove(ml, ksq, to)
		}
	}

	if p.checkers.Several() {
		return
	}
	checker := p.checkers
	block := p.at.between[ksq][checker.LSB()]

	p.pawnCaptures(ml, checker)
	p.pawnPushes(ml, block, true, true)
	p.enPassant(ml, block, checker)
	p.pieceMoves(ml, checker|block, false)
}

// GenerateCaptures adds captures, straight promotions and en passant.
func (p *Position) GenerateCaptures(ml *MoveList) {
	enemy := p.occupied[p.side.Other()]
	p.pawnCaptures(ml, enemy)
	p.pawnPushes(ml, ^p.all, true, false)
	p.enPassant(ml, Universe, Universe)
	p.pieceMoves(ml, enemy, true)
}

// GenerateQuiets adds non-promoting pushes, castling and quiet piece moves.
func (p *Position) GenerateQuiets(ml *MoveList) {
	p.pawnPushes(ml, ^p.all, false, true)
	p.castleMoves(ml)
	p.pieceMoves(ml, ^p.all, true)
}

func (p *Position) addMove(ml *MoveList, from, to Square) {
	if p.board[to] != NoPiece {
		ml.Add(NewMove(from, to, Capture))
	} else {
		ml.Add(NewMove(from, to, Quiet))
	}
}

func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Knight))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
}

// pieceMoves adds knight, bishop, rook and queen moves (and king moves when
// withKing) whose destination is in targets.
func (p *Position) pieceMoves(ml *MoveList, targets Bitboard, withKing bool) {
	us := p.side
	targets &^= p.occupied[us]
	for pt := Knight; pt <= Queen; pt++ {
		for bb := p.pieces[us][pt]; bb != 0; {
			from := bb.PopLSB()
			for tos := p.at.PieceAttacks(pt, us, from, p.all) & targets; tos != 0; {
				p.addMove(ml, from, tos.PopLSB())
			}
		}
	}
	if withKing {
		ksq := p.kings[us]
		for tos := p.at.king[ksq] & targets; tos != 0; {
			p.addMove(ml, ksq, tos.PopLSB())
		}
	}
}

// pawnCaptures adds diagonal pawn captures onto targets, promoting on the
// last rank.
func (p *Position) pawnCaptures(ml *MoveList, targets Bitboard) {
	us := p.side
	targets &= p.occupied[us.Other()]
	for pawns := p.pieces[us][Pawn]; pawns != 0; {
		from := pawns.PopLSB()
		for tos := p.at.pawn[us][from] & targets; tos != 0; {
			to := tos.PopLSB()
			if lastRank[us].Has(to) {
				addPromotions(ml, from, to)
			} else {
				ml.Add(NewMove(from, to, Capture))
			}
		}
	}
}

// pawnPushes adds single and double pushes landing on empty squares in
// targets. promos selects pushes to the last rank, plain all others.
func (p *Position) pawnPushes(ml *MoveList, targets Bitboard, promos, plain bool) {
	us := p.side
	empty := ^p.all
	delta := pushDelta(us)

	single := p.pieces[us][Pawn].Forward(us) & empty
	double := (single & thirdRank[us]).Forward(us) & empty & targets
	single &= targets

	if promos {
		for tos := single & lastRank[us]; tos != 0; {
			to := tos.PopLSB()
			addPromotions(ml, Square(int(to)-delta), to)
		}
	}
	if !plain {
		return
	}
	for tos := single &^ lastRank[us]; tos != 0; {
		to := tos.PopLSB()
		ml.Add(NewMove(Square(int(to)-delta), to, Quiet))
	}
	for double != 0 {
		to := double.PopLSB()
		ml.Add(NewMove(Square(int(to)-2*delta), to, Quiet))
	}
}

// enPassant adds en-passant captures when the landing square is in landing
// or the captured pawn's square is in victims.
func (p *Position) enPassant(ml *MoveList, landing, victims Bitboard) {
	if p.epFile == NoFile {
		return
	}
	us := p.side
	to := p.EnPassantSquare()
	if !landing.Has(to) && !victims.Has(to^8) {
		return
	}
	for from := p.at.pawn[us.Other()][to] & p.pieces[us][Pawn]; from != 0; {
		ml.Add(NewMove(from.PopLSB(), to, EnPassant))
	}
}

// castlePath describes one castling option.
type castlePath struct {
	right          CastlingRights
	kingFrom, to   Square
	empty, transit Bitboard
}

var castlePaths = [2][2]castlePath{
	{
		{WhiteKingSide, E1, G1, SquareBB(F1) | SquareBB(G1), SquareBB(F1) | SquareBB(G1)},
		{WhiteQueenSide, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), SquareBB(D1) | SquareBB(C1)},
	},
	{
		{BlackKingSide, E8, G8, SquareBB(F8) | SquareBB(G8), SquareBB(F8) | SquareBB(G8)},
		{BlackQueenSide, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), SquareBB(D8) | SquareBB(C8)},
	},
}

// canCastle checks rights, empty squares between king and rook, and that
// the king neither starts on nor crosses an attacked square.
func (p *Position) canCastle(cp *castlePath) bool {
	if p.castling&cp.right == 0 || p.all&cp.empty != 0 || p.checkers != 0 {
		return false
	}
	them := p.side.Other()
	for t := cp.transit; t != 0; {
		if p.IsAttacked(t.PopLSB(), them) {
			return false
		}
	}
	return true
}

func (p *Position) castleMoves(ml *MoveList) {
	for i := range castlePaths[p.side] {
		cp := &castlePaths[p.side][i]
		if p.canCastle(cp) {
			ml.Add(NewMove(cp.kingFrom, cp.to, Castle))
		}
	}
}
