package board

import "fmt"

// Undo is everything Make overwrites that cannot be recovered by running
// the move backwards. Callers keep Undo values on their own stack and hand
// them back to Unmake in strict reverse order.
type Undo struct {
	move     Move
	captured Piece
	castling CastlingRights
	epFile   uint8
	halfMove int
	ply      int
	hash     uint64
	pawnHash uint64
	checkers Bitboard
}

// Move returns the move this record reverses.
func (u *Undo) Move() Move { return u.move }

// Captured returns the piece the move removed, NoPiece for none.
func (u *Undo) Captured() Piece { return u.captured }

// rookCastle maps a castling king destination to the rook's from/to squares.
func rookCastle(kingTo Square) (Square, Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// Make applies a pseudo-legal move in constant time. It does not check
// that the mover's king is safe afterwards; see MoveValid.
func (p *Position) Make(m Move) Undo {
	u := Undo{
		move:     m,
		captured: NoPiece,
		castling: p.castling,
		epFile:   p.epFile,
		halfMove: p.halfMove,
		ply:      p.ply,
		hash:     p.hash,
		pawnHash: p.pawnHash,
		checkers: p.checkers,
	}
	p.history = append(p.history, p.hash)

	us := p.side
	from, to := m.From(), m.To()
	mover := p.board[from]

	if p.epFile != NoFile {
		p.hash ^= zobrist.enPassant[p.epFile]
		p.epFile = NoFile
	}
	p.halfMove++

	switch m.Kind() {
	case Quiet:
		p.shiftPiece(from, to)
	case Capture:
		u.captured = p.removePiece(to)
		p.shiftPiece(from, to)
	case EnPassant:
		// the captured pawn sits beside the mover, behind the landing square
		u.captured = p.removePiece(to ^ 8)
		p.shiftPiece(from, to)
	case Castle:
		p.shiftPiece(from, to)
		rookFrom, rookTo := rookCastle(to)
		p.shiftPiece(rookFrom, rookTo)
	default:
		if p.board[to] != NoPiece {
			u.captured = p.removePiece(to)
		}
		p.removePiece(from)
		p.putPiece(NewPiece(m.Promotion(), us), to)
	}

	if u.captured != NoPiece || mover.Type() == Pawn {
		p.halfMove = 0
		if mover.Type() == Pawn && (from^to) == 16 {
			p.epFile = uint8(from.File())
			p.hash ^= zobrist.enPassant[p.epFile]
		}
	}

	if rights := p.castling & castleKeep[from] & castleKeep[to]; rights != p.castling {
		p.hash ^= zobrist.castling[p.castling] ^ zobrist.castling[rights]
		p.castling = rights
	}

	p.side = us.Other()
	p.hash ^= zobrist.side
	if us == Black {
		p.fullMove++
	}
	p.ply++
	p.updateCheckers()

	if debugChecks {
		if err := p.Validate(); err != nil {
			panic(fmt.Sprintf("make %s: %v", m, err))
		}
	}
	return u
}

// MakeNull passes the turn. The previous position's en-passant right is
// dropped, as it would be by any real move.
func (p *Position) MakeNull() Undo {
	u := Undo{
		move:     NullMove,
		captured: NoPiece,
		castling: p.castling,
		epFile:   p.epFile,
		halfMove: p.halfMove,
		ply:      p.ply,
		hash:     p.hash,
		pawnHash: p.pawnHash,
		checkers: p.checkers,
	}
	p.history = append(p.history, p.hash)
	if p.epFile != NoFile {
		p.hash ^= zobrist.enPassant[p.epFile]
		p.epFile = NoFile
	}
	p.halfMove++
	p.side = p.side.Other()
	p.hash ^= zobrist.side
	p.ply++
	p.updateCheckers()
	return u
}

// Unmake reverses the most recent Make or MakeNull.
func (p *Position) Unmake(u Undo) {
	if debugChecks && u.ply+1 != p.ply {
		panic(fmt.Sprintf("unmake %s out of order: record ply %d, position ply %d", u.move, u.ply, p.ply))
	}

	p.side = p.side.Other()
	us := p.side
	m := u.move
	from, to := m.From(), m.To()

	switch {
	case m == NullMove:
	case m.Kind() == Quiet || m.Kind() == Capture:
		p.slide(to, from)
		if u.captured != NoPiece {
			p.put(u.captured, to)
		}
	case m.Kind() == EnPassant:
		p.slide(to, from)
		p.put(u.captured, to^8)
	case m.Kind() == Castle:
		p.slide(to, from)
		rookFrom, rookTo := rookCastle(to)
		p.slide(rookTo, rookFrom)
	default:
		p.lift(to)
		p.put(NewPiece(Pawn, us), from)
		if u.captured != NoPiece {
			p.put(u.captured, to)
		}
	}

	if m != NullMove && us == Black {
		p.fullMove--
	}
	p.castling = u.castling
	p.epFile = u.epFile
	p.halfMove = u.halfMove
	p.ply = u.ply
	p.hash = u.hash
	p.pawnHash = u.pawnHash
	p.checkers = u.checkers
	p.history = p.history[:len(p.history)-1]

	if debugChecks {
		if err := p.Validate(); err != nil {
			panic(fmt.Sprintf("unmake %s: %v", m, err))
		}
	}
}
