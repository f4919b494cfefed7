package board

import (
	"fmt"
	"strings"
)

// SAN renders a legal move in Standard Algebraic Notation, including the
// check and mate suffixes. The position is left unchanged.
func (p *Position) SAN(m Move) string {
	if m == NullMove {
		return "--"
	}
	from, to := m.From(), m.To()
	pt := p.board[from].Type()
	if pt == NoPieceType {
		return m.String()
	}

	var sb strings.Builder
	switch {
	case m.IsCastle() && to > from:
		sb.WriteString("O-O")
	case m.IsCastle():
		sb.WriteString("O-O-O")
	default:
		capture := p.board[to] != NoPiece || m.IsEnPassant()
		if pt == Pawn {
			if capture {
				sb.WriteByte(byte('a' + from.File()))
			}
		} else {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(p.disambiguate(m, pt))
		}
		if capture {
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion()])
		}
	}

	u := p.Make(m)
	if p.checkers != 0 {
		if p.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	p.Unmake(u)
	return sb.String()
}

// disambiguate returns the file, rank or square needed to tell m apart from
// other legal moves of the same piece type to the same square.
func (p *Position) disambiguate(m Move, pt PieceType) string {
	from, to := m.From(), m.To()
	var ml MoveList
	p.GenerateLegal(&ml)

	ambiguous, sameFile, sameRank := false, false, false
	for _, other := range ml.Slice() {
		if other.To() != to || other.From() == from || p.board[other.From()].Type() != pt {
			continue
		}
		ambiguous = true
		sameFile = sameFile || other.From().File() == from.File()
		sameRank = sameRank || other.From().Rank() == from.Rank()
	}
	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	}
	return from.String()
}

// ParseSAN resolves a SAN string against the legal moves of p. Check and
// annotation suffixes are ignored; "0-0" is accepted for castling.
func (p *Position) ParseSAN(s string) (Move, error) {
	orig := s
	s = strings.TrimRight(strings.TrimSpace(s), "+#!?")

	var ml MoveList
	p.GenerateLegal(&ml)

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		long := len(s) == 5
		for _, m := range ml.Slice() {
			if m.IsCastle() && (m.To() < m.From()) == long {
				return m, nil
			}
		}
		return NullMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}

	promo := NoPieceType
	if i := strings.IndexByte(s, '='); i >= 0 && i+1 < len(s) {
		promo = pieceTypeFromSAN(s[i+1])
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if s != "" && s[0] >= 'A' && s[0] <= 'Z' {
		pt = pieceTypeFromSAN(s[0])
		s = s[1:]
	}
	if pt == NoPieceType || len(s) < 2 {
		return NullMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NullMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}

	file, rank := -1, -1
	for _, c := range s[:len(s)-2] {
		switch {
		case c >= 'a' && c <= 'h':
			file = int(c - 'a')
		case c >= '1' && c <= '8':
			rank = int(c - '1')
		}
	}

	for _, m := range ml.Slice() {
		from := m.From()
		switch {
		case m.To() != dest, p.board[from].Type() != pt, m.IsCastle():
		case file >= 0 && from.File() != file, rank >= 0 && from.Rank() != rank:
		case pt == Pawn && file < 0 && from.File() != dest.File():
		case m.Promotion() != promo:
		default:
			return m, nil
		}
	}
	return NullMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
}

func pieceTypeFromSAN(c byte) PieceType {
	switch c {
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	case 'K':
		return King
	}
	return NoPieceType
}

// MovesToSAN converts a line of legal moves played from p.
func (p *Position) MovesToSAN(moves []Move) []string {
	out := make([]string, len(moves))
	undo := make([]Undo, 0, len(moves))
	for i, m := range moves {
		out[i] = p.SAN(m)
		undo = append(undo, p.Make(m))
	}
	for i := len(undo) - 1; i >= 0; i-- {
		p.Unmake(undo[i])
	}
	return out
}
