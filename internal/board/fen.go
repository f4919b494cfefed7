package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN wraps every FEN parsing failure.
var ErrInvalidFEN = errors.New("invalid FEN")

func fenError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFEN, fmt.Sprintf(format, args...))
}

// ParseFEN builds a position using the shared attack tables. The move
// counters are optional.
func ParseFEN(fen string) (*Position, error) {
	return ParseFENWith(DefaultAttacks(), fen)
}

// ParseFENWith builds a position that uses the given attack tables.
func ParseFENWith(at *Attacks, fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return nil, fenError("expected 4 to 6 fields, got %d", len(fields))
	}
	p := newEmptyPosition(at)

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fenError("expected 8 ranks, got %d", len(ranks))
	}
	for i, row := range ranks {
		rank, file := 7-i, 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			pc := PieceFromChar(c)
			if pc == NoPiece {
				return nil, fenError("bad piece %q", c)
			}
			if file > 7 {
				return nil, fenError("rank %d overflows", rank+1)
			}
			p.put(pc, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return nil, fenError("rank %d has %d squares", rank+1, file)
		}
	}
	for c := White; c <= Black; c++ {
		if p.pieces[c][King].PopCount() != 1 {
			return nil, fenError("%s must have exactly one king", c)
		}
	}
	if (p.pieces[White][Pawn]|p.pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return nil, fenError("pawn on first or last rank")
	}

	switch fields[1] {
	case "w":
		p.side = White
	case "b":
		p.side = Black
	default:
		return nil, fenError("bad side to move %q", fields[1])
	}
	if p.IsAttacked(p.kings[p.side.Other()], p.side) {
		return nil, fenError("side not to move is in check")
	}

	if fields[2] != "-" {
		for _, c := range fields[2] {
			i := strings.IndexRune("KQkq", c)
			if i < 0 {
				return nil, fenError("bad castling field %q", fields[2])
			}
			p.castling |= 1 << i
		}
	}
	// keep only rights whose king and rook are still at home
	for sq, home := range map[Square]Piece{E1: WhiteKing, H1: WhiteRook, A1: WhiteRook, E8: BlackKing, H8: BlackRook, A8: BlackRook} {
		if p.board[sq] != home {
			p.castling &= castleKeep[sq]
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil || sq.RelativeRank(p.side) != 5 {
			return nil, fenError("bad en-passant square %q", fields[3])
		}
		if p.board[sq^8] == NewPiece(Pawn, p.side.Other()) {
			p.epFile = uint8(sq.File())
		}
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fenError("bad half-move clock %q", fields[4])
		}
		p.halfMove = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, fenError("bad move number %q", fields[5])
		}
		p.fullMove = n
	}

	p.hash = p.ComputeHash()
	p.pawnHash = p.ComputePawnHash()
	p.updateCheckers()
	return p, nil
}

// MustParseFEN is ParseFEN for known-good literals; it panics on error.
func MustParseFEN(fen string) *Position {
	p, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return p
}

// FEN renders the position in Forsyth-Edwards notation.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if p.side == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, p.castling, p.EnPassantSquare(), p.halfMove, p.fullMove)
	return sb.String()
}
