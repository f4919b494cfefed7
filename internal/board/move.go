package board

import (
	"errors"
	"fmt"
)

// Move packs a move into 16 bits:
//
//	bits 0-5   from square
//	bits 6-11  to square
//	bits 12-14 kind
//
// The zero value is NullMove; no real move has from == to.
type Move uint16

// MoveKind tags how a move changes the board.
type MoveKind uint8

const (
	Quiet MoveKind = iota
	Capture
	EnPassant
	Castle
	PromoteKnight
	PromoteBishop
	PromoteRook
	PromoteQueen
)

// NullMove stands for "no move" and for the pass used by null-move pruning.
const NullMove Move = 0

// ErrIllegalMove is returned when a move string does not name a legal move.
var ErrIllegalMove = errors.New("illegal move")

// NewMove builds a move of the given kind.
func NewMove(from, to Square, kind MoveKind) Move {
	return Move(from) | Move(to)<<6 | Move(kind)<<12
}

// NewPromotion builds a promotion to pt. A capturing promotion is still a
// promotion kind; Make finds the victim on the board.
func NewPromotion(from, to Square, pt PieceType) Move {
	return NewMove(from, to, PromoteKnight+MoveKind(pt-Knight))
}

func (m Move) From() Square   { return Square(m & 0x3F) }
func (m Move) To() Square     { return Square((m >> 6) & 0x3F) }
func (m Move) Kind() MoveKind { return MoveKind(m >> 12) }

func (m Move) IsPromotion() bool { return m.Kind() >= PromoteKnight }
func (m Move) IsEnPassant() bool { return m.Kind() == EnPassant }
func (m Move) IsCastle() bool    { return m.Kind() == Castle }

// Promotion returns the piece a promotion turns into, NoPieceType otherwise.
func (m Move) Promotion() PieceType {
	if !m.IsPromotion() {
		return NoPieceType
	}
	return Knight + PieceType(m.Kind()-PromoteKnight)
}

// String returns the UCI long-algebraic form, "0000" for NullMove.
func (m Move) String() string {
	if m == NullMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("nbrq"[m.Promotion()-Knight])
	}
	return s
}

// ParseMove resolves a UCI move string against the legal moves of p.
func (p *Position) ParseMove(s string) (Move, error) {
	var list MoveList
	p.GenerateLegal(&list)
	for _, m := range list.Slice() {
		if m.String() == s {
			return m, nil
		}
	}
	return NullMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

// MaxMoves bounds the number of pseudo-legal moves in any position.
const MaxMoves = 256

// MoveList is a fixed-capacity move buffer that lives on the stack.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

func (ml *MoveList) Len() int          { return ml.count }
func (ml *MoveList) Get(i int) Move    { return ml.moves[i] }
func (ml *MoveList) Swap(i, j int)     { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }
func (ml *MoveList) Clear()            { ml.count = 0 }
func (ml *MoveList) Slice() []Move     { return ml.moves[:ml.count] }
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }
func (ml *MoveList) Truncate(n int)    { ml.count = n }

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}
