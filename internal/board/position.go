package board

import (
	"fmt"
	"strings"
)

// CastlingRights holds the four castling flags.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// castleKeep[sq] is ANDed into the rights whenever a move touches sq.
var castleKeep = func() (keep [64]CastlingRights) {
	for sq := range keep {
		keep[sq] = AllCastling
	}
	keep[E1] &^= WhiteKingSide | WhiteQueenSide
	keep[H1] &^= WhiteKingSide
	keep[A1] &^= WhiteQueenSide
	keep[E8] &^= BlackKingSide | BlackQueenSide
	keep[H8] &^= BlackKingSide
	keep[A8] &^= BlackQueenSide
	return keep
}()

// Position is the mutable board state driven by the search. Placement is
// kept twice, as bitboards and as a piece-at-square array; both views are
// only ever changed together through putPiece, removePiece and shiftPiece.
type Position struct {
	at *Attacks

	pieces   [2][6]Bitboard
	board    [64]Piece
	occupied [2]Bitboard
	all      Bitboard

	side     Color
	castling CastlingRights
	epFile   uint8
	hash     uint64
	pawnHash uint64
	kings    [2]Square
	checkers Bitboard

	halfMove int
	fullMove int
	ply      int

	// history[i] is the hash of the position after i moves.
	history []uint64
}

func newEmptyPosition(at *Attacks) *Position {
	p := &Position{
		at:       at,
		epFile:   NoFile,
		fullMove: 1,
		kings:    [2]Square{NoSquare, NoSquare},
		history:  make([]uint64, 0, 256),
	}
	for sq := range p.board {
		p.board[sq] = NoPiece
	}
	return p
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// Copy returns an independent copy sharing only the read-only attack tables.
func (p *Position) Copy() *Position {
	c := *p
	c.history = append(make([]uint64, 0, cap(p.history)), p.history...)
	return &c
}

func (p *Position) Attacks() *Attacks                    { return p.at }
func (p *Position) Pieces(c Color, pt PieceType) Bitboard { return p.pieces[c][pt] }
func (p *Position) PieceAt(sq Square) Piece              { return p.board[sq] }
func (p *Position) Occupied(c Color) Bitboard            { return p.occupied[c] }
func (p *Position) AllOccupied() Bitboard                { return p.all }
func (p *Position) SideToMove() Color                    { return p.side }
func (p *Position) Castling() CastlingRights             { return p.castling }
func (p *Position) Hash() uint64                         { return p.hash }
func (p *Position) PawnHash() uint64                     { return p.pawnHash }
func (p *Position) KingSquare(c Color) Square            { return p.kings[c] }
func (p *Position) Checkers() Bitboard                   { return p.checkers }
func (p *Position) InCheck() bool                        { return p.checkers != 0 }
func (p *Position) HalfMoveClock() int                   { return p.halfMove }
func (p *Position) FullMoveNumber() int                  { return p.fullMove }

// Ply counts the moves made since the position was set up.
func (p *Position) Ply() int { return p.ply }

// EnPassantFile returns 0-7, or NoFile when no en-passant capture is possible.
func (p *Position) EnPassantFile() int { return int(p.epFile) }

// EnPassantSquare returns the square a capturing pawn would land on.
func (p *Position) EnPassantSquare() Square {
	if p.epFile == NoFile {
		return NoSquare
	}
	if p.side == White {
		return NewSquare(int(p.epFile), 5)
	}
	return NewSquare(int(p.epFile), 2)
}

// put, lift and slide change placement without touching the hash. Make
// uses the hashed wrappers below; Unmake restores the saved hash instead.
func (p *Position) put(pc Piece, sq Square) {
	bb := SquareBB(sq)
	c, pt := pc.Color(), pc.Type()
	p.pieces[c][pt] |= bb
	p.occupied[c] |= bb
	p.all |= bb
	p.board[sq] = pc
	if pt == King {
		p.kings[c] = sq
	}
}

func (p *Position) lift(sq Square) Piece {
	pc := p.board[sq]
	bb := SquareBB(sq)
	c := pc.Color()
	p.pieces[c][pc.Type()] &^= bb
	p.occupied[c] &^= bb
	p.all &^= bb
	p.board[sq] = NoPiece
	return pc
}

func (p *Position) slide(from, to Square) {
	pc := p.board[from]
	bb := SquareBB(from) | SquareBB(to)
	c, pt := pc.Color(), pc.Type()
	p.pieces[c][pt] ^= bb
	p.occupied[c] ^= bb
	p.all ^= bb
	p.board[from] = NoPiece
	p.board[to] = pc
	if pt == King {
		p.kings[c] = to
	}
}

func (p *Position) putPiece(pc Piece, sq Square) {
	p.put(pc, sq)
	p.hash ^= zobrist.piece[pc][sq]
	if pc.Type() == Pawn {
		p.pawnHash ^= zobrist.piece[pc][sq]
	}
}

func (p *Position) removePiece(sq Square) Piece {
	pc := p.lift(sq)
	p.hash ^= zobrist.piece[pc][sq]
	if pc.Type() == Pawn {
		p.pawnHash ^= zobrist.piece[pc][sq]
	}
	return pc
}

func (p *Position) shiftPiece(from, to Square) {
	pc := p.board[from]
	p.slide(from, to)
	k := zobrist.piece[pc][from] ^ zobrist.piece[pc][to]
	p.hash ^= k
	if pc.Type() == Pawn {
		p.pawnHash ^= k
	}
}

// AttackersOf returns the pieces of colour by attacking sq given occupancy occ.
func (p *Position) AttackersOf(sq Square, by Color, occ Bitboard) Bitboard {
	at := p.at
	queens := p.pieces[by][Queen]
	return at.pawn[by.Other()][sq]&p.pieces[by][Pawn] |
		at.knight[sq]&p.pieces[by][Knight] |
		at.king[sq]&p.pieces[by][King] |
		at.Bishop(sq, occ)&(p.pieces[by][Bishop]|queens) |
		at.Rook(sq, occ)&(p.pieces[by][Rook]|queens)
}

// IsAttacked reports whether colour by attacks sq on the current board.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	return p.AttackersOf(sq, by, p.all) != 0
}

func (p *Position) updateCheckers() {
	p.checkers = p.AttackersOf(p.kings[p.side], p.side.Other(), p.all)
}

// ComputeHash recomputes the position key from scratch.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for sq := A1; sq <= H8; sq++ {
		h ^= zobrist.piece[p.board[sq]][sq]
	}
	h ^= zobrist.castling[p.castling]
	if p.epFile != NoFile {
		h ^= zobrist.enPassant[p.epFile]
	}
	if p.side == Black {
		h ^= zobrist.side
	}
	return h
}

// ComputePawnHash recomputes the pawn-only key from scratch.
func (p *Position) ComputePawnHash() uint64 {
	var h uint64
	for _, pc := range [2]Piece{WhitePawn, BlackPawn} {
		for bb := p.pieces[pc.Color()][Pawn]; bb != 0; {
			h ^= zobrist.piece[pc][bb.PopLSB()]
		}
	}
	return h
}

// HasNonPawnMaterial reports whether c owns a piece other than pawns and king.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	return p.pieces[c][Knight]|p.pieces[c][Bishop]|p.pieces[c][Rook]|p.pieces[c][Queen] != 0
}

// IsRepetition reports whether the current position already occurred since
// the last capture or pawn move.
func (p *Position) IsRepetition() bool {
	n := len(p.history)
	for i := n - 2; i >= 0 && i >= n-p.halfMove; i -= 2 {
		if p.history[i] == p.hash {
			return true
		}
	}
	return false
}

func (p *Position) IsFiftyMoveDraw() bool { return p.halfMove >= 100 }

// IsInsufficientMaterial covers K v K and K+minor v K.
func (p *Position) IsInsufficientMaterial() bool {
	heavy := p.pieces[White][Pawn] | p.pieces[Black][Pawn] |
		p.pieces[White][Rook] | p.pieces[Black][Rook] |
		p.pieces[White][Queen] | p.pieces[Black][Queen]
	if heavy != 0 {
		return false
	}
	minors := p.pieces[White][Knight] | p.pieces[Black][Knight] |
		p.pieces[White][Bishop] | p.pieces[Black][Bishop]
	return !minors.Several()
}

// Validate checks every internal consistency invariant. It is cheap enough
// for tests and debug builds, far too slow for the search.
func (p *Position) Validate() error {
	var occ [2]Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.pieces[c][pt]
			if occ[c]&bb != 0 {
				return fmt.Errorf("%s %v bitboard overlaps another piece", c, pt)
			}
			occ[c] |= bb
			for b := bb; b != 0; {
				sq := b.PopLSB()
				if p.board[sq] != NewPiece(pt, c) {
					return fmt.Errorf("square %s: array has %s, bitboards have %s", sq, p.board[sq], NewPiece(pt, c))
				}
			}
		}
		if occ[c] != p.occupied[c] {
			return fmt.Errorf("%s occupancy out of sync", c)
		}
		if p.pieces[c][King].PopCount() != 1 {
			return fmt.Errorf("%s must have exactly one king", c)
		}
		if p.kings[c] != p.pieces[c][King].LSB() {
			return fmt.Errorf("%s king square out of sync", c)
		}
	}
	if occ[White]&occ[Black] != 0 || p.all != occ[White]|occ[Black] {
		return fmt.Errorf("total occupancy out of sync")
	}
	for sq := A1; sq <= H8; sq++ {
		if p.board[sq] != NoPiece && !p.all.Has(sq) {
			return fmt.Errorf("square %s: array has %s on an empty bitboard square", sq, p.board[sq])
		}
	}
	if h := p.ComputeHash(); h != p.hash {
		return fmt.Errorf("hash %016x, recomputed %016x", p.hash, h)
	}
	if h := p.ComputePawnHash(); h != p.pawnHash {
		return fmt.Errorf("pawn hash %016x, recomputed %016x", p.pawnHash, h)
	}
	if c := p.AttackersOf(p.kings[p.side], p.side.Other(), p.all); c != p.checkers {
		return fmt.Errorf("checkers out of sync")
	}
	return nil
}

func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteByte(' ')
			sb.WriteString(p.board[NewSquare(file, rank)].String())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\n", p.FEN())
	fmt.Fprintf(&sb, "Key: %016X\n", p.hash)
	return sb.String()
}
