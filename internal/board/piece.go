package board

// Color is the side owning a piece or to move.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opponent.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceType is a colourless piece kind.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

func (pt PieceType) String() string { return "pnbrqk-"[pt : pt+1] }

// Piece is a coloured piece: type + 6*colour. NoPiece marks an empty square,
// giving the 13 values of the piece-at-square array.
type Piece uint8

const (
	WhitePawn Piece = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
	NoPiece
)

const pieceChars = "PNBRQKpnbrqk"

// NewPiece combines a type and a colour.
func NewPiece(pt PieceType, c Color) Piece {
	return Piece(pt) + Piece(c)*6
}

func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

func (p Piece) Color() Color {
	return Color(p / 6)
}

func (p Piece) String() string {
	if p >= NoPiece {
		return "."
	}
	return pieceChars[p : p+1]
}

// PieceFromChar maps a FEN letter to a piece, NoPiece when unknown.
func PieceFromChar(c byte) Piece {
	for i := 0; i < len(pieceChars); i++ {
		if pieceChars[i] == c {
			return Piece(i)
		}
	}
	return NoPiece
}
