package rules

import nchess "github.com/corentings/chess/v2"

var (
	knightJumps = [][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	diagonals   = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	straights   = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
)

// kingAttacked reports whether color's king is attacked by the other side.
// A board without that king is never in check.
func kingAttacked(board *nchess.Board, color nchess.Color) bool {
	file, rank, ok := findKing(board, color)
	if !ok {
		return false
	}
	return squareAttacked(board, file, rank, color.Other())
}

func findKing(board *nchess.Board, color nchess.Color) (int, int, bool) {
	for file := 0; file < 8; file++ {
		for rank := 0; rank < 8; rank++ {
			p := pieceAt(board, file, rank)
			if p != nchess.NoPiece && p.Type() == nchess.King && p.Color() == color {
				return file, rank, true
			}
		}
	}
	return 0, 0, false
}

func pieceAt(board *nchess.Board, file, rank int) nchess.Piece {
	return board.Piece(nchess.NewSquare(nchess.File(file), nchess.Rank(rank)))
}

func onBoard(file, rank int) bool { return file >= 0 && file < 8 && rank >= 0 && rank < 8 }

func is(p nchess.Piece, color nchess.Color, types ...nchess.PieceType) bool {
	if p == nchess.NoPiece || p.Color() != color {
		return false
	}
	for _, t := range types {
		if p.Type() == t {
			return true
		}
	}
	return false
}

func squareAttacked(board *nchess.Board, file, rank int, by nchess.Color) bool {
	// white pawns attack from below, black from above
	pawnRank := rank - 1
	if by == nchess.Black {
		pawnRank = rank + 1
	}
	for _, df := range []int{-1, 1} {
		if onBoard(file+df, pawnRank) && is(pieceAt(board, file+df, pawnRank), by, nchess.Pawn) {
			return true
		}
	}

	for _, j := range knightJumps {
		f, r := file+j[0], rank+j[1]
		if onBoard(f, r) && is(pieceAt(board, f, r), by, nchess.Knight) {
			return true
		}
	}

	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			f, r := file+df, rank+dr
			if onBoard(f, r) && is(pieceAt(board, f, r), by, nchess.King) {
				return true
			}
		}
	}

	return slides(board, file, rank, by, diagonals, nchess.Bishop, nchess.Queen) ||
		slides(board, file, rank, by, straights, nchess.Rook, nchess.Queen)
}

func slides(board *nchess.Board, file, rank int, by nchess.Color, dirs [][2]int, types ...nchess.PieceType) bool {
	for _, d := range dirs {
		f, r := file+d[0], rank+d[1]
		for onBoard(f, r) {
			p := pieceAt(board, f, r)
			if p != nchess.NoPiece {
				if is(p, by, types...) {
					return true
				}
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return false
}
