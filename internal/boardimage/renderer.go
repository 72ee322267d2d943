// Package boardimage renders the displayed position of a match as a PNG
// snapshot.
package boardimage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"os"
	"strings"

	"github.com/park285/cheese-duel/pkg/duelview"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultSquareSize = 64
	sideMargin        = 24
	topMargin         = 36
	bottomMargin      = 24
)

// Options controls a render.
type Options struct {
	SquareSize int
	// Flip draws the board from black's side.
	Flip bool
}

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	background      = color.RGBA{48, 46, 43, 255}
	highlightFill   = color.NRGBA{R: 246, G: 226, B: 90, A: 120}
	coordinateColor = color.RGBA{220, 220, 220, 255}
)

// RenderPNG draws v's board, move highlight, coordinates and a status line.
func RenderPNG(ctx context.Context, v duelview.View, opts Options) ([]byte, error) {
	size := opts.SquareSize
	if size <= 0 {
		size = DefaultSquareSize
	}
	boardSize := size * 8
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, imagedraw.Src)
	origin := image.Point{X: sideMargin, Y: topMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	drawSquares(img, size, origin, opts.Flip)
	drawHighlight(img, v.Arrow, size, origin, opts.Flip)
	if err := drawPieces(img, v.Board, size, origin, opts.Flip); err != nil {
		return nil, err
	}
	drawCoordinates(img, size, origin, opts.Flip)
	drawStatus(img, statusLine(v), origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders v to path.
func WriteFile(ctx context.Context, path string, v duelview.View, opts Options) error {
	data, err := RenderPNG(ctx, v, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// cellOrigin maps a grid cell (row 0 = rank 8) to its top-left pixel.
func cellOrigin(row, col, size int, origin image.Point, flip bool) image.Point {
	if flip {
		row, col = 7-row, 7-col
	}
	return image.Point{X: origin.X + col*size, Y: origin.Y + row*size}
}

func drawSquares(dst imagedraw.Image, size int, origin image.Point, flip bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := cellOrigin(row, col, size, origin, flip)
			clr := lightSquare
			if (row+col)%2 == 1 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, image.Rect(p.X, p.Y, p.X+size, p.Y+size), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board [8]string, size int, origin image.Point, flip bool) error {
	for row, line := range board {
		for col := 0; col < len(line) && col < 8; col++ {
			cell := line[col]
			if cell == '.' || cell == 0 {
				continue
			}
			pieceImg, err := renderPieceImage(cell, size)
			if err != nil {
				return err
			}
			p := cellOrigin(row, col, size, origin, flip)
			imagedraw.Draw(dst, image.Rect(p.X, p.Y, p.X+size, p.Y+size), pieceImg, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawHighlight(dst imagedraw.Image, arrow string, size int, origin image.Point, flip bool) {
	if len(arrow) != 4 {
		return
	}
	for _, sq := range []string{arrow[:2], arrow[2:]} {
		col, rank := int(sq[0]-'a'), int(sq[1]-'1')
		if col < 0 || col > 7 || rank < 0 || rank > 7 {
			continue
		}
		p := cellOrigin(7-rank, col, size, origin, flip)
		imagedraw.Draw(dst, image.Rect(p.X, p.Y, p.X+size, p.Y+size), image.NewUniform(highlightFill), image.Point{}, imagedraw.Over)
	}
}

func drawCoordinates(dst imagedraw.Image, size int, origin image.Point, flip bool) {
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(coordinateColor), Face: basicfont.Face7x13}
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()
	for i := 0; i < 8; i++ {
		rank := 8 - i
		file := byte('a' + i)
		if flip {
			rank = i + 1
			file = byte('h' - i)
		}
		drawCenteredText(drawer, fmt.Sprint(rank), origin.X-sideMargin/2, origin.Y+i*size+size/2+ascent/2)
		drawCenteredText(drawer, string(file), origin.X+i*size+size/2, origin.Y+8*size+ascent+4)
	}
}

func drawStatus(dst imagedraw.Image, text string, origin image.Point) {
	if text == "" {
		return
	}
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(coordinateColor), Face: basicfont.Face7x13}
	drawer.Dot = fixed.P(origin.X, topMargin/2+basicfont.Face7x13.Metrics().Ascent.Ceil()/2)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func statusLine(v duelview.View) string {
	var parts []string
	switch v.State {
	case "in_progress":
		parts = append(parts, v.ToMove+" to move")
	case "finished":
		parts = append(parts, "result "+v.Result)
	}
	if c := v.Clock; c != nil {
		parts = append(parts, "white "+c.White, "black "+c.Black)
	}
	if d := v.Material.Diff(); d != 0 {
		parts = append(parts, fmt.Sprintf("material %+d", d))
	}
	return strings.Join(parts, "  ")
}
