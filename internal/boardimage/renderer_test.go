package boardimage

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/park285/cheese-duel/pkg/duelview"
)

func sampleView() duelview.View {
	return duelview.View{
		State: "in_progress",
		Board: [8]string{
			"rnbqkbnr",
			"pppppppp",
			"........",
			"........",
			"....P...",
			"........",
			"PPPP.PPP",
			"RNBQKBNR",
		},
		ToMove: "black",
		Arrow:  "e2e4",
		Clock:  &duelview.ClockView{White: "05:00.0", Black: "05:00.0"},
	}
}

func TestRenderPNGDimensions(t *testing.T) {
	data, err := RenderPNG(context.Background(), sampleView(), Options{SquareSize: 40})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 40*8+sideMargin*2 || b.Dy() != 40*8+topMargin+bottomMargin {
		t.Fatalf("bounds = %v", b)
	}
	// h1 under the default orientation is a light square with a white rook.
	if _, _, _, a := img.At(sideMargin+7*40+1, topMargin+7*40+1).RGBA(); a == 0 {
		t.Fatalf("expected an opaque square corner")
	}
}

func TestRenderAllPieces(t *testing.T) {
	for _, p := range []byte("KQRBNPkqrbnp") {
		img, err := renderPieceImage(p, 32)
		if err != nil {
			t.Fatalf("piece %c: %v", p, err)
		}
		if img.Bounds().Dx() != 32 {
			t.Fatalf("piece %c size = %v", p, img.Bounds())
		}
	}
	if _, err := pieceSVG('x'); err == nil {
		t.Fatalf("expected unknown piece error")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderPNG(ctx, sampleView(), Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.png")
	if err := WriteFile(context.Background(), path, sampleView(), Options{Flip: true}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Fatalf("snapshot missing: %v", err)
	}
	if got := statusLine(sampleView()); got != "black to move  white 05:00.0  black 05:00.0" {
		t.Fatalf("statusLine = %q", got)
	}
}
