package boardimage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece outlines on a 45x45 canvas. {{F}} is the body fill and {{S}} the
// stroke of the owning side.
var pieceShapes = map[byte]string{
	'P': `<circle cx="22.5" cy="14" r="5" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<path d="M 17 36 L 19.5 20 L 25.5 20 L 28 36 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="12" y="35" width="21" height="4" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
	'R': `<path d="M 11 14 L 11 9 L 15 9 L 15 11 L 20 11 L 20 9 L 25 9 L 25 11 L 30 11 L 30 9 L 34 9 L 34 14 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="14" y="14" width="17" height="19" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="10" y="33" width="25" height="5" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
	'N': `<path d="M 14 38 L 31 38 L 31 20 C 31 13 26 9 20 9 L 19 6 L 16 10 L 11 16 L 10 21 L 13 23 L 18 19 L 20 22 L 14 30 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<circle cx="17" cy="14" r="1.3" fill="{{S}}"/>`,
	'B': `<circle cx="22.5" cy="8" r="2.5" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<ellipse cx="22.5" cy="21" rx="7" ry="10" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="18" y="30" width="9" height="5" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="11" y="35" width="23" height="4" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
	'Q': `<path d="M 9 14 L 14 30 L 31 30 L 36 14 L 29 24 L 28 10 L 22.5 23 L 17 10 L 16 24 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<circle cx="9" cy="12" r="2" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<circle cx="17" cy="8.5" r="2" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<circle cx="28" cy="8.5" r="2" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<circle cx="36" cy="12" r="2" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="12" y="30" width="21" height="8" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
	'K': `<path d="M 21 4 L 24 4 L 24 7 L 27 7 L 27 10 L 24 10 L 24 14 L 21 14 L 21 10 L 18 10 L 18 7 L 21 7 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.2"/>
<path d="M 11 30 C 6 22 12 15 22.5 19 C 33 15 39 22 34 30 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="11" y="30" width="23" height="8" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
}

type pieceCacheKey struct {
	piece byte
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

// pieceSVG returns the SVG document for a FEN piece letter.
func pieceSVG(piece byte) (string, error) {
	upper := piece
	fill, stroke := "#ffffff", "#000000"
	if piece >= 'a' && piece <= 'z' {
		upper = piece - 'a' + 'A'
		fill, stroke = "#000000", "#e6e6e6"
	}
	shape, ok := pieceShapes[upper]
	if !ok {
		return "", fmt.Errorf("unknown piece %q", piece)
	}
	body := strings.NewReplacer("{{F}}", fill, "{{S}}", stroke).Replace(shape)
	return `<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">` + body + `</svg>`, nil
}

func renderPieceImage(piece byte, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	doc, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
