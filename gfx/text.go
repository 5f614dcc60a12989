package gfx

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const atlasSize = 512

type Glyph struct {
	UVMin mgl32.Vec2
	UVMax mgl32.Vec2
	Size  mgl32.Vec2
	Off   mgl32.Vec2
	Adv   float32
}

// Font is a printable-ASCII glyph atlas rasterised once at a fixed size.
// Layout scales it when drawing.
type Font struct {
	Atlas      *image.Alpha
	Glyphs     map[rune]Glyph
	ascent     float32
	lineHeight float32
}

// NewFont rasterises the Go Mono Bold face at size points.
func NewFont(size float64) (*Font, error) {
	return ParseFont(gomonobold.TTF, size)
}

func ParseFont(ttf []byte, size float64) (*Font, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	atlas := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]Glyph)

	x, y := 2, 2
	rowHeight := 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := bounds.Dx(), bounds.Dy()

		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			return nil, fmt.Errorf("font size %.0f does not fit the glyph atlas", size)
		}

		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)
		glyphs[r] = Glyph{
			UVMin: mgl32.Vec2{float32(x) / atlasSize, float32(y) / atlasSize},
			UVMax: mgl32.Vec2{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			Size:  mgl32.Vec2{float32(w), float32(h)},
			Off:   mgl32.Vec2{float32(bounds.Min.X), float32(bounds.Min.Y)},
			Adv:   float32(adv) / 64,
		}

		x += w + 4
		if h > rowHeight {
			rowHeight = h
		}
	}

	metrics := face.Metrics()
	return &Font{
		Atlas:      atlas,
		Glyphs:     glyphs,
		ascent:     float32(metrics.Ascent.Ceil()),
		lineHeight: float32(metrics.Height.Ceil()),
	}, nil
}

// AtlasImage expands the coverage atlas to white RGBA with the coverage in
// alpha, the form the quad program samples.
func (f *Font) AtlasImage() *image.NRGBA {
	b := f.Atlas.Bounds()
	img := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: f.Atlas.AlphaAt(x, y).A})
		}
	}
	return img
}

// Layout returns one quad per printable rune with the text's top left
// corner at (x, y) in a y-down space. '\n' starts a new line.
func (f *Font) Layout(text string, x, y, scale float32, c Color) []Quad {
	quads := make([]Quad, 0, len(text))
	penX := x
	penY := y + f.ascent*scale
	for _, r := range text {
		if r == '\n' {
			penX = x
			penY += f.lineHeight * scale
			continue
		}
		g, ok := f.Glyphs[r]
		if !ok {
			continue
		}
		if g.Size.X() > 0 && g.Size.Y() > 0 {
			uvSize := g.UVMax.Sub(g.UVMin)
			quads = append(quads, Rectangle(
				mgl32.Vec3{penX + g.Off.X()*scale, penY + g.Off.Y()*scale, 0},
				g.Size.X()*scale, g.Size.Y()*scale,
				g.UVMin, uvSize.X(), uvSize.Y(),
				c,
			))
		}
		penX += g.Adv * scale
	}
	return quads
}

// Measure returns the width of the widest line and the total height.
func (f *Font) Measure(text string, scale float32) (float32, float32) {
	maxW := float32(0)
	currentW := float32(0)
	lines := 1
	for _, r := range text {
		if r == '\n' {
			maxW = max(maxW, currentW)
			currentW = 0
			lines++
			continue
		}
		if g, ok := f.Glyphs[r]; ok {
			currentW += g.Adv * scale
		}
	}
	return max(maxW, currentW), f.lineHeight * scale * float32(lines)
}

func (f *Font) LineHeight(scale float32) float32 {
	return f.lineHeight * scale
}
