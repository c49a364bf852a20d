// Package card renders quiz problems as PNG images.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// Card dimensions in pixels before scaling.
const (
	baseWidth  = 160
	baseHeight = 40
	padding    = 8
)

// Palette used for each urgency level.
var (
	Background = color.RGBA{R: 0xfd, G: 0xfa, B: 0xf3, A: 0xff}
	Ink        = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	WarnBar    = color.RGBA{R: 0xf5, G: 0xa6, B: 0x23, A: 0xff}
	DangerBar  = color.RGBA{R: 0xd0, G: 0x02, B: 0x1b, A: 0xff}
	OKBar      = color.RGBA{R: 0x4a, G: 0x90, B: 0xe2, A: 0xff}
)

// Renderer draws problem cards.
type Renderer struct {
	scale int
	face  font.Face
}

// NewRenderer creates a Renderer. Scale below 1 is treated as 1.
func NewRenderer(scale int) *Renderer {
	if scale < 1 {
		scale = 1
	}
	return &Renderer{
		scale: scale,
		face:  basicfont.Face7x13,
	}
}

// Size returns the width and height of rendered cards.
func (r *Renderer) Size() (int, int) {
	return baseWidth * r.scale, baseHeight * r.scale
}

// Render draws the problem with a countdown bar filled to fraction (0..1).
func (r *Renderer) Render(p quiz.Problem, fraction float64, barColor color.Color) image.Image {
	base := image.NewRGBA(image.Rect(0, 0, baseWidth, baseHeight))
	xdraw.Draw(base, base.Bounds(), image.NewUniform(Background), image.Point{}, xdraw.Src)

	text := fmt.Sprintf("%s = ?", p)
	d := &font.Drawer{
		Dst:  base,
		Src:  image.NewUniform(Ink),
		Face: r.face,
	}
	width := d.MeasureString(text).Ceil()
	x := (baseWidth - width) / 2
	if x < padding {
		x = padding
	}
	ascent := r.face.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(x, padding+ascent)
	d.DrawString(text)

	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	barWidth := int(float64(baseWidth-2*padding) * fraction)
	bar := image.Rect(padding, baseHeight-padding-3, padding+barWidth, baseHeight-padding)
	xdraw.Draw(base, bar, image.NewUniform(barColor), image.Point{}, xdraw.Src)

	if r.scale == 1 {
		return base
	}
	w, h := r.Size()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), base, base.Bounds(), xdraw.Src, nil)
	return out
}

// EncodePNG renders the card and encodes it as PNG.
func (r *Renderer) EncodePNG(p quiz.Problem, fraction float64, barColor color.Color) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Render(p, fraction, barColor)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
