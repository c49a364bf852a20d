package card

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

var sample = quiz.Problem{First: 51, Second: 24, Operator: quiz.OpAdd, Answer: 75}

func sameColor(t *testing.T, img image.Image, x, y int, want interface{ RGBA() (r, g, b, a uint32) }) bool {
	t.Helper()
	r1, g1, b1, a1 := img.At(x, y).RGBA()
	r2, g2, b2, a2 := want.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func TestRenderer_EncodePNG(t *testing.T) {
	tests := []struct {
		name       string
		scale      int
		wantWidth  int
		wantHeight int
	}{
		{name: "正常系: 等倍", scale: 1, wantWidth: 160, wantHeight: 40},
		{name: "正常系: 3倍", scale: 3, wantWidth: 480, wantHeight: 120},
		{name: "正常系: 0以下は等倍", scale: 0, wantWidth: 160, wantHeight: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(tt.scale)

			data, err := r.EncodePNG(sample, 0.5, OKBar)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, img.Bounds().Dx())
			assert.Equal(t, tt.wantHeight, img.Bounds().Dy())
		})
	}
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(1)

	t.Run("正常系: テキストが描画される", func(t *testing.T) {
		img := r.Render(sample, 0, OKBar)

		inked := false
		for y := 0; y < baseHeight && !inked; y++ {
			for x := 0; x < baseWidth; x++ {
				if sameColor(t, img, x, y, Ink) {
					inked = true
					break
				}
			}
		}
		assert.True(t, inked)
	})

	t.Run("正常系: 残り時間バーの長さ", func(t *testing.T) {
		barY := baseHeight - padding - 1

		full := r.Render(sample, 1, DangerBar)
		assert.True(t, sameColor(t, full, baseWidth-padding-1, barY, DangerBar))

		half := r.Render(sample, 0.5, WarnBar)
		assert.True(t, sameColor(t, half, padding, barY, WarnBar))
		assert.True(t, sameColor(t, half, baseWidth-padding-1, barY, Background))

		empty := r.Render(sample, -1, WarnBar)
		assert.True(t, sameColor(t, empty, padding, barY, Background))
	})
}
