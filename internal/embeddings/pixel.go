package embeddings

import (
	"context"
	"errors"
	"image"
)

// pixelGrid is the number of cells per side of the color layout descriptor.
const pixelGrid = 8

// ErrNoSignal is returned for images whose descriptor is all zeros (pure black).
var ErrNoSignal = errors.New("image has no signal")

type pixelProvider struct{}

// NewPixel returns the offline provider: a color layout descriptor holding
// the mean RGB of each cell of an 8x8 grid over the prepared image. It needs
// no model server and is exact across runs.
func NewPixel() Provider {
	return pixelProvider{}
}

func (pixelProvider) ModelID() string { return "pixel:grid8-rgb" }

func (pixelProvider) Dim() int { return pixelGrid * pixelGrid * 3 }

func (p pixelProvider) Embed(ctx context.Context, img image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := Prepare(img)
	cell := InputSize / pixelGrid
	out := make([]float32, 0, p.Dim())
	var total float64

	for gy := 0; gy < pixelGrid; gy++ {
		for gx := 0; gx < pixelGrid; gx++ {
			var r, g, b float64
			for y := gy * cell; y < (gy+1)*cell; y++ {
				off := y*src.Stride + gx*cell*4
				for x := 0; x < cell; x++ {
					r += float64(src.Pix[off])
					g += float64(src.Pix[off+1])
					b += float64(src.Pix[off+2])
					off += 4
				}
			}
			n := float64(cell * cell * 255)
			out = append(out, float32(r/n), float32(g/n), float32(b/n))
			total += r + g + b
		}
	}
	if total == 0 {
		return nil, ErrNoSignal
	}
	return out, nil
}
