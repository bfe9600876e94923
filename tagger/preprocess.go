package tagger

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Tensor is the model input: shape (1, Size, Size, 3), BGR channel order,
// samples kept in the source 0-255 range as float32. The model family this
// serves expects raw BGR floats, not unit-normalized RGB.
type Tensor struct {
	Data []float32
	Size int
}

func (t *Tensor) Shape() []int64 {
	return []int64{1, int64(t.Size), int64(t.Size), 3}
}

// Normalize prepares an arbitrary image for model input: alpha is flattened
// onto white, the image is centered on a white square canvas of its larger
// dimension, resized to targetSize with a bicubic filter when the canvas does
// not already match, and materialized as an NHWC BGR tensor. The source image
// is not modified.
func Normalize(img image.Image, targetSize int) (*Tensor, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("%w: target size %d", ErrInvalidInput, targetSize)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: image has zero dimension (%dx%d)", ErrInvalidInput, w, h)
	}

	maxDim := max(h, w)

	// Overlay alpha-blends, so transparency flattens onto the white canvas.
	canvas := imaging.New(maxDim, maxDim, color.White)
	padded := imaging.Overlay(canvas, img, image.Pt((maxDim-w)/2, (maxDim-h)/2), 1.0)
	if maxDim != targetSize {
		padded = imaging.Resize(padded, targetSize, targetSize, imaging.CatmullRom)
	}

	out := make([]float32, targetSize*targetSize*3)
	i := 0
	for y := 0; y < targetSize; y++ {
		for x := 0; x < targetSize; x++ {
			p := padded.NRGBAAt(x, y)
			out[i] = float32(p.B)
			out[i+1] = float32(p.G)
			out[i+2] = float32(p.R)
			i += 3
		}
	}
	return &Tensor{Data: out, Size: targetSize}, nil
}
