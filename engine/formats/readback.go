package formats

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// DumpReadbackPNG encodes a raw RGBA8 texture readback (already mapped and
// copied out by the caller; this package decodes pixel bytes only, it does
// not touch the GPU) as a PNG, downsampling with a high-quality scaler
// first when the caller asks for a smaller debug thumbnail than the
// source. Used by texture-readback tests to dump GAL render targets for
// visual inspection without requiring a full image viewer pipeline.
func DumpReadbackPNG(w io.Writer, pixels []byte, width, height int, maxDim int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("formats: DumpReadbackPNG: invalid dimensions %dx%d", width, height)
	}
	if len(pixels) < width*height*4 {
		return fmt.Errorf("formats: DumpReadbackPNG: pixel buffer too small for %dx%d RGBA8 (got %d bytes)", width, height, len(pixels))
	}

	src := &image.RGBA{
		Pix:    pixels[:width*height*4],
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	out := image.Image(src)
	if maxDim > 0 && (width > maxDim || height > maxDim) {
		dw, dh := scaledDims(width, height, maxDim)
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		out = dst
	}

	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("formats: DumpReadbackPNG: encode: %w", err)
	}
	return nil
}

// scaledDims fits width x height into a maxDim x maxDim box, preserving
// aspect ratio, with each dimension floored at 1.
func scaledDims(width, height, maxDim int) (int, int) {
	if width >= height {
		dh := height * maxDim / width
		if dh < 1 {
			dh = 1
		}
		return maxDim, dh
	}
	dw := width * maxDim / height
	if dw < 1 {
		dw = 1
	}
	return dw, maxDim
}
