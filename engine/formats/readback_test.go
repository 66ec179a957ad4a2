package formats

import (
	"bytes"
	"image/png"
	"testing"
)

func solidRGBA(width, height int, r, g, b, a byte) []byte {
	pixels := make([]byte, width*height*4)
	for i := 0; i < width*height; i++ {
		pixels[i*4+0] = r
		pixels[i*4+1] = g
		pixels[i*4+2] = b
		pixels[i*4+3] = a
	}
	return pixels
}

func TestDumpReadbackPNGRejectsShortBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpReadbackPNG(&buf, make([]byte, 4), 4, 4, 0); err == nil {
		t.Fatal("expected an error for a pixel buffer too small for the given dimensions")
	}
}

func TestDumpReadbackPNGEncodesAtFullResolutionWithoutDownscale(t *testing.T) {
	pixels := solidRGBA(8, 4, 0x11, 0x22, 0x33, 0xff)

	var buf bytes.Buffer
	if err := DumpReadbackPNG(&buf, pixels, 8, 4, 0); err != nil {
		t.Fatalf("DumpReadbackPNG: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding dumped PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 8 || bounds.Dy() != 4 {
		t.Fatalf("expected the full-resolution dump to stay 8x4, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestDumpReadbackPNGDownscalesToMaxDim(t *testing.T) {
	pixels := solidRGBA(64, 32, 0xaa, 0xbb, 0xcc, 0xff)

	var buf bytes.Buffer
	if err := DumpReadbackPNG(&buf, pixels, 64, 32, 16); err != nil {
		t.Fatalf("DumpReadbackPNG: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding dumped PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 16 || bounds.Dy() != 8 {
		t.Fatalf("expected a 64x32 source thumbnailed to 16x8 (aspect preserved), got %dx%d", bounds.Dx(), bounds.Dy())
	}
}
