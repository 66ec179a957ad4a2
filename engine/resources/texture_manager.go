package resources

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"bytes"

	"github.com/oxyforge/corerender/engine/gal"
)

// TextureManager decodes an image file (PNG/JPEG) and uploads it as a GAL
// texture, following the same decode path as common.ImportedTexture.Decode
// but routed through the Hub's async read instead of a direct os.Open.
type TextureManager struct {
	Base

	device *gal.Device
	srgb   bool

	pixels []byte
	width  uint32
	height uint32

	texture *gal.Texture
}

// NewTextureManager returns a Factory that builds TextureManager instances
// uploading to `device`. `srgb` selects RGBA8UnormSRGB vs RGBA8Unorm.
func NewTextureManager(device *gal.Device, srgb bool) Factory {
	return func(path string) Manager {
		return &TextureManager{Base: NewBase(path), device: device, srgb: srgb}
	}
}

func (t *TextureManager) resourceBase() *Base { return &t.Base }

func (t *TextureManager) Load(data []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)

	t.pixels = rgba.Pix
	t.width = uint32(b.Dx())
	t.height = uint32(b.Dy())
	return true
}

// OnBeforeReady uploads the decoded pixels to a GAL texture. Runs on the
// load-worker goroutine; GAL texture creation only touches CPU-side
// bookkeeping and a queue write, both of which wgpu permits off the
// render thread.
func (t *TextureManager) OnBeforeReady() {
	format := gal.FormatRGBA8Unorm
	if t.srgb {
		format = gal.FormatRGBA8UnormSRGB
	}
	tex, err := t.device.CreateTexture(t.width, t.height, 1, format, 0, fmt.Sprintf("tex:%s", t.Path()))
	if err != nil {
		return
	}
	_ = t.device.UploadTexture(format, tex, 0, 0, 0, 0, t.width, t.height, t.pixels)
	t.texture = tex
}

func (t *TextureManager) Unload() {
	if t.texture != nil {
		t.texture.Destroy(t.device)
		t.texture = nil
	}
	t.pixels = nil
}

func (t *TextureManager) Dependencies() []Dependency { return nil }

// Texture returns the uploaded GAL texture, or nil until Ready().
func (t *TextureManager) Texture() *gal.Texture { return t.texture }
