package logos

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	// decoders for downloaded and cached crests
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

const lightThreshold = 240

// Process cleans a crest for rendering. A near-white background (judged by the
// top-left pixel) becomes transparent, transparent borders are trimmed and the
// result is scaled down to fit maxDim.
func Process(src image.Image, maxDim int) *image.NRGBA {
	img := toNRGBA(src)
	b := img.Bounds()
	if b.Empty() {
		return img
	}
	if isLight(img.NRGBAAt(b.Min.X, b.Min.Y)) {
		clearLight(img)
	}
	img = trim(img)
	return fit(img, maxDim)
}

func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func isLight(c color.NRGBA) bool {
	return c.R > lightThreshold && c.G > lightThreshold && c.B > lightThreshold
}

func clearLight(img *image.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isLight(img.NRGBAAt(x, y)) {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
			}
		}
	}
}

// trim crops img to the bounding box of its non-transparent pixels.
// A fully transparent image is returned unchanged.
func trim(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x >= maxX {
				maxX = x + 1
			}
			if y < minY {
				minY = y
			}
			if y >= maxY {
				maxY = y + 1
			}
		}
	}
	if minX >= maxX || minY >= maxY {
		return img
	}
	crop := image.Rect(minX, minY, maxX, maxY)
	if crop == b {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(dst, dst.Bounds(), img, crop.Min, draw.Src)
	return dst
}

// fit scales img down, keeping its aspect ratio, so neither side exceeds maxDim.
func fit(img *image.NRGBA, maxDim int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	nw, nh := maxDim, maxDim
	if w > h {
		nh = max(1, h*maxDim/w)
	} else if h > w {
		nw = max(1, w*maxDim/h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Placeholder draws a red square carrying the team name.
func Placeholder(team string, size int) *image.RGBA {
	if size <= 0 {
		size = 500
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.White), Face: face}
	x, y := size/10, size/2
	for _, line := range strings.Split(team+"\nLOGO BULUNAMADI", "\n") {
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
		y += face.Metrics().Height.Ceil() + 2
	}
	return img
}

// writePNG encodes img next to path and renames it into place so readers never
// see a partial file.
func writePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".logo-*.png")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
