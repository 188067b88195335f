package render

import (
	"bytes"
	"crypto/sha256"
	"image"
	"image/color"
	"image/png"
)

// VisualSize is the edge length of visual hashes in pixels.
const VisualSize = 256

// VisualHash returns a deterministic image derived from SHA-256 of id.
func VisualHash(id string) *image.RGBA {
	sum := sha256.Sum256([]byte(id))
	img := image.NewRGBA(image.Rect(0, 0, VisualSize, VisualSize))

	for y := range VisualSize {
		for x := range VisualSize {
			b := sum[(x+y)%len(sum)]
			img.SetRGBA(x, y, color.RGBA{
				R: b + uint8(x),
				G: b - uint8(y),
				B: b ^ (uint8(x) + uint8(y)),
				A: 0xff,
			})
		}
	}

	return img
}

// VisualHashPNG returns VisualHash(id) encoded as PNG.
func VisualHashPNG(id string) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, VisualHash(id)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
