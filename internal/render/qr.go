// Package render draws the images served next to short links. Every function
// is a pure function of its input and never touches link state.
package render

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRSize is the edge length of generated QR codes in pixels.
const QRSize = 256

// QR encodes content as a PNG QR code.
func QR(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	return png, nil
}
