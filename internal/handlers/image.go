package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/render"
	"go.uber.org/zap"
)

// ImageHandler renders images for identifiers. It never reads link state, so
// requesting an image cannot consume or reveal a link.
type ImageHandler struct {
	baseURL string
	logger  *zap.Logger
}

// NewImageHandler creates a new image handler.
func NewImageHandler(baseURL string, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{baseURL: baseURL, logger: logger}
}

// QRCode encodes the short URL of the identifier.
func (h *ImageHandler) QRCode(_ context.Context, req *LinkRequest) (*ImageResponse, error) {
	if err := link.ValidateAlias(link.ID(req.ID)); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	png, err := render.QR(ShortURL(h.baseURL, link.ID(req.ID)))
	if err != nil {
		return nil, httpError(h.logger, link.ID(req.ID), err)
	}

	return pngResponse(png), nil
}

func (h *ImageHandler) VisualHash(_ context.Context, req *LinkRequest) (*ImageResponse, error) {
	png, err := render.VisualHashPNG(req.ID)
	if err != nil {
		return nil, httpError(h.logger, link.ID(req.ID), err)
	}

	return pngResponse(png), nil
}

func pngResponse(png []byte) *ImageResponse {
	return &ImageResponse{
		ContentType:  "image/png",
		CacheControl: "public, max-age=86400",
		Body:         png,
	}
}
