package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the short link and image routes.
func RegisterRoutes(api huma.API, links *LinkHandler, images *ImageHandler) {
	// POST /shorten - Create short link
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/shorten",
		Summary:       "Create short link",
		Description:   "Creates an emoji short link with an optional custom alias and destruction policy.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, links.CreateLink)

	// GET /qr/{id} - QR code of the short URL
	huma.Register(api, huma.Operation{
		OperationID: "qr-code",
		Method:      http.MethodGet,
		Path:        "/qr/{id}",
		Summary:     "QR code",
		Description: "Renders a PNG QR code pointing at the short URL. Does not consume the link.",
		Tags:        []string{"Images"},
	}, images.QRCode)

	// GET /visual/{id} - Visual hash of the identifier
	huma.Register(api, huma.Operation{
		OperationID: "visual-hash",
		Method:      http.MethodGet,
		Path:        "/visual/{id}",
		Summary:     "Visual hash",
		Description: "Renders a PNG derived from the SHA-256 of the identifier.",
		Tags:        []string{"Images"},
	}, images.VisualHash)

	// GET /{id} - Redirect to the destination
	// Every store read is applied to the link's destruction policy.
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{id}",
		Summary:     "Redirect to destination",
		Description: "Redirects to the destination of the short link and applies its destruction policy.",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound, http.StatusGone},
	}, links.Redirect)
}
