package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/serroba/fuselink/internal/link"
	"go.uber.org/zap"
)

// LinkService is the part of link.Service the HTTP layer needs.
type LinkService interface {
	Shorten(ctx context.Context, req link.CreateRequest) (*link.Link, error)
	Resolve(ctx context.Context, id link.ID) (string, error)
}

// LinkHandler handles short link creation and redirects.
type LinkHandler struct {
	links   LinkService
	baseURL string
	logger  *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(links LinkService, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		links:   links,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	l, err := h.links.Shorten(ctx, link.CreateRequest{
		Destination: req.Body.URL,
		Alias:       link.ID(req.Body.CustomAlias),
		Policy:      req.Body.Destruction,
	})
	if err != nil {
		return nil, httpError(h.logger, link.ID(req.Body.CustomAlias), err)
	}

	short := ShortURL(h.baseURL, l.ID)

	resp := &CreateLinkResponse{Location: short}
	resp.Body.ID = string(l.ID)
	resp.Body.ShortURL = short

	return resp, nil
}

func (h *LinkHandler) Redirect(ctx context.Context, req *LinkRequest) (*RedirectResponse, error) {
	destination, err := h.links.Resolve(ctx, link.ID(req.ID))
	if err != nil {
		return nil, httpError(h.logger, link.ID(req.ID), err)
	}

	return &RedirectResponse{
		Status:       http.StatusTemporaryRedirect,
		Location:     destination,
		CacheControl: "no-store",
	}, nil
}

// ShortURL joins the public base URL and an identifier.
func ShortURL(baseURL string, id link.ID) string {
	return baseURL + "/" + url.PathEscape(string(id))
}
