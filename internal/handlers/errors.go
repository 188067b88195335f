package handlers

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/fuselink/internal/link"
	"go.uber.org/zap"
)

// httpError maps a domain error onto its HTTP status. Not found and gone
// carry fixed bodies so nothing about the destination or policy leaks.
func httpError(logger *zap.Logger, id link.ID, err error) error {
	switch link.Classify(err) {
	case link.KindValidation:
		return huma.Error400BadRequest(err.Error())
	case link.KindConflict:
		return huma.Error409Conflict("emoji combination already exists")
	case link.KindNotFound:
		return huma.Error404NotFound("Not Found")
	case link.KindGone:
		return huma.Error410Gone("Link expired")
	default:
		logger.Error("request failed",
			zap.String("id", string(id)),
			zap.Error(err),
		)

		return huma.Error500InternalServerError("internal error")
	}
}
