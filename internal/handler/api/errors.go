package api

import (
	"context"
	"errors"

	"StockSignal/internal/domain/models"
	xhttp "StockSignal/pkg/http"
)

// domainError maps pipeline and provider failures onto HTTP errors.
func domainError(err error) *xhttp.AppError {
	var insufficient *models.InsufficientDataError
	var upstream *models.UpstreamFetchError

	switch {
	case errors.As(err, &insufficient):
		return xhttp.UnprocessableError(insufficient.Error()).WithError(err)
	case errors.Is(err, models.ErrNoHistory):
		return xhttp.NotFoundError(models.ErrNoHistory.Error()).WithError(err)
	case errors.Is(err, models.ErrSymbolNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidSymbol):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.As(err, &upstream):
		return xhttp.BadGatewayError(upstream.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.BadGatewayError("upstream timeout").WithError(err)
	default:
		return xhttp.AsAppError(err)
	}
}
