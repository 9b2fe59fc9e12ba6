package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONResponse writes data with a 200 status.
func JSONResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse renders err as {"error": message} with the status carried by
// the AppError it maps to.
func ErrorResponse(c echo.Context, err error) error {
	appErr := AsAppError(err)
	return c.JSON(appErr.Status, ErrorBody{Error: appErr.Message, Fields: appErr.Fields})
}

// HTTPErrorHandler renders errors that escape handlers, including echo's own
// 404 and 405, in the same body shape as handler errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(AsAppError(err).Status)
		return
	}
	_ = ErrorResponse(c, err)
}
