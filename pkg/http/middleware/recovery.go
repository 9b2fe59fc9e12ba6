package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "StockSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns panics into a 500 with a generic {"error": ...} body. The stack goes
// to the log only.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					l.Error("panic recovered",
						applogger.String("route", c.Path()),
						applogger.Error(perr),
						applogger.String("stack", string(debug.Stack())),
					)
					if !c.Response().Committed {
						err = c.JSON(http.StatusInternalServerError, map[string]string{
							"error": "internal server error",
						})
					}
				}
			}()
			return next(c)
		}
	}
}
