package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// Recovery converts a panicking handler into a 500 response. The panic value
// and stack are logged; the client only ever sees a generic error body.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				req := c.Request()
				log.Error("panic recovered",
					"error", fmt.Sprint(r),
					"method", req.Method,
					"path", req.URL.Path,
					"stack", string(debug.Stack()),
				)
				err = c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}()
			return next(c)
		}
	}
}
