package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rwonjong94/anchormoms-web-sub002/core"
)

var yearsParam = "years"

// Window is the year window requested in the query string.
type Window struct {
	Years int
}

// Bind reads the "years" query parameter, falling back to defaultYears.
// Range checks are left to the roadmap service.
func (w *Window) Bind(ctx echo.Context, defaultYears int) error {
	w.Years = defaultYears
	val := strings.TrimSpace(ctx.QueryParam(yearsParam))
	if val == "" {
		return nil
	}
	years, err := strconv.Atoi(val)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: yearsParam, Error: "years must be a number"})
	}
	w.Years = years
	return nil
}
