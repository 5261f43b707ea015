package http

import (
	"time"

	"github.com/labstack/echo/v4"

	xutil "HydroFlow/pkg/util"
)

// Handler registers routes on an Echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// ParseTimeDefault parses s (RFC3339 or unix) or returns def.
func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
