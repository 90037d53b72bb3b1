package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital/internal/platform/metrics"
)

// Metrics records request count, latency and in-flight requests. Requests
// that matched no route are labelled "unmatched".
func Metrics(m *metrics.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			done := m.TrackInFlight()
			defer done()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.ObserveHTTP(c.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}
