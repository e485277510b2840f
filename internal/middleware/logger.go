package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one structured line per request.  Server errors are
// logged at error level, client errors at warn.
func RequestLogger(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			entry := log.WithFields(logrus.Fields{
				"method":     req.Method,
				"route":      c.Path(),
				"uri":        req.RequestURI,
				"status":     res.Status,
				"bytes":      res.Size,
				"latency_ms": time.Since(start).Milliseconds(),
				"ip":         c.RealIP(),
				"client":     identity(c),
				"request_id": res.Header().Get(echo.HeaderXRequestID),
			})
			switch {
			case res.Status >= 500:
				entry.WithError(err).Error("request")
			case res.Status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}
