package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const eventKey = "hashdragon.event"

// SetEvent tags the request with the protocol event it handled.
func SetEvent(c *gin.Context, event string) {
	c.Set(eventKey, event)
}

// RequestLogger logs one line per request, carrying the protocol event and
// any txid or hashdragon the route was called with.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var line *zerolog.Event
		switch {
		case status >= 500:
			line = logger.Error()
		case status >= 400:
			line = logger.Warn()
		default:
			line = logger.Info()
		}
		if len(c.Errors) > 0 {
			line = line.Str("error", c.Errors.Last().Error())
		}
		if event := c.GetString(eventKey); event != "" {
			line = line.Str("event", event)
		}
		if txid := c.Param("txid"); txid != "" {
			line = line.Str("txid", txid)
		}
		hashdragon := c.Param("hashdragon")
		if hashdragon == "" {
			hashdragon = c.Query("hashdragon")
		}
		if hashdragon != "" {
			line = line.Str("hashdragon", hashdragon)
		}

		line.
			Str("method", c.Request.Method).
			Str("route", routePath(c)).
			Int("status", status).
			Dur("took", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Msg("request")
	}
}

// RequestMetricsMiddleware records request counts and latency by route template.
func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(c.Request.Method, routePath(c), c.Writer.Status(), time.Since(start))
	}
}

// routePath prefers the route template so txids do not become label values.
func routePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
