package http

import (
	"time"

	"github.com/gin-gonic/gin"
)

type window struct {
	from  time.Time
	until time.Time
}

// parseWindow reads the from/until query parameters as RFC 3339 timestamps.
// On failure it writes the error response itself and returns ok=false.
func parseWindow(c *gin.Context) (window, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		badRequest(c, codeInvalidWindow, "from must be an RFC 3339 timestamp")
		return window{}, false
	}
	until, err := time.Parse(time.RFC3339, c.Query("until"))
	if err != nil {
		badRequest(c, codeInvalidWindow, "until must be an RFC 3339 timestamp")
		return window{}, false
	}
	if !from.Before(until) {
		badRequest(c, codeInvalidWindow, "from must be before until")
		return window{}, false
	}
	return window{from: from, until: until}, true
}
