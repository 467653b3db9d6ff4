package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bassista/go_pagewatch/internal/reporting"
)

// ErrorReporting forwards panics and 5xx responses to the error reporter.
// On panic it reports and re-panics so gin.Recovery writes the response.
func ErrorReporting(rep reporting.Reporter, logger *logrus.Logger) gin.HandlerFunc {
	if rep == nil {
		rep = reporting.Nop{}
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rep.Report(fmt.Errorf("panic: %s %s: %v", c.Request.Method, c.Request.URL.Path, rec), "panic", "http")
				logger.Error("Recovered from panic, reported: ", rec)
				panic(rec)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			rep.Report(fmt.Errorf("HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path), "5XX", "http")
			logger.Warnf("reported HTTP %d for %s %s", status, c.Request.Method, c.Request.URL.Path)
		}
	}
}
