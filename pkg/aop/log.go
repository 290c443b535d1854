package aop

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/toolkits/pkg/logger"
)

var (
	green   = string([]byte{27, 91, 57, 55, 59, 52, 50, 109})
	yellow  = string([]byte{27, 91, 57, 48, 59, 52, 51, 109})
	red     = string([]byte{27, 91, 57, 55, 59, 52, 49, 109})
	blue    = string([]byte{27, 91, 57, 55, 59, 52, 52, 109})
	cyan    = string([]byte{27, 91, 57, 55, 59, 52, 54, 109})
	white   = string([]byte{27, 91, 57, 48, 59, 52, 55, 109})
	reset   = string([]byte{27, 91, 48, 109})
	colored = isatty.IsTerminal(os.Stdout.Fd())
)

// DisableConsoleColor turns off ANSI colors in the access log.
func DisableConsoleColor() {
	colored = false
}

func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return green
	case code >= 300 && code < 400:
		return white
	case code >= 400 && code < 500:
		return yellow
	default:
		return red
	}
}

func methodColor(method string) string {
	switch method {
	case "GET":
		return blue
	case "POST":
		return cyan
	default:
		return white
	}
}

// Logger returns the access-log middleware, printing one line per
// request through the toolkits logger.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		code := c.Writer.Status()
		method := c.Request.Method

		if colored {
			logger.Infof("%s %3d %s| %13v | %15s |%s %-7s %s %s",
				statusColor(code), code, reset, latency, c.ClientIP(),
				methodColor(method), method, reset, path)
		} else {
			logger.Infof("%3d | %13v | %15s | %-7s %s",
				code, latency, c.ClientIP(), method, path)
		}
	}
}
