package aop

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"

	"github.com/operis/vigil/pkg/ierr"

	"github.com/gin-gonic/gin"
	"github.com/toolkits/pkg/logger"
)

// Recovery recovers from handler panics. ierr.PageError panics are the
// normal control flow of the bomb/dangerous helpers and render as a
// json error body; anything else gets logged with a stack and a 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if pe, ok := err.(ierr.PageError); ok {
					c.JSON(pe.Code, gin.H{"err": pe.Message})
					c.Abort()
					return
				}

				// connection reset by the client is not worth a stack
				if ne, ok := err.(*net.OpError); ok {
					if se, ok := ne.Err.(*os.SyscallError); ok {
						msg := strings.ToLower(se.Error())
						if strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer") {
							c.Abort()
							return
						}
					}
				}

				stack := make([]byte, 8192)
				stack = stack[:runtime.Stack(stack, false)]
				logger.Errorf("PANIC: %v\n%s", err, stack)

				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()

		c.Next()
	}
}
