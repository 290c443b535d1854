package router

import (
	"fmt"
	"time"

	"github.com/operis/vigil/center/cstats"
	"github.com/operis/vigil/pkg/ctx"
	"github.com/operis/vigil/pkg/httpx"
	"github.com/operis/vigil/storage"
	"github.com/operis/vigil/vigilance"

	"github.com/gin-gonic/gin"
)

type Router struct {
	HTTP   httpx.Config
	Ctx    *ctx.Context
	Redis  storage.Redis
	Engine *vigilance.Engine
}

func New(httpConfig httpx.Config, redis storage.Redis, ctx *ctx.Context, engine *vigilance.Engine) *Router {
	return &Router{
		HTTP:   httpConfig,
		Ctx:    ctx,
		Redis:  redis,
		Engine: engine,
	}
}

func stat() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		code := fmt.Sprintf("%d", c.Writer.Status())
		method := c.Request.Method
		labels := []string{cstats.Service, code, c.FullPath(), method}

		cstats.RequestCounter.WithLabelValues(labels...).Inc()
		cstats.RequestDuration.WithLabelValues(labels...).Observe(float64(time.Since(start).Seconds()))
	}
}

func (rt *Router) Config(r *gin.Engine) {
	r.Use(stat())

	pages := r.Group("/api/vigil")
	{
		pages.POST("/auth/login", rt.jwtMock(), rt.loginPost)
		pages.POST("/auth/logout", rt.jwtMock(), rt.auth(), rt.user(), rt.logoutPost)
		pages.POST("/auth/refresh", rt.jwtMock(), rt.refreshPost)

		pages.GET("/self", rt.auth(), rt.user(), rt.selfGet)

		pages.POST("/busi-event", rt.auth(), rt.user(), rt.busiEventAdd)

		pages.GET("/kpis", rt.auth(), rt.user(), rt.kpiGets)

		pages.GET("/alerts", rt.auth(), rt.user(), rt.alertGets)
		pages.POST("/alerts", rt.auth(), rt.user(), rt.alertAdd)
		pages.GET("/alerts/:aid", rt.auth(), rt.user(), rt.alertGet)
		pages.PUT("/alerts/:aid/ack", rt.auth(), rt.user(), rt.alertAck)
	}

	service := r.Group("/v1/vigil")
	{
		service.GET("/health", rt.healthGet)
	}
}
