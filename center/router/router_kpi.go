package router

import (
	"time"

	"github.com/operis/vigil/models"

	"github.com/gin-gonic/gin"
)

func (rt *Router) kpiGets(c *gin.Context) {
	module := queryStr(c, "module", "")
	period := queryStr(c, "period", models.PeriodKey(time.Now()))
	limit := queryInt(c, "limit", defaultLimit)

	me := loggedUser(c)

	total, err := models.KPITotal(rt.Ctx, me.CompanyId, me.Id, module, period)
	dangerousDomain(err)

	lst, err := models.KPIGets(rt.Ctx, me.CompanyId, me.Id, module, period, limit, offset(c, limit))
	dangerousDomain(err)

	renderData(c, gin.H{
		"list":  lst,
		"total": total,
	}, nil)
}
