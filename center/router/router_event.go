package router

import (
	"github.com/operis/vigil/vigilance"

	"github.com/gin-gonic/gin"
)

// busiEventAdd ingests one business event for the logged-in user: the
// KPI row moves, the threshold is evaluated, and a vigilance alert may
// come back along with the updated KPI.
func (rt *Router) busiEventAdd(c *gin.Context) {
	var f vigilance.TrackInput
	bind(c, &f)

	me := loggedUser(c)
	f.CompanyId = me.CompanyId
	f.UserId = me.Id

	res, err := rt.Engine.Track(f)
	dangerousDomain(err)

	renderData(c, res, nil)
}
