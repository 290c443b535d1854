package router

import (
	"net/http"

	"github.com/operis/vigil/models"

	"github.com/gin-gonic/gin"
)

func getTimeRange(c *gin.Context) (stime, etime int64) {
	stime = queryInt64(c, "stime", 0)
	etime = queryInt64(c, "etime", 0)
	if etime != 0 && stime >= etime {
		bomb(http.StatusBadRequest, "stime(%d) >= etime(%d)", stime, etime)
	}
	return
}

func (rt *Router) alertGets(c *gin.Context) {
	stime, etime := getTimeRange(c)
	severity := queryStr(c, "severity", "")
	module := queryStr(c, "module", "")
	status := queryStr(c, "status", "")
	query := queryStr(c, "query", "")
	limit := queryInt(c, "limit", defaultLimit)

	me := loggedUser(c)

	total, err := models.AlertTotal(rt.Ctx, me.CompanyId, severity, module, status, query, stime, etime)
	dangerousDomain(err)

	lst, err := models.AlertGets(rt.Ctx, me.CompanyId, severity, module, status, query,
		stime, etime, limit, offset(c, limit))
	dangerousDomain(err)

	renderData(c, gin.H{
		"list":  lst,
		"total": total,
	}, nil)
}

func (rt *Router) alertGet(c *gin.Context) {
	aid := urlParamInt64(c, "aid")

	me := loggedUser(c)

	alert, err := models.AlertGetById(rt.Ctx, me.CompanyId, aid)
	dangerousDomain(err)

	if alert == nil {
		bomb(http.StatusNotFound, "no such alert")
	}

	renderData(c, alert, nil)
}

func (rt *Router) alertAck(c *gin.Context) {
	aid := urlParamInt64(c, "aid")

	me := loggedUser(c)

	alert, err := models.AlertAcknowledge(rt.Ctx, me.CompanyId, aid, me.Id)
	dangerousDomain(err)

	renderData(c, alert, nil)
}

type alertForm struct {
	AlertType          string  `json:"alert_type" binding:"required"`
	Severity           string  `json:"severity" binding:"required"`
	Module             string  `json:"module"`
	Title              string  `json:"title" binding:"required"`
	Description        string  `json:"description"`
	AffectedEntityType string  `json:"affected_entity_type"`
	AffectedEntityId   int64   `json:"affected_entity_id"`
	ThresholdValue     float64 `json:"threshold_value"`
	ActualValue        float64 `json:"actual_value"`
}

// alertAdd creates a manual vigilance alert, the path business modules
// use for conditions that are not KPI breaches (a high-value invoice, a
// stock-out, a flagged post).
func (rt *Router) alertAdd(c *gin.Context) {
	var f alertForm
	bind(c, &f)

	me := loggedUser(c)

	alert := &models.VigilanceAlert{
		CompanyId:          me.CompanyId,
		UserId:             me.Id,
		AlertType:          f.AlertType,
		Severity:           f.Severity,
		Module:             f.Module,
		Title:              f.Title,
		Description:        f.Description,
		AffectedEntityType: f.AffectedEntityType,
		AffectedEntityId:   f.AffectedEntityId,
		ThresholdValue:     f.ThresholdValue,
		ActualValue:        f.ActualValue,
		AutoGenerated:      false,
	}

	dangerousDomain(alert.Add(rt.Ctx))

	renderData(c, alert, nil)
}

func (rt *Router) healthGet(c *gin.Context) {
	database := "up"

	sqlDB, err := models.DB(rt.Ctx).DB()
	if err != nil || sqlDB.Ping() != nil {
		database = "down"
	}

	code := 200
	status := "ok"
	if database == "down" {
		code = http.StatusServiceUnavailable
		status = "error"
	}

	renderData(c, gin.H{
		"status":   status,
		"database": database,
	}, nil, code)
}
