package router

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/operis/vigil/models"
	"github.com/operis/vigil/pkg/ierr"

	"github.com/gin-gonic/gin"
)

const defaultLimit = 20

func dangerous(v interface{}, code ...int) {
	ierr.Dangerous(v, code...)
}

func bomb(code int, format string, a ...interface{}) {
	ierr.Bomb(code, format, a...)
}

func bind(c *gin.Context, ptr interface{}) {
	dangerous(c.ShouldBindJSON(ptr), http.StatusBadRequest)
}

func urlParamStr(c *gin.Context, field string) string {
	val := c.Param(field)

	if val == "" {
		bomb(http.StatusBadRequest, "url param[%s] is blank", field)
	}

	return val
}

func urlParamInt64(c *gin.Context, field string) int64 {
	strval := urlParamStr(c, field)
	intval, err := strconv.ParseInt(strval, 10, 64)
	if err != nil {
		bomb(http.StatusBadRequest, "cannot convert %s to int64", strval)
	}

	return intval
}

func queryStr(c *gin.Context, key string, defaultVal ...string) string {
	val := c.Query(key)
	if val != "" {
		return val
	}

	if len(defaultVal) == 0 {
		bomb(http.StatusBadRequest, "query param[%s] is necessary", key)
	}

	return defaultVal[0]
}

func queryInt(c *gin.Context, key string, defaultVal ...int) int {
	strv := c.Query(key)
	if strv != "" {
		intv, err := strconv.Atoi(strv)
		if err != nil {
			bomb(http.StatusBadRequest, "cannot convert [%s] to int", strv)
		}
		return intv
	}

	if len(defaultVal) == 0 {
		bomb(http.StatusBadRequest, "query param[%s] is necessary", key)
	}

	return defaultVal[0]
}

func queryInt64(c *gin.Context, key string, defaultVal ...int64) int64 {
	strv := c.Query(key)
	if strv != "" {
		intv, err := strconv.ParseInt(strv, 10, 64)
		if err != nil {
			bomb(http.StatusBadRequest, "cannot convert [%s] to int64", strv)
		}
		return intv
	}

	if len(defaultVal) == 0 {
		bomb(http.StatusBadRequest, "query param[%s] is necessary", key)
	}

	return defaultVal[0]
}

func offset(c *gin.Context, limit int) int {
	if limit <= 0 {
		limit = defaultLimit
	}

	page := queryInt(c, "p", 1)
	return (page - 1) * limit
}

// domainCode maps the model error taxonomy to a http status.
func domainCode(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func dangerousDomain(err error) {
	if err != nil {
		ierr.Dangerous(err, domainCode(err))
	}
}

func renderMessage(c *gin.Context, v interface{}, statusCode ...int) {
	code := 200
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	if v == nil {
		c.JSON(code, gin.H{"err": ""})
		return
	}

	switch t := v.(type) {
	case string:
		c.JSON(code, gin.H{"err": t})
	case error:
		c.JSON(code, gin.H{"err": t.Error()})
	}
}

func renderData(c *gin.Context, data interface{}, err error, statusCode ...int) {
	code := 200
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	if err == nil {
		c.JSON(code, gin.H{"dat": data, "err": ""})
		return
	}

	renderMessage(c, err.Error(), domainCode(err))
}
