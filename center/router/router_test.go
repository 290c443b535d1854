package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/operis/vigil/models/migrate"
	"github.com/operis/vigil/pkg/aop"
	"github.com/operis/vigil/pkg/ctx"
	"github.com/operis/vigil/pkg/httpx"
	"github.com/operis/vigil/pkg/ormx"
	"github.com/operis/vigil/vigilance"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := ormx.New(ormx.DBConfig{
		DBType: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "vigil.db"),
	})
	require.NoError(t, err)
	migrate.Migrate(db)

	c := ctx.NewContext(context.Background(), db)

	httpConfig := httpx.Config{}
	httpConfig.ProxyAuth.Enable = true
	httpConfig.ProxyAuth.HeaderUserNameKey = "X-User-Name"
	httpConfig.ProxyAuth.DefaultRoles = []string{"Standard"}

	rt := New(httpConfig, nil, c, vigilance.NewEngine(c))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(aop.Recovery())
	rt.Config(r)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, user, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Name", user)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestBusiEventFlow(t *testing.T) {
	r, _ := testRouter(t)

	w, resp := doJSON(t, r, "POST", "/api/vigil/busi-event", "mary",
		`{"module":"hr","kpi_name":"attendance_rate","unit":"percentage","value":65,"target_value":90}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "", resp["err"])

	dat := resp["dat"].(map[string]interface{})
	alert := dat["alert"].(map[string]interface{})
	require.Equal(t, "high", alert["severity"])
	require.Equal(t, "open", alert["status"])

	alertId := int64(alert["id"].(float64))

	// acknowledge it
	w, resp = doJSON(t, r, "PUT", fmt.Sprintf("/api/vigil/alerts/%d/ack", alertId), "mary", "")
	require.Equal(t, http.StatusOK, w.Code)
	acked := resp["dat"].(map[string]interface{})
	require.Equal(t, "acknowledged", acked["status"])

	// listing shows the acknowledged alert
	w, resp = doJSON(t, r, "GET", "/api/vigil/alerts?status=acknowledged", "mary", "")
	require.Equal(t, http.StatusOK, w.Code)
	lst := resp["dat"].(map[string]interface{})
	require.Equal(t, float64(1), lst["total"])
}

func TestBusiEventRejectsBadUnit(t *testing.T) {
	r, _ := testRouter(t)

	w, resp := doJSON(t, r, "POST", "/api/vigil/busi-event", "mary",
		`{"module":"hr","kpi_name":"attendance_rate","unit":"hours","value":65}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotEqual(t, "", resp["err"])
}

func TestAlertGetUnknownId(t *testing.T) {
	r, _ := testRouter(t)

	w, _ := doJSON(t, r, "GET", "/api/vigil/alerts/12345", "mary", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertAckUnknownId(t *testing.T) {
	r, _ := testRouter(t)

	w, _ := doJSON(t, r, "PUT", "/api/vigil/alerts/12345/ack", "mary", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnauthenticatedRequest(t *testing.T) {
	r, _ := testRouter(t)

	w, _ := doJSON(t, r, "GET", "/api/vigil/kpis", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestKpiListing(t *testing.T) {
	r, _ := testRouter(t)

	for i := 0; i < 3; i++ {
		w, _ := doJSON(t, r, "POST", "/api/vigil/busi-event", "mary",
			`{"module":"crm","kpi_name":"customers_created","unit":"count","value":1}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, resp := doJSON(t, r, "GET", "/api/vigil/kpis?module=crm", "mary", "")
	require.Equal(t, http.StatusOK, w.Code)

	dat := resp["dat"].(map[string]interface{})
	require.Equal(t, float64(1), dat["total"])

	list := dat["list"].([]interface{})
	kpi := list[0].(map[string]interface{})
	require.Equal(t, float64(3), kpi["current_value"])
}

// a storage failure in the list endpoints must surface as 500, not as
// an error body with a 200 status
func TestListEndpointsReportStorageFailure(t *testing.T) {
	r, db := testRouter(t)

	// first request creates the user, so auth keeps working after the
	// domain tables are gone
	w, _ := doJSON(t, r, "GET", "/api/vigil/kpis", "mary", "")
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Migrator().DropTable("user_kpis"))
	require.NoError(t, db.Migrator().DropTable("vigilance_alerts"))

	w, resp := doJSON(t, r, "GET", "/api/vigil/kpis", "mary", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotEqual(t, "", resp["err"])

	w, resp = doJSON(t, r, "GET", "/api/vigil/alerts", "mary", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotEqual(t, "", resp["err"])

	w, resp = doJSON(t, r, "GET", "/api/vigil/alerts/1", "mary", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotEqual(t, "", resp["err"])
}
