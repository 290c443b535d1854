package vigilance

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/operis/vigil/models"
	"github.com/operis/vigil/models/migrate"
	"github.com/operis/vigil/pkg/ctx"
	"github.com/operis/vigil/pkg/ormx"

	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T) (*Engine, *ctx.Context) {
	t.Helper()

	db, err := ormx.New(ormx.DBConfig{
		DBType: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "vigil.db"),
	})
	require.NoError(t, err)

	migrate.Migrate(db)

	// one connection so concurrent transactions queue instead of
	// hitting sqlite's busy errors
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	c := ctx.NewContext(context.Background(), db)
	return NewEngine(c), c
}

func TestTrackBreachLifecycle(t *testing.T) {
	engine, c := testEngine(t)

	in := TrackInput{
		CompanyId:   1,
		UserId:      7,
		Module:      "hr",
		KpiName:     "attendance_rate",
		Unit:        models.UnitPercentage,
		Value:       65,
		TargetValue: 90,
	}

	res, err := engine.Track(in)
	require.NoError(t, err)
	require.NotNil(t, res.Alert)
	require.Equal(t, models.SeverityHigh, res.Alert.Severity)
	require.Equal(t, models.AlertStatusOpen, res.Alert.Status)
	require.Equal(t, models.AlertTypePerformance, res.Alert.AlertType)
	require.True(t, res.Alert.AutoGenerated)
	require.Equal(t, 90.0, res.Alert.ThresholdValue)
	require.Equal(t, 65.0, res.Alert.ActualValue)

	firstId := res.Alert.Id

	// still breaching, less badly: the open alert is refreshed, not
	// duplicated
	in.Value = 75
	res, err = engine.Track(in)
	require.NoError(t, err)
	require.NotNil(t, res.Alert)
	require.Equal(t, firstId, res.Alert.Id)
	require.Equal(t, models.SeverityMedium, res.Alert.Severity)
	require.Equal(t, 75.0, res.Alert.ActualValue)

	total, err := models.AlertTotal(c, 1, "", "", "", "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	_, err = models.AlertAcknowledge(c, 1, firstId, 42)
	require.NoError(t, err)

	// a breach after acknowledgement opens a fresh alert; the
	// acknowledged one stays in the history
	in.Value = 60
	res, err = engine.Track(in)
	require.NoError(t, err)
	require.NotNil(t, res.Alert)
	require.NotEqual(t, firstId, res.Alert.Id)
	require.Equal(t, models.AlertStatusOpen, res.Alert.Status)

	total, err = models.AlertTotal(c, 1, "", "", "", "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

func TestTrackRecovery(t *testing.T) {
	engine, _ := testEngine(t)

	in := TrackInput{
		CompanyId:   1,
		UserId:      7,
		Module:      "hr",
		KpiName:     "attendance_rate",
		Unit:        models.UnitPercentage,
		Value:       95,
		TargetValue: 90,
	}

	res, err := engine.Track(in)
	require.NoError(t, err)
	require.Nil(t, res.Alert)
	require.Equal(t, 95.0, res.Kpi.CurrentValue)
}

func TestTrackNoTargetNoAlert(t *testing.T) {
	engine, c := testEngine(t)

	res, err := engine.Track(TrackInput{
		CompanyId: 1,
		UserId:    7,
		Module:    "system",
		KpiName:   "login_count",
		Unit:      models.UnitCount,
		Value:     1,
	})
	require.NoError(t, err)
	require.Nil(t, res.Alert)

	total, err := models.AlertTotal(c, 1, "", "", "", "", 0, 0)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestTrackPeriodization(t *testing.T) {
	engine, _ := testEngine(t)

	in := TrackInput{
		CompanyId: 1,
		UserId:    7,
		Module:    "crm",
		KpiName:   "customers_created",
		Unit:      models.UnitCount,
		Value:     2,
	}

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	res, err := engine.TrackAt(in, jan)
	require.NoError(t, err)
	require.Equal(t, "2026-01", res.Kpi.Period)

	res, err = engine.TrackAt(in, jan)
	require.NoError(t, err)
	require.Equal(t, 4.0, res.Kpi.CurrentValue)

	// a new month starts counting from scratch
	res, err = engine.TrackAt(in, feb)
	require.NoError(t, err)
	require.Equal(t, "2026-02", res.Kpi.Period)
	require.Equal(t, 2.0, res.Kpi.CurrentValue)
}

func TestTrackConcurrentIncrements(t *testing.T) {
	engine, c := testEngine(t)

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := engine.Track(TrackInput{
					CompanyId: 1,
					UserId:    7,
					Module:    "crm",
					KpiName:   "quotes_created",
					Unit:      models.UnitCount,
					Value:     1,
				})
				if err != nil {
					errs <- err
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	kpi, err := models.KPIGet(c, 1, 7, "crm", "quotes_created", models.PeriodKey(time.Now()))
	require.NoError(t, err)
	require.NotNil(t, kpi)
	require.Equal(t, float64(workers*perWorker), kpi.CurrentValue)
}
