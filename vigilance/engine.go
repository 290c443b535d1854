package vigilance

import (
	"fmt"
	"time"

	"github.com/operis/vigil/models"
	"github.com/operis/vigil/pkg/ctx"

	"github.com/toolkits/pkg/logger"
	"gorm.io/gorm"
)

// Engine runs the single-pass KPI computation: apply the observation to
// the metric row, evaluate the threshold, materialize the alert. The
// whole pass happens in one database transaction, so a failure at any
// step leaves nothing half-written.
type Engine struct {
	ctx *ctx.Context
}

func NewEngine(ctx *ctx.Context) *Engine {
	return &Engine{ctx: ctx}
}

// TrackInput is one business event worth of KPI movement. Value is a
// delta for count/total units and an absolute reading for
// average/percentage units.
type TrackInput struct {
	CompanyId      int64   `json:"-"`
	UserId         int64   `json:"-"`
	Module         string  `json:"module" binding:"required"`
	KpiName        string  `json:"kpi_name" binding:"required"`
	KpiDescription string  `json:"kpi_description"`
	Unit           string  `json:"unit" binding:"required"`
	Value          float64 `json:"value"`
	TargetValue    float64 `json:"target_value"`
}

// TrackResult is what one pass produced. Alert is nil when the metric
// meets its target.
type TrackResult struct {
	Kpi   *models.UserKPI        `json:"kpi"`
	Alert *models.VigilanceAlert `json:"alert"`
}

func (e *Engine) Track(in TrackInput) (*TrackResult, error) {
	return e.TrackAt(in, time.Now())
}

// TrackAt is Track with an explicit clock, so periodization is
// testable.
func (e *Engine) TrackAt(in TrackInput, now time.Time) (*TrackResult, error) {
	res := &TrackResult{}

	err := models.DB(e.ctx).Transaction(func(tx *gorm.DB) error {
		kpi, err := models.KPIUpsert(tx, &models.UserKPI{
			CompanyId:      in.CompanyId,
			UserId:         in.UserId,
			Module:         in.Module,
			KpiName:        in.KpiName,
			Period:         models.PeriodKey(now),
			KpiDescription: in.KpiDescription,
			Unit:           in.Unit,
			TargetValue:    in.TargetValue,
			CurrentValue:   in.Value,
		}, now)
		if err != nil {
			return err
		}

		res.Kpi = kpi

		severity, breached := Evaluate(kpi)
		if !breached {
			return nil
		}

		alert, err := e.raise(tx, kpi, severity, now)
		if err != nil {
			return err
		}

		res.Alert = alert
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Alert != nil {
		logger.Infof("vigilance alert %d (%s) for kpi %s/%s of user %d",
			res.Alert.Id, res.Alert.Severity, res.Kpi.Module, res.Kpi.KpiName, res.Kpi.UserId)
	}

	return res, nil
}

// raise materializes the breach. An open auto-generated alert for the
// same KPI row is refreshed in place instead of duplicated; an
// acknowledged one stays put and a new alert is created.
func (e *Engine) raise(tx *gorm.DB, kpi *models.UserKPI, severity string, now time.Time) (*models.VigilanceAlert, error) {
	existing, err := models.AlertOpenGetByKpiId(tx, kpi.Id)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Severity = severity
		existing.ThresholdValue = kpi.TargetValue
		existing.ActualValue = kpi.CurrentValue
		existing.Description = breachDescription(kpi)
		existing.UpdatedAt = now.Unix()

		err = tx.Model(existing).Select("severity", "threshold_value", "actual_value",
			"description", "updated_at").Updates(existing).Error
		if err != nil {
			return nil, err
		}

		return existing, nil
	}

	alert := &models.VigilanceAlert{
		CompanyId:          kpi.CompanyId,
		UserId:             kpi.UserId,
		AlertType:          models.AlertTypePerformance,
		Severity:           severity,
		Module:             kpi.Module,
		Title:              fmt.Sprintf("KPI Below Target: %s", kpi.KpiName),
		Description:        breachDescription(kpi),
		AffectedEntityType: "user",
		AffectedEntityId:   kpi.UserId,
		ThresholdValue:     kpi.TargetValue,
		ActualValue:        kpi.CurrentValue,
		Status:             models.AlertStatusOpen,
		KpiId:              kpi.Id,
		AutoGenerated:      true,
		CreatedAt:          now.Unix(),
		UpdatedAt:          now.Unix(),
	}

	if err := tx.Create(alert).Error; err != nil {
		return nil, err
	}

	return alert, nil
}

func breachDescription(kpi *models.UserKPI) string {
	return fmt.Sprintf("User %d KPI %q is at %.1f%% of target in %s",
		kpi.UserId, kpi.KpiName, kpi.AchievementPercent, kpi.Period)
}
