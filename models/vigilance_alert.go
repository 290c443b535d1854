package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/operis/vigil/pkg/ctx"

	"gorm.io/gorm"
)

const (
	AlertStatusOpen         = "open"
	AlertStatusAcknowledged = "acknowledged"

	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"

	AlertTypePerformance = "performance"
	AlertTypeSecurity    = "security"
	AlertTypeCompliance  = "compliance"
	AlertTypeBusiness    = "business"
)

func AlertTypeValid(typ string) bool {
	switch typ {
	case AlertTypePerformance, AlertTypeSecurity, AlertTypeCompliance, AlertTypeBusiness:
		return true
	}
	return false
}

// SeverityValid covers the full vocabulary manual alerts may carry.
// Threshold breaches only ever produce medium and high.
func SeverityValid(severity string) bool {
	switch severity {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// VigilanceAlert is a detected condition worth human attention. Rows
// are append-only; the only mutation is acknowledgement.
type VigilanceAlert struct {
	Id                 int64   `json:"id" gorm:"primaryKey"`
	CompanyId          int64   `json:"company_id" gorm:"index"`
	UserId             int64   `json:"user_id"`
	AlertType          string  `json:"alert_type" gorm:"type:varchar(50)"`
	Severity           string  `json:"severity" gorm:"type:varchar(20)"`
	Module             string  `json:"module" gorm:"type:varchar(50)"`
	Title              string  `json:"title" gorm:"type:varchar(200)"`
	Description        string  `json:"description" gorm:"type:varchar(4096)"`
	AffectedEntityType string  `json:"affected_entity_type" gorm:"type:varchar(50)"`
	AffectedEntityId   int64   `json:"affected_entity_id"`
	ThresholdValue     float64 `json:"threshold_value"`
	ActualValue        float64 `json:"actual_value"`
	Status             string  `json:"status" gorm:"type:varchar(20);index"`
	KpiId              int64   `json:"kpi_id" gorm:"index"` // 0 for manual alerts
	AutoGenerated      bool    `json:"auto_generated"`
	AcknowledgedBy     int64   `json:"acknowledged_by"`
	AcknowledgedAt     int64   `json:"acknowledged_at"`
	CreatedAt          int64   `json:"created_at"`
	UpdatedAt          int64   `json:"updated_at"`
}

func (a *VigilanceAlert) TableName() string {
	return "vigilance_alerts"
}

func (a *VigilanceAlert) IsOpen() bool {
	return a.Status == AlertStatusOpen
}

func (a *VigilanceAlert) Verify() error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return fmt.Errorf("%w: title is blank", ErrInvalidInput)
	}

	if !AlertTypeValid(a.AlertType) {
		return fmt.Errorf("%w: unknown alert_type: %s", ErrInvalidInput, a.AlertType)
	}

	if !SeverityValid(a.Severity) {
		return fmt.Errorf("%w: unknown severity: %s", ErrInvalidInput, a.Severity)
	}

	return nil
}

func (a *VigilanceAlert) Add(ctx *ctx.Context) error {
	if err := a.Verify(); err != nil {
		return err
	}

	now := time.Now().Unix()
	a.Status = AlertStatusOpen
	a.CreatedAt = now
	a.UpdatedAt = now
	return Insert(ctx, a)
}

func AlertGetById(ctx *ctx.Context, companyId, id int64) (*VigilanceAlert, error) {
	var lst []*VigilanceAlert
	err := DB(ctx).Where("id=? and company_id=?", id, companyId).Find(&lst).Error
	if err != nil {
		return nil, err
	}

	if len(lst) == 0 {
		return nil, nil
	}

	return lst[0], nil
}

// AlertAcknowledge moves an alert to the acknowledged state. Unknown
// ids and alerts of other companies report ErrNotFound. Acknowledging
// twice is a no-op.
func AlertAcknowledge(ctx *ctx.Context, companyId, id, userId int64) (*VigilanceAlert, error) {
	alert, err := AlertGetById(ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	if alert == nil {
		return nil, fmt.Errorf("%w: no such alert", ErrNotFound)
	}

	if alert.Status == AlertStatusAcknowledged {
		return alert, nil
	}

	now := time.Now().Unix()
	alert.Status = AlertStatusAcknowledged
	alert.AcknowledgedBy = userId
	alert.AcknowledgedAt = now
	alert.UpdatedAt = now

	err = DB(ctx).Model(alert).Select("status", "acknowledged_by", "acknowledged_at", "updated_at").Updates(alert).Error
	if err != nil {
		return nil, err
	}

	return alert, nil
}

// AlertOpenGetByKpiId is the dedup lookup: the open auto-generated
// alert already tracking this KPI row, if any.
func AlertOpenGetByKpiId(tx *gorm.DB, kpiId int64) (*VigilanceAlert, error) {
	var lst []*VigilanceAlert
	err := tx.Where("kpi_id=? and status=? and auto_generated=?", kpiId, AlertStatusOpen, true).Find(&lst).Error
	if err != nil {
		return nil, err
	}

	if len(lst) == 0 {
		return nil, nil
	}

	return lst[0], nil
}

func AlertGets(ctx *ctx.Context, companyId int64, severity, module, status, query string,
	stime, etime int64, limit, offset int) ([]*VigilanceAlert, error) {
	session := alertQueryBuild(DB(ctx), companyId, severity, module, status, query, stime, etime)

	var lst []*VigilanceAlert
	err := session.Order("created_at desc").Limit(limit).Offset(offset).Find(&lst).Error
	return lst, err
}

func AlertTotal(ctx *ctx.Context, companyId int64, severity, module, status, query string,
	stime, etime int64) (int64, error) {
	return Count(alertQueryBuild(DB(ctx).Model(&VigilanceAlert{}), companyId, severity, module, status, query, stime, etime))
}

func alertQueryBuild(session *gorm.DB, companyId int64, severity, module, status, query string,
	stime, etime int64) *gorm.DB {
	session = session.Where("company_id=?", companyId)

	if severity != "" {
		session = session.Where("severity=?", severity)
	}

	if module != "" {
		session = session.Where("module=?", module)
	}

	if status != "" {
		session = session.Where("status=?", status)
	}

	if stime != 0 && etime != 0 {
		session = session.Where("created_at between ? and ?", stime, etime)
	}

	if query != "" {
		arr := strings.Fields(query)
		for i := 0; i < len(arr); i++ {
			qarg := "%" + arr[i] + "%"
			session = session.Where("title like ? or description like ?", qarg, qarg)
		}
	}

	return session
}
