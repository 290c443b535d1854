package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/operis/vigil/pkg/ctx"
	"github.com/operis/vigil/pkg/ormx"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// unit kinds decide the upsert semantics: count/total accumulate,
// average/percentage replace.
const (
	UnitCount      = "count"
	UnitTotal      = "total"
	UnitAverage    = "average"
	UnitPercentage = "percentage"
)

func UnitValid(unit string) bool {
	switch unit {
	case UnitCount, UnitTotal, UnitAverage, UnitPercentage:
		return true
	}
	return false
}

// UserKPI is one tracked metric value for a (company, user, module,
// kpi, period) tuple. Rows are never deleted, a new period key
// supersedes the old one.
type UserKPI struct {
	Id                 int64   `json:"id" gorm:"primaryKey"`
	CompanyId          int64   `json:"company_id" gorm:"uniqueIndex:idx_kpi_tuple"`
	UserId             int64   `json:"user_id" gorm:"uniqueIndex:idx_kpi_tuple"`
	Module             string  `json:"module" gorm:"type:varchar(50);uniqueIndex:idx_kpi_tuple"`
	KpiName            string  `json:"kpi_name" gorm:"type:varchar(100);uniqueIndex:idx_kpi_tuple"`
	Period             string  `json:"period" gorm:"type:varchar(20);uniqueIndex:idx_kpi_tuple"` // YYYY-MM
	KpiDescription     string  `json:"kpi_description" gorm:"type:varchar(1024)"`
	Unit               string  `json:"unit" gorm:"type:varchar(20)"`
	TargetValue        float64 `json:"target_value"`
	CurrentValue       float64 `json:"current_value"`
	AchievementPercent float64 `json:"achievement_percent"`
	LastUpdated        int64   `json:"last_updated"`
	CreatedAt          int64   `json:"created_at"`
}

func (k *UserKPI) TableName() string {
	return "user_kpis"
}

// PeriodKey buckets metric history by calendar month.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func (k *UserKPI) Verify() error {
	k.Module = strings.TrimSpace(k.Module)
	if k.Module == "" {
		return fmt.Errorf("%w: module is blank", ErrInvalidInput)
	}

	k.KpiName = strings.TrimSpace(k.KpiName)
	if k.KpiName == "" {
		return fmt.Errorf("%w: kpi_name is blank", ErrInvalidInput)
	}

	if !UnitValid(k.Unit) {
		return fmt.Errorf("%w: unknown unit: %s", ErrInvalidInput, k.Unit)
	}

	if math.IsNaN(k.CurrentValue) || math.IsInf(k.CurrentValue, 0) {
		return fmt.Errorf("%w: value is not a finite number", ErrInvalidInput)
	}

	if k.TargetValue < 0 || math.IsNaN(k.TargetValue) || math.IsInf(k.TargetValue, 0) {
		return fmt.Errorf("%w: target_value must be >= 0", ErrInvalidInput)
	}

	return nil
}

func (k *UserKPI) recalcAchievement() {
	if k.TargetValue > 0 {
		k.AchievementPercent = k.CurrentValue / k.TargetValue * 100
	} else {
		k.AchievementPercent = 0
	}
}

func KPIGet(ctx *ctx.Context, companyId, userId int64, module, kpiName, period string) (*UserKPI, error) {
	var lst []*UserKPI
	err := DB(ctx).Where("company_id=? and user_id=? and module=? and kpi_name=? and period=?",
		companyId, userId, module, kpiName, period).Find(&lst).Error
	if err != nil {
		return nil, err
	}

	if len(lst) == 0 {
		return nil, nil
	}

	return lst[0], nil
}

// KPIUpsert applies one observation to the metric row of the tuple,
// inside the transaction the caller supplies. count/total units add the
// value to the stored one, average/percentage units replace it outright
// (last write wins, earlier contributions are discarded). The row is
// locked for the duration of the transaction so concurrent increments
// cannot lose updates; sqlite serializes writers on its own and does
// not accept the lock clause.
func KPIUpsert(tx *gorm.DB, in *UserKPI, now time.Time) (*UserKPI, error) {
	if err := in.Verify(); err != nil {
		return nil, err
	}

	kpi, err := kpiGetLocked(tx, in)
	if err != nil {
		return nil, err
	}

	if kpi == nil {
		fresh := &UserKPI{
			CompanyId:      in.CompanyId,
			UserId:         in.UserId,
			Module:         in.Module,
			KpiName:        in.KpiName,
			Period:         in.Period,
			KpiDescription: in.KpiDescription,
			Unit:           in.Unit,
			TargetValue:    in.TargetValue,
			CurrentValue:   in.CurrentValue,
			LastUpdated:    now.Unix(),
			CreatedAt:      now.Unix(),
		}

		fresh.recalcAchievement()

		// the row lock cannot cover a row that does not exist yet, so
		// two first-ever observations of one tuple can both reach the
		// create. the savepoint keeps the loser's duplicate-key error
		// from poisoning the transaction; it re-reads the winner's row
		// and applies its observation on top.
		tx.SavePoint("kpi_first_touch")
		createErr := tx.Create(fresh).Error
		if createErr == nil {
			return fresh, nil
		}
		tx.RollbackTo("kpi_first_touch")

		kpi, err = kpiGetLocked(tx, in)
		if err != nil {
			return nil, err
		}
		if kpi == nil {
			return nil, createErr
		}
	}

	switch in.Unit {
	case UnitCount, UnitTotal:
		kpi.CurrentValue += in.CurrentValue
	default:
		kpi.CurrentValue = in.CurrentValue
	}

	if in.TargetValue > 0 {
		kpi.TargetValue = in.TargetValue
	}

	if in.KpiDescription != "" {
		kpi.KpiDescription = in.KpiDescription
	}

	kpi.Unit = in.Unit
	kpi.recalcAchievement()
	kpi.LastUpdated = now.Unix()

	err = tx.Model(kpi).Select("current_value", "target_value", "achievement_percent",
		"unit", "kpi_description", "last_updated").Updates(kpi).Error
	if err != nil {
		return nil, err
	}

	return kpi, nil
}

// kpiGetLocked reads the tuple's row holding a FOR UPDATE lock for the
// rest of the transaction, where the dialect supports one.
func kpiGetLocked(tx *gorm.DB, in *UserKPI) (*UserKPI, error) {
	session := tx
	if ormx.SupportsRowLock(tx) {
		session = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var lst []*UserKPI
	err := session.Where("company_id=? and user_id=? and module=? and kpi_name=? and period=?",
		in.CompanyId, in.UserId, in.Module, in.KpiName, in.Period).Find(&lst).Error
	if err != nil {
		return nil, err
	}

	if len(lst) == 0 {
		return nil, nil
	}

	return lst[0], nil
}

func KPIGets(ctx *ctx.Context, companyId, userId int64, module, period string, limit, offset int) ([]*UserKPI, error) {
	session := kpiQueryBuild(DB(ctx), companyId, userId, module, period)

	var lst []*UserKPI
	err := session.Order("module asc, kpi_name asc").Limit(limit).Offset(offset).Find(&lst).Error
	return lst, err
}

func KPITotal(ctx *ctx.Context, companyId, userId int64, module, period string) (int64, error) {
	return Count(kpiQueryBuild(DB(ctx).Model(&UserKPI{}), companyId, userId, module, period))
}

func kpiQueryBuild(session *gorm.DB, companyId, userId int64, module, period string) *gorm.DB {
	session = session.Where("company_id=? and user_id=?", companyId, userId)

	if module != "" {
		session = session.Where("module=?", module)
	}

	if period != "" {
		session = session.Where("period=?", period)
	}

	return session
}
