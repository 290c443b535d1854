package vigilance

import (
	"github.com/operis/vigil/models"
)

// Evaluate decides whether a just-updated KPI breaches its target.
// Metrics with no positive target are not evaluated at all. Every
// metric is treated as higher-is-better: the source system never
// modeled direction.
//
// ratio >= 1.0        no breach
// 0.7 <= ratio < 1.0  medium
// ratio < 0.7         high
func Evaluate(kpi *models.UserKPI) (severity string, breached bool) {
	if kpi.TargetValue <= 0 {
		return "", false
	}

	ratio := kpi.CurrentValue / kpi.TargetValue

	switch {
	case ratio >= 1.0:
		return "", false
	case ratio >= 0.7:
		return models.SeverityMedium, true
	default:
		return models.SeverityHigh, true
	}
}
