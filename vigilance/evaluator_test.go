package vigilance

import (
	"testing"

	"github.com/operis/vigil/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name     string
		current  float64
		target   float64
		severity string
		breached bool
	}{
		{"no target", 5, 0, "", false},
		{"negative target", 5, -10, "", false},
		{"met exactly", 100, 100, "", false},
		{"exceeded", 130, 100, "", false},
		{"just under", 99.9, 100, models.SeverityMedium, true},
		{"at seventy percent", 70, 100, models.SeverityMedium, true},
		{"mid band", 75, 100, models.SeverityMedium, true},
		{"below seventy percent", 69.9, 100, models.SeverityHigh, true},
		{"far below", 10, 100, models.SeverityHigh, true},
		{"zero value", 0, 100, models.SeverityHigh, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			severity, breached := Evaluate(&models.UserKPI{
				CurrentValue: tc.current,
				TargetValue:  tc.target,
			})
			assert.Equal(t, tc.breached, breached)
			assert.Equal(t, tc.severity, severity)
		})
	}
}
