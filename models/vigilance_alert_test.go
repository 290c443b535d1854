package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlertAcknowledge(t *testing.T) {
	c := testCtx(t)

	alert := &VigilanceAlert{
		CompanyId:      1,
		UserId:         7,
		AlertType:      AlertTypePerformance,
		Severity:       SeverityHigh,
		Module:         "hr",
		Title:          "KPI Below Target: attendance_rate",
		ThresholdValue: 90,
		ActualValue:    65,
	}
	require.NoError(t, alert.Add(c))
	require.True(t, alert.IsOpen())

	acked, err := AlertAcknowledge(c, 1, alert.Id, 42)
	require.NoError(t, err)
	require.Equal(t, AlertStatusAcknowledged, acked.Status)
	require.Equal(t, int64(42), acked.AcknowledgedBy)
	require.NotZero(t, acked.AcknowledgedAt)

	// second acknowledgement keeps the original actor and timestamp
	again, err := AlertAcknowledge(c, 1, alert.Id, 99)
	require.NoError(t, err)
	require.Equal(t, int64(42), again.AcknowledgedBy)
	require.Equal(t, acked.AcknowledgedAt, again.AcknowledgedAt)
}

func TestAlertAcknowledgeScoping(t *testing.T) {
	c := testCtx(t)

	alert := &VigilanceAlert{
		CompanyId: 2,
		UserId:    7,
		AlertType: AlertTypeSecurity,
		Severity:  SeverityMedium,
		Module:    "system",
		Title:     "repeated failed logins",
	}
	require.NoError(t, alert.Add(c))

	// another company's token must not see it
	_, err := AlertAcknowledge(c, 1, alert.Id, 42)
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = AlertAcknowledge(c, 2, alert.Id+1000, 42)
	require.True(t, errors.Is(err, ErrNotFound))

	got, err := AlertGetById(c, 2, alert.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.IsOpen())
}

func TestAlertVerify(t *testing.T) {
	bad := &VigilanceAlert{AlertType: "weather", Severity: SeverityHigh, Title: "t"}
	require.True(t, errors.Is(bad.Verify(), ErrInvalidInput))

	bad = &VigilanceAlert{AlertType: AlertTypeBusiness, Severity: "severe", Title: "t"}
	require.True(t, errors.Is(bad.Verify(), ErrInvalidInput))

	bad = &VigilanceAlert{AlertType: AlertTypeBusiness, Severity: SeverityHigh, Title: "   "}
	require.True(t, errors.Is(bad.Verify(), ErrInvalidInput))
}

// manual alerts carry the whole severity scale, not just the two
// levels threshold breaches produce
func TestManualAlertSeverities(t *testing.T) {
	c := testCtx(t)

	low := &VigilanceAlert{
		CompanyId: 1,
		AlertType: AlertTypeBusiness,
		Severity:  SeverityLow,
		Module:    "support",
		Title:     "New Support Ticket Created",
	}
	require.NoError(t, low.Add(c))
	require.True(t, low.IsOpen())

	critical := &VigilanceAlert{
		CompanyId: 1,
		AlertType: AlertTypeSecurity,
		Severity:  SeverityCritical,
		Module:    "system",
		Title:     "Repeated failed logins",
	}
	require.NoError(t, critical.Add(c))

	lst, err := AlertGets(c, 1, SeverityLow, "", "", "", 0, 0, 20, 0)
	require.NoError(t, err)
	require.Len(t, lst, 1)
	require.Equal(t, "support", lst[0].Module)
}

func TestAlertGetsFilters(t *testing.T) {
	c := testCtx(t)

	seed := []*VigilanceAlert{
		{CompanyId: 1, AlertType: AlertTypePerformance, Severity: SeverityHigh, Module: "hr", Title: "KPI Below Target: attendance_rate"},
		{CompanyId: 1, AlertType: AlertTypePerformance, Severity: SeverityMedium, Module: "crm", Title: "KPI Below Target: deals_created"},
		{CompanyId: 2, AlertType: AlertTypePerformance, Severity: SeverityHigh, Module: "hr", Title: "KPI Below Target: attendance_rate"},
	}
	for _, a := range seed {
		require.NoError(t, a.Add(c))
	}

	lst, err := AlertGets(c, 1, "", "", "", "", 0, 0, 20, 0)
	require.NoError(t, err)
	require.Len(t, lst, 2)

	lst, err = AlertGets(c, 1, SeverityHigh, "", "", "", 0, 0, 20, 0)
	require.NoError(t, err)
	require.Len(t, lst, 1)
	require.Equal(t, "hr", lst[0].Module)

	lst, err = AlertGets(c, 1, "", "", "", "deals", 0, 0, 20, 0)
	require.NoError(t, err)
	require.Len(t, lst, 1)

	total, err := AlertTotal(c, 2, "", "", "", "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}
