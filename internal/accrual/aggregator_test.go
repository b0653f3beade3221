package accrual

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartawan/penalty-engine/internal/domain"
)

// fourTermConfig mirrors a 10,000 principal loan repaid in four monthly
// installments of 2,500 each, first due 2024-02-05, penalised at 2% per day.
func fourTermConfig() domain.AccrualConfig {
	return domain.AccrualConfig{
		Principal:      decimal.NewFromInt(10000),
		TermCount:      4,
		Frequency:      domain.FrequencyMonthly,
		AnchorDate:     date(2024, 2, 5),
		AccrualEnabled: true,
		AccrualRate:    decimal.NewFromInt(2),
		AccrualMode:    domain.AccrualModeDaily,
	}
}

func fourInstallments() []*domain.Installment {
	installments := make([]*domain.Installment, 0, 4)
	for i := 1; i <= 4; i++ {
		installments = append(installments, &domain.Installment{
			LoanID:        "LOAN123",
			Index:         i,
			PrincipalBase: decimal.NewFromInt(2500),
		})
	}
	return installments
}

func TestBuildBreakdownConcreteScenario(t *testing.T) {
	evalDate := date(2024, 9, 29)

	breakdown, err := BuildBreakdown(fourTermConfig(), fourInstallments(), evalDate)
	require.NoError(t, err)
	require.Len(t, breakdown.Entries, 4)

	expected := []struct {
		dueDate time.Time
		days    int
		fee     string
	}{
		{date(2024, 2, 5), 237, "11850"},
		{date(2024, 3, 5), 208, "10400"},
		{date(2024, 4, 5), 177, "8850"},
		{date(2024, 5, 5), 147, "7350"},
	}

	for i, want := range expected {
		entry := breakdown.Entries[i]
		assert.Equal(t, i+1, entry.Index)
		assert.True(t, entry.DueDate.Equal(want.dueDate), "entry %d due %s", i+1, entry.DueDate)
		assert.Equal(t, want.days, entry.DaysOverdue, "entry %d", i+1)
		assert.True(t, entry.LateFee.Equal(decimal.RequireFromString(want.fee)),
			"entry %d fee %s", i+1, entry.LateFee)
		assert.False(t, entry.Paid)
	}

	assert.True(t, breakdown.TotalOutstandingFee.Equal(decimal.NewFromInt(38450)),
		"total %s", breakdown.TotalOutstandingFee)
	assert.Equal(t, 147, breakdown.RepresentativeDaysOverdue,
		"soonest-due unpaid installment drives the displayed lateness")
}

func TestBuildBreakdownIdempotent(t *testing.T) {
	evalDate := date(2024, 9, 29)

	first, err := BuildBreakdown(fourTermConfig(), fourInstallments(), evalDate)
	require.NoError(t, err)
	second, err := BuildBreakdown(fourTermConfig(), fourInstallments(), evalDate)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildBreakdownPaidInstallments(t *testing.T) {
	installments := fourInstallments()
	installments[0].Paid = true
	installments[2].Paid = true

	breakdown, err := BuildBreakdown(fourTermConfig(), installments, date(2024, 9, 29))
	require.NoError(t, err)

	// Paid entries keep their audit days but never a fee.
	assert.True(t, breakdown.Entries[0].Paid)
	assert.Equal(t, 237, breakdown.Entries[0].DaysOverdue)
	assert.True(t, breakdown.Entries[0].LateFee.IsZero())
	assert.True(t, breakdown.Entries[2].LateFee.IsZero())

	// Total covers only the unpaid entries: 10400 + 7350.
	assert.True(t, breakdown.TotalOutstandingFee.Equal(decimal.NewFromInt(17750)),
		"total %s", breakdown.TotalOutstandingFee)
	assert.Equal(t, 147, breakdown.RepresentativeDaysOverdue)
}

func TestBuildBreakdownPersistedDueDateWins(t *testing.T) {
	installments := fourInstallments()
	// Installment 2 was rescheduled; the stored date must not be re-derived.
	installments[1].DueDate = date(2024, 6, 1)

	breakdown, err := BuildBreakdown(fourTermConfig(), installments, date(2024, 9, 29))
	require.NoError(t, err)

	assert.True(t, breakdown.Entries[1].DueDate.Equal(date(2024, 6, 1)))
	assert.Equal(t, 120, breakdown.Entries[1].DaysOverdue)
	assert.True(t, breakdown.Entries[1].LateFee.Equal(decimal.NewFromInt(6000)),
		"fee %s", breakdown.Entries[1].LateFee)
}

func TestBuildBreakdownDisabledAccrual(t *testing.T) {
	cfg := fourTermConfig()
	cfg.AccrualEnabled = false

	breakdown, err := BuildBreakdown(cfg, fourInstallments(), date(2024, 9, 29))
	require.NoError(t, err, "disabled accrual is a valid state, not an error")

	assert.True(t, breakdown.TotalOutstandingFee.IsZero())
	for _, entry := range breakdown.Entries {
		assert.True(t, entry.LateFee.IsZero(), "entry %d", entry.Index)
	}
}

func TestBuildBreakdownNothingOverdue(t *testing.T) {
	breakdown, err := BuildBreakdown(fourTermConfig(), fourInstallments(), date(2024, 1, 15))
	require.NoError(t, err)

	assert.True(t, breakdown.TotalOutstandingFee.IsZero())
	assert.Equal(t, 0, breakdown.RepresentativeDaysOverdue)
}

func TestBuildBreakdownDefaultsPrincipalBase(t *testing.T) {
	installments := fourInstallments()
	for _, inst := range installments {
		inst.PrincipalBase = decimal.Zero
	}

	breakdown, err := BuildBreakdown(fourTermConfig(), installments, date(2024, 9, 29))
	require.NoError(t, err)

	// Falls back to principal / term count = 2500 per installment.
	assert.True(t, breakdown.Entries[3].LateFee.Equal(decimal.NewFromInt(7350)),
		"fee %s", breakdown.Entries[3].LateFee)
}

func TestBuildBreakdownCountMismatch(t *testing.T) {
	installments := fourInstallments()[:3]

	breakdown, err := BuildBreakdown(fourTermConfig(), installments, date(2024, 9, 29))

	assert.Error(t, err)
	assert.Nil(t, breakdown, "no partial breakdown on inconsistent data")
}

func TestBuildBreakdownInvalidConfigFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.AccrualConfig)
	}{
		{"zero term count", func(c *domain.AccrualConfig) { c.TermCount = 0 }},
		{"negative rate", func(c *domain.AccrualConfig) { c.AccrualRate = decimal.NewFromInt(-1) }},
		{"negative grace", func(c *domain.AccrualConfig) { c.GracePeriodDays = -1 }},
		{"unknown frequency", func(c *domain.AccrualConfig) { c.Frequency = "lunar" }},
		{"unknown mode", func(c *domain.AccrualConfig) { c.AccrualMode = "hourly" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fourTermConfig()
			tt.mutate(&cfg)

			_, err := BuildBreakdown(cfg, fourInstallments(), date(2024, 9, 29))

			assert.Error(t, err)
		})
	}
}

func TestBuildBreakdownCapAppliesPerEntry(t *testing.T) {
	cfg := fourTermConfig()
	cfg.MaxFeePerTerm = decimal.NewFromInt(8000)

	breakdown, err := BuildBreakdown(cfg, fourInstallments(), date(2024, 9, 29))
	require.NoError(t, err)

	for _, entry := range breakdown.Entries {
		assert.True(t, entry.LateFee.LessThanOrEqual(cfg.MaxFeePerTerm),
			"entry %d fee %s above cap", entry.Index, entry.LateFee)
	}
	// 8000 + 8000 + 8000 + 7350
	assert.True(t, breakdown.TotalOutstandingFee.Equal(decimal.NewFromInt(31350)),
		"total %s", breakdown.TotalOutstandingFee)
}
