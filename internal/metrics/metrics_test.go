package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rmoran/apptrack/internal/models"
)

func app(status models.Status, appliedAt time.Time) models.Application {
	return models.Application{
		ID:        "id-" + string(status),
		Company:   "Acme",
		Position:  "Engineer",
		Status:    status,
		AppliedAt: appliedAt,
	}
}

func TestCompute_EmptyListYieldsZeroRates(t *testing.T) {
	for _, apps := range [][]models.Application{nil, {}} {
		stats := Compute(apps)
		assert.Equal(t, 0, stats.TotalApplications)
		assert.Equal(t, 0.0, stats.SuccessRate)
		assert.Equal(t, 0.0, stats.OfferRate)
		assert.Empty(t, stats.RecentApplications)
	}
}

func TestCompute_BreakdownAlwaysHasAllStatuses(t *testing.T) {
	stats := Compute(nil)
	assert.Len(t, stats.StatusBreakdown, 5)
	for _, s := range models.Statuses {
		count, ok := stats.StatusBreakdown[s]
		assert.True(t, ok, "missing status %q", s)
		assert.Equal(t, 0, count)
	}
}

func TestCompute_Rates(t *testing.T) {
	now := time.Now()
	apps := []models.Application{
		app(models.StatusApplied, now),
		app(models.StatusInterview, now),
		app(models.StatusOffer, now),
		app(models.StatusRejected, now),
	}

	stats := Compute(apps)
	assert.Equal(t, 4, stats.TotalApplications)
	assert.InDelta(t, 50.0, stats.SuccessRate, 1e-9) // 1 interview + 1 offer out of 4
	assert.InDelta(t, 25.0, stats.OfferRate, 1e-9)
	assert.Equal(t, 1, stats.StatusBreakdown[models.StatusApplied])
	assert.Equal(t, 0, stats.StatusBreakdown[models.StatusNoResponse])
}

func TestCompute_UnknownStatusCountsAsNoResponse(t *testing.T) {
	apps := []models.Application{
		{Status: models.Status("ghosted")},
		{Status: models.StatusNoResponse},
	}
	stats := Compute(apps)
	assert.Equal(t, 2, stats.StatusBreakdown[models.StatusNoResponse])
}

func TestCompute_RatesStayInRange(t *testing.T) {
	apps := []models.Application{
		app(models.StatusOffer, time.Now()),
		app(models.StatusInterview, time.Now()),
	}
	stats := Compute(apps)
	assert.GreaterOrEqual(t, stats.SuccessRate, 0.0)
	assert.LessOrEqual(t, stats.SuccessRate, 100.0)
	assert.InDelta(t, 100.0, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 50.0, stats.OfferRate, 1e-9)
}

func TestRecent_NewestFirstAndCapped(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var apps []models.Application
	for i := 0; i < 8; i++ {
		a := app(models.StatusApplied, base.AddDate(0, 0, i))
		a.ID = string(rune('a' + i))
		apps = append(apps, a)
	}

	recent := Recent(apps, 5)
	assert.Len(t, recent, 5)
	assert.Equal(t, "h", recent[0].ID)
	assert.Equal(t, "d", recent[4].ID)

	// caller's slice untouched
	assert.Equal(t, "a", apps[0].ID)
}

func TestGaugeRotation(t *testing.T) {
	assert.InDelta(t, -90.0, GaugeRotation(0), 1e-9)
	assert.InDelta(t, 0.0, GaugeRotation(50), 1e-9)
	assert.InDelta(t, 90.0, GaugeRotation(100), 1e-9)
}
