// Package metrics computes aggregate dashboard statistics from a set of
// application records. Every function here is pure and total: degenerate
// input (an empty or nil list) yields zero rates, never NaN.
package metrics

import (
	"sort"

	"github.com/rmoran/apptrack/internal/models"
)

// Stats is the aggregate view shown on the dashboard.
type Stats struct {
	TotalApplications  int                       `json:"total_applications"`
	StatusBreakdown    map[models.Status]int     `json:"status_breakdown"`
	SuccessRate        float64                   `json:"success_rate"`
	OfferRate          float64                   `json:"offer_rate"`
	RecentApplications []models.Application      `json:"recent_applications"`
}

// Compute derives Stats from the given applications. The breakdown always
// contains all five canonical statuses, zero-filled when absent. SuccessRate
// is (interviews + offers) / total and OfferRate is offers / total, both as
// percentages and both 0 when the list is empty.
func Compute(apps []models.Application) Stats {
	breakdown := make(map[models.Status]int, len(models.Statuses))
	for _, s := range models.Statuses {
		breakdown[s] = 0
	}
	for _, a := range apps {
		breakdown[models.NormalizeStatus(string(a.Status))]++
	}

	total := len(apps)
	stats := Stats{
		TotalApplications:  total,
		StatusBreakdown:    breakdown,
		RecentApplications: Recent(apps, 5),
	}
	if total > 0 {
		stats.SuccessRate = float64(breakdown[models.StatusInterview]+breakdown[models.StatusOffer]) / float64(total) * 100
		stats.OfferRate = float64(breakdown[models.StatusOffer]) / float64(total) * 100
	}
	return stats
}

// Recent returns the n most recently applied records, newest first. The
// input slice is not modified.
func Recent(apps []models.Application, n int) []models.Application {
	out := make([]models.Application, len(apps))
	copy(out, apps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppliedAt.After(out[j].AppliedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// GaugeRotation maps a rate in [0,100] onto the dashboard gauge needle
// angle in degrees: 0 -> -90, 100 -> 90.
func GaugeRotation(rate float64) float64 {
	return -90 + rate*1.8
}
