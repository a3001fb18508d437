package fundamentals

import (
	"math"

	"github.com/bobmcallan/horizon/internal/models"
)

// ComputeGraham returns the Graham number sqrt(22.5 * EPS * BVPS). Defined
// only for positive EPS and book value per share.
func ComputeGraham(d *models.FundamentalData) *models.GrahamValuation {
	if d == nil || d.EPS == nil || d.BookValuePerShare == nil || *d.EPS <= 0 || *d.BookValuePerShare <= 0 {
		return &models.GrahamValuation{Status: "UNDEFINED"}
	}
	return &models.GrahamValuation{
		Value:  models.Float(math.Sqrt(22.5 * *d.EPS * *d.BookValuePerShare)),
		Status: "OK",
	}
}
