package service

import (
	"math"

	"BPOrganizer.api/internal/models"
)

// Summarize computes the arithmetic means of readings, rounded to the
// nearest integer. The pulse average only counts readings that carry a
// pulse and is nil when none do.
func Summarize(readings []models.Reading) (models.Summary, error) {
	if len(readings) == 0 {
		return models.Summary{}, ErrNoReadings
	}

	var sys, dia, pulse, withPulse int
	for _, r := range readings {
		sys += r.Systolic
		dia += r.Diastolic
		if r.Pulse != nil {
			pulse += *r.Pulse
			withPulse++
		}
	}

	summary := models.Summary{
		Readings:         append([]models.Reading(nil), readings...),
		AverageSystolic:  roundedMean(sys, len(readings)),
		AverageDiastolic: roundedMean(dia, len(readings)),
	}
	if withPulse > 0 {
		summary.AveragePulse = models.IntPtr(roundedMean(pulse, withPulse))
	}
	return summary, nil
}

func roundedMean(total, n int) int {
	return int(math.Round(float64(total) / float64(n)))
}
