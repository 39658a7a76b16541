package hass

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/raterudder/powerflow/pkg/types"
)

// Hourly buckets a state history into hourly statistics. Percentage sensors
// ("%") get the mean of the hour's samples. Everything else is treated as a
// cumulative energy meter and gets the energy added during the hour in Wh; a
// decrease is a meter reset and counts from zero. Non-numeric states are
// skipped.
func Hourly(series []types.EntityState) []types.StatisticPoint {
	var unit string
	type sample struct {
		at time.Time
		v  float64
	}
	samples := make([]sample, 0, len(series))
	for _, s := range series {
		if unit == "" {
			unit = s.Attributes.UnitOfMeasurement
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s.State), 64)
		if err != nil {
			continue
		}
		samples = append(samples, sample{at: s.LastChanged, v: v})
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].at.Before(samples[j].at) })

	scale := 1.0
	if strings.HasPrefix(strings.ToLower(unit), "kwh") {
		scale = 1000
	}
	percentage := unit == "%"

	var points []types.StatisticPoint
	var count int
	point := func(hour time.Time) *types.StatisticPoint {
		if n := len(points); n > 0 && points[n-1].Start.Equal(hour) {
			return &points[n-1]
		}
		points = append(points, types.StatisticPoint{Start: hour})
		count = 0
		return &points[len(points)-1]
	}

	for i, s := range samples {
		p := point(s.at.Truncate(time.Hour))
		if percentage {
			count++
			p.Mean += (s.v - p.Mean) / float64(count)
			continue
		}
		if i == 0 {
			continue
		}
		delta := s.v - samples[i-1].v
		if delta < 0 {
			delta = s.v
		}
		p.Sum += delta * scale
	}
	return points
}
