package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/amirasaad/spendsense/pkg/domain"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// popStdDev is the population standard deviation.
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// coefficientOfVariation is stddev/mean, or 0 when the mean is 0.
func coefficientOfVariation(xs []float64) float64 {
	m := mean(xs)
	if m == 0 {
		return 0
	}
	return popStdDev(xs) / m
}

// sortedDays returns the calendar days of dates in ascending order.
func sortedDays(dates []time.Time) []time.Time {
	days := make([]time.Time, len(dates))
	for i, d := range dates {
		days[i] = domain.TruncateDay(d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// dayGaps returns the day distance between consecutive dates after sorting.
func dayGaps(dates []time.Time) []float64 {
	days := sortedDays(dates)
	if len(days) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(days)-1)
	for i := 1; i < len(days); i++ {
		gaps = append(gaps, float64(domain.DaysBetween(days[i-1], days[i])))
	}
	return gaps
}

// between reports lo <= v <= hi.
func between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
