package forecast

import (
	"strconv"
	"strings"
)

// Record is one day of forecast data for a city. Values are metric: degrees
// Celsius, percent and km/h.
type Record struct {
	Date                        string
	TemperatureC                float64
	HumidityPct                 float64
	WindSpeedKmh                float64
	PrecipitationProbabilityPct float64
}

// Point is one dated temperature sample kept for charting.
type Point struct {
	Date         string
	TemperatureC float64
}

// Point returns the chartable part of the record.
func (r Record) Point() Point {
	return Point{Date: r.Date, TemperatureC: r.TemperatureC}
}

// FormatNumber prints v in its shortest exact decimal form (21, 21.5, -3.25).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPoints(points []Point) string {
	if len(points) == 1 {
		return FormatNumber(points[0].TemperatureC)
	}
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, p.Date+":"+FormatNumber(p.TemperatureC))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
