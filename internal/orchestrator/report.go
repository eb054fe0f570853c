package orchestrator

import (
	"strings"

	"github.com/m3rciful/routeweather/internal/advisory"
	"github.com/m3rciful/routeweather/internal/forecast"
)

// FormatBlock renders one city-day of the report.
func FormatBlock(city string, rec forecast.Record) string {
	var b strings.Builder
	b.WriteString("City: " + city + "\n")
	b.WriteString("Date: " + rec.Date + "\n")
	b.WriteString("Temperature: " + forecast.FormatNumber(rec.TemperatureC) + "°C\n")
	b.WriteString("Humidity: " + forecast.FormatNumber(rec.HumidityPct) + "%\n")
	b.WriteString("Wind speed: " + forecast.FormatNumber(rec.WindSpeedKmh) + " km/h\n")
	b.WriteString("Precipitation probability: " + forecast.FormatNumber(rec.PrecipitationProbabilityPct) + "%\n")
	b.WriteString("Advisory: " + advisory.Evaluate(rec.TemperatureC, rec.HumidityPct, rec.WindSpeedKmh, rec.PrecipitationProbabilityPct))
	return b.String()
}

// blockSeparator joins city-day blocks.
const blockSeparator = "\n\n"
