package conversation

import (
	"strconv"
	"strings"

	"github.com/m3rciful/routeweather/internal/forecast"
)

// Choice tokens carried by inline buttons.
const (
	TokenStopoverYes = "stop_yes"
	TokenStopoverNo  = "stop_no"
	TokenChartNo     = "chart_no"

	horizonPrefix = "horizon_"
	chartPrefix   = "chart_"
)

// HorizonToken returns the button token that selects h.
func HorizonToken(h forecast.Horizon) string {
	return horizonPrefix + strconv.Itoa(int(h))
}

// ChartToken returns the button token that requests a chart for h.
func ChartToken(h forecast.Horizon) string {
	return chartPrefix + strconv.Itoa(int(h))
}

// Tokens lists every token the dialog can put on a button.
func Tokens() []string {
	out := []string{TokenStopoverYes, TokenStopoverNo}
	for _, h := range forecast.Horizons {
		out = append(out, HorizonToken(h))
	}
	for _, h := range forecast.Horizons {
		out = append(out, ChartToken(h))
	}
	return append(out, TokenChartNo)
}

func parseHorizonToken(token, prefix string) (forecast.Horizon, bool) {
	raw, ok := strings.CutPrefix(token, prefix)
	if !ok {
		return 0, false
	}
	h, err := forecast.ParseHorizon(raw)
	if err != nil {
		return 0, false
	}
	return h, true
}

func yesNo(yes, no string) [][]Choice {
	return [][]Choice{{
		{Label: "Yes", Token: yes},
		{Label: "No", Token: no},
	}}
}

func horizonMenu() [][]Choice {
	row := make([]Choice, 0, len(forecast.Horizons))
	for _, h := range forecast.Horizons {
		row = append(row, Choice{Label: h.Label(), Token: HorizonToken(h)})
	}
	return [][]Choice{row}
}
