package forecast

import (
	"fmt"
	"strconv"
	"strings"
)

// Horizon is the number of forecast days requested by the user.
type Horizon int

const (
	OneDay   Horizon = 1
	ThreeDay Horizon = 3
	FiveDay  Horizon = 5
)

// Horizons lists the supported horizons in menu order.
var Horizons = []Horizon{OneDay, ThreeDay, FiveDay}

// Days reports how many records a horizon resolves to.
func (h Horizon) Days() int { return int(h) }

// Valid reports whether h is one of the supported horizons.
func (h Horizon) Valid() bool {
	switch h {
	case OneDay, ThreeDay, FiveDay:
		return true
	}
	return false
}

// String returns the compact form used in logs, metrics and file names.
func (h Horizon) String() string {
	if !h.Valid() {
		return "unknown"
	}
	return strconv.Itoa(int(h)) + "day"
}

// Label returns the button caption for the horizon.
func (h Horizon) Label() string {
	if h == OneDay {
		return "1 day"
	}
	return fmt.Sprintf("%d days", int(h))
}

// ParseHorizon accepts "1", "3", "5" and the "1day" style forms.
func ParseHorizon(raw string) (Horizon, error) {
	s := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "day")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &UnsupportedHorizonError{Raw: raw}
	}
	h := Horizon(n)
	if !h.Valid() {
		return 0, &UnsupportedHorizonError{Raw: raw}
	}
	return h, nil
}
