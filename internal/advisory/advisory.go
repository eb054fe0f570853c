// Package advisory turns one day of forecast measurements into a single
// human-readable recommendation.
//
// Rules are evaluated top to bottom and the first match wins. The order and
// the comparison operators are significant: several bands overlap and moving
// a rule or relaxing a bound silently changes which advisory fires.
package advisory

// Indeterminate is returned when no specific rule matches.
const Indeterminate = "Cannot assess the weather, conditions are indeterminate"

type rule struct {
	text  string
	match func(temp, wind, precip float64) bool
}

var rules = []rule{
	{"It is too cold outside, staying indoors is recommended", func(t, w, p float64) bool {
		return t <= -40
	}},
	{"A severe storm is expected, take care", func(t, w, p float64) bool {
		return w >= 75
	}},
	{"Pleasant weather: moderate wind, warm, rain is unlikely", func(t, w, p float64) bool {
		return 11 <= w && w < 30 && 15 < t && t < 25 && p < 30
	}},
	{"High temperature, be careful when going outside", func(t, w, p float64) bool {
		return t > 40 && p < 30
	}},
	{"Hot weather with a chance of rain, take an umbrella", func(t, w, p float64) bool {
		return t > 40 && 30 <= p && p <= 75
	}},
	{"Very high temperature and a high chance of rain, better to stay home", func(t, w, p float64) bool {
		return t > 40 && p > 75
	}},
	{"Cool with possible rain, dress for the season and take an umbrella", func(t, w, p float64) bool {
		return 0 <= t && t <= 15 && w <= 20 && p > 50
	}},
	{"Cool and rain is unlikely, wear a light outer layer", func(t, w, p float64) bool {
		return 0 <= t && t <= 15 && w <= 20
	}},
	{"Strong wind and low temperature, better to stay home", func(t, w, p float64) bool {
		return 0 <= t && t <= 15 && w > 20
	}},
	{"Below zero with rain, a good occasion for ice skating", func(t, w, p float64) bool {
		return t < 0 && p > 70
	}},
	{"Below zero with strong wind, staying inside is recommended", func(t, w, p float64) bool {
		return t < 0 && w >= 40
	}},
	{"Below zero but relatively comfortable", func(t, w, p float64) bool {
		return t < 0
	}},
	{"Rain with moderate wind and a pleasant temperature, be ready for changes", func(t, w, p float64) bool {
		return 15 < t && t <= 40 && p > 55 && w <= 20
	}},
	{"Rain and wind, unfavorable conditions", func(t, w, p float64) bool {
		return 15 < t && t <= 40 && p > 55
	}},
	{"Moderate wind and no rain, up to your preferences", func(t, w, p float64) bool {
		return 15 < t && t <= 40 && p <= 55 && w <= 20
	}},
	{"Moderate wind without rain, your choice", func(t, w, p float64) bool {
		return 15 < t && t <= 40 && w > 20
	}},
	{Indeterminate, func(t, w, p float64) bool {
		return true
	}},
}

// Evaluate returns the advisory for one day of measurements. It always returns
// a non-empty string. Humidity is accepted for completeness of the record but
// no rule depends on it.
func Evaluate(temperatureC, humidityPct, windSpeedKmh, precipitationPct float64) string {
	for _, r := range rules {
		if r.match(temperatureC, windSpeedKmh, precipitationPct) {
			return r.text
		}
	}
	return Indeterminate
}
