package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHorizon(t *testing.T) {
	for raw, want := range map[string]Horizon{"1": OneDay, "3day": ThreeDay, " 5 ": FiveDay, "5DAY": FiveDay} {
		got, err := ParseHorizon(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	for _, raw := range []string{"", "2", "7day", "week"} {
		_, err := ParseHorizon(raw)
		var uh *UnsupportedHorizonError
		assert.ErrorAs(t, err, &uh, raw)
	}
}

func TestHorizonStrings(t *testing.T) {
	assert.Equal(t, "1day", OneDay.String())
	assert.Equal(t, "1 day", OneDay.Label())
	assert.Equal(t, "5 days", FiveDay.Label())
	assert.Equal(t, "unknown", Horizon(4).String())
}
