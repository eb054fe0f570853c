package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"unique set by router", &tele.Callback{Unique: "horizon_3", Data: ""}, "horizon_3", ""},
		{"encoded unique only", &tele.Callback{Data: "\fchart_no"}, "chart_no", ""},
		{"encoded with payload", &tele.Callback{Data: "\fpage|2"}, "page", "2"},
		{"plain data", &tele.Callback{Data: "stop_yes"}, "stop_yes", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tc.cb)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.payload, payload)
		})
	}
}
