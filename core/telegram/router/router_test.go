package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/routeweather/core/telegram"
	"github.com/m3rciful/routeweather/core/telegram/commands"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func textContext(b *tele.Bot, text string) tele.Context {
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Sender: &tele.User{ID: 9},
		Chat:   &tele.Chat{ID: 9, Type: tele.ChatPrivate},
		Text:   text,
	}})
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "weather", normalizeHandlerName("/weather"))
	assert.Equal(t, "chart_no", normalizeHandlerName(" chart no "))
	assert.Equal(t, "unknown", normalizeHandlerName(""))
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "/weather", commandName("/weather@route_bot now"))
	assert.Equal(t, "/help", commandName("/help"))
}

func TestTextRoutesUseAliasesThenFallback(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()

	var calls []string
	reg.RegisterCommand("/weather", commands.Command{
		Description: "Plan a route",
		Aliases:     []string{"forecast"},
		Handler:     func(tele.Context) error { calls = append(calls, "weather"); return nil },
	})
	reg.SetTextFallback(func(c tele.Context) error {
		calls = append(calls, "fallback:"+c.Text())
		return nil
	})

	routes := TextRoutes(reg, TextOptions{})
	require.Len(t, routes, 1)
	h := routes[0].Handler

	require.NoError(t, h(textContext(b, "/forecast")))
	require.NoError(t, h(textContext(b, "forecast")))
	require.NoError(t, h(textContext(b, "Moscow")))

	assert.Equal(t, []string{"weather", "fallback:forecast", "fallback:Moscow"}, calls)
}

func TestTextRoutesAddLocation(t *testing.T) {
	routes := TextRoutes(nil, TextOptions{Location: func(tele.Context) error { return nil }})
	require.Len(t, routes, 2)
	assert.Equal(t, tele.OnLocation, routes[1].Endpoint)
}

func TestTextRoutesPropagateErrors(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()
	boom := errors.New("boom")
	reg.SetTextFallback(func(tele.Context) error { return boom })

	h := TextRoutes(reg, TextOptions{})[0].Handler
	assert.ErrorIs(t, h(textContext(b, "Paris")), boom)
}
