package telegram

import (
	"net"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/routeweather/core/config"
)

// Run modes accepted by NewPoller.
const (
	RunModeWebhook  = coreconfig.RunModeWebhook
	RunModeLongpoll = coreconfig.RunModeLongpoll
)

const defaultLongPollTimeout = 10 * time.Second

// allowedUpdates are the update kinds the bot reacts to: text, commands,
// shared locations and inline button presses.
var allowedUpdates = []string{"message", "callback_query"}

// NewPoller picks the update source for a normalized config. Anything other
// than webhook falls back to long polling.
func NewPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg == nil {
		return &tele.LongPoller{Timeout: defaultLongPollTimeout, AllowedUpdates: allowedUpdates}
	}
	if cfg.Telegram.RunMode == RunModeWebhook {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	timeout := time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultLongPollTimeout
	}
	return &tele.LongPoller{Timeout: timeout, AllowedUpdates: allowedUpdates}
}
