// Package bot connects the route dialog to Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/core/metrics"
	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
	"github.com/m3rciful/routeweather/core/telegram/keyboard"
	"github.com/m3rciful/routeweather/core/telegram/netutil"
	"github.com/m3rciful/routeweather/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Sender is the part of the Bot API the gateway needs. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Gateway delivers dialog output to private chats.
type Gateway struct {
	api     Sender
	metrics *metrics.Metrics
}

var _ conversation.Gateway = (*Gateway)(nil)

// NewGateway wraps api.
func NewGateway(api Sender, m *metrics.Metrics) *Gateway {
	return &Gateway{api: api, metrics: m}
}

// SendText sends text, split into several messages when it exceeds the
// Bot API length limit.
func (g *Gateway) SendText(ctx context.Context, user int64, text string) error {
	for _, chunk := range tghelpers.SplitMessage(text, tghelpers.MaxMessageLength) {
		if err := g.send(ctx, user, "text", chunk); err != nil {
			return err
		}
	}
	return nil
}

// SendChoices sends text with an inline keyboard, one button per choice.
func (g *Gateway) SendChoices(ctx context.Context, user int64, text string, rows [][]conversation.Choice) error {
	btnRows := make([][]keyboard.InlineBtn, len(rows))
	for i, row := range rows {
		btnRows[i] = make([]keyboard.InlineBtn, len(row))
		for j, ch := range row {
			btnRows[i][j] = keyboard.InlineBtn{Text: ch.Label, Unique: ch.Token}
		}
	}
	return g.send(ctx, user, "choices", text, keyboard.InlineButtonsRows(btnRows...))
}

// SendImage uploads the PNG at path and removes the file afterwards,
// whether or not the upload succeeded.
func (g *Gateway) SendImage(ctx context.Context, user int64, path string) error {
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn(ctx, "tg", "image.cleanup",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return g.send(ctx, user, "photo", &tele.Photo{File: tele.FromDisk(path)})
}

func (g *Gateway) send(ctx context.Context, user int64, kind string, what interface{}, opts ...interface{}) error {
	if _, err := g.api.Send(tele.ChatID(user), what, opts...); err != nil {
		logger.Error(ctx, "tg", "send",
			slog.String("status", "fail"),
			slog.String("kind", kind),
			slog.String("err", netutil.SanitizeError(err)),
			slog.String("err_kind", netutil.ClassifyError(err)),
		)
		return fmt.Errorf("send %s: %s", kind, netutil.SanitizeError(err))
	}
	g.metrics.MessageSent(kind)
	return nil
}
