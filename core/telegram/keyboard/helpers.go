// Package keyboard builds inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline button. Unique is the callback key handlers are
// registered under; Data is an optional payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// InlineButtonsRows lays the buttons out row by row, skipping empty rows.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			b := markup.Data(btn.Text, btn.Unique)
			if btn.Data != "" {
				b = markup.Data(btn.Text, btn.Unique, btn.Data)
			}
			line = append(line, *b.Inline())
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, line)
	}
	return markup
}
