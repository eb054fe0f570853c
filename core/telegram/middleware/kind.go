package middleware

import tele "gopkg.in/telebot.v4"

// UpdateKind names the shape of an update: callback, location, message or other.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil && upd.Message.Location != nil:
		return "location"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}
