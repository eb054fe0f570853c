// Package commands describes slash commands exposed through the registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is one slash command as the bot menu and routers see it.
type Command struct {
	Handler     tele.HandlerFunc
	Description string // menu text
	// AdminOnly commands are wrapped in the admin check and never listed.
	AdminOnly bool
	// Hidden commands work but stay out of the menu.
	Hidden  bool
	Aliases []string
}
