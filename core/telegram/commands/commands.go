package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are plain-text triggers such as reply keyboard labels.
	Aliases []string
	// Global commands win over an active conversation when matched by alias.
	Global bool
}
