package helpers

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// DisplayName returns the user's profile name, then @username, then the
// numeric id as a last resort.
func DisplayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName)); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}
