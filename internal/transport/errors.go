package transport

import "strings"

// Markers Telegram uses when a recipient can no longer be reached: the user
// blocked the bot, deleted their account, or the chat is gone. Matching is
// on the error text because adapters wrap platform errors.
var goneMarkers = []string{
	"blocked",
	"deactivated",
	"chat not found",
	"kicked",
}

// IsRecipientGone reports whether a send failure means the recipient is
// permanently unreachable and should be unsubscribed, as opposed to a
// transient delivery problem.
func IsRecipientGone(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range goneMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
