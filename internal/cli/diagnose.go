package cli

import (
	"errors"
	"fmt"

	"github.com/soyeahso/linkpost/internal/config"
	"github.com/soyeahso/linkpost/internal/runner"
	"github.com/soyeahso/linkpost/internal/slack"
	"github.com/soyeahso/linkpost/internal/transport"
	"github.com/soyeahso/linkpost/internal/wlan"
)

// diagnose classifies a run error into a one-line hint for the operator.
func diagnose(err error) string {
	var ce *config.ConfigError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return "configuration problem; run `linkpost status` to list issues"
	case errors.Is(err, slack.ErrInvalidToken):
		return "bot token missing or still the placeholder; set slack.token or LINKPOST_SLACK_TOKEN"
	case errors.Is(err, wlan.ErrLinkUnavailable):
		return "WiFi link unavailable; check wifi.ssid, wifi.password and signal"
	case errors.Is(err, slack.ErrChannelNotFound):
		return "channel not found on the first page of conversations.list; check the name or invite the bot"
	case errors.Is(err, slack.ErrChannelRequired):
		return "no channel given; pass --channel or set slack.channel"
	case errors.Is(err, runner.ErrEmptyMessage):
		return "--raw needs message text"
	}
	if code, ok := slack.IsUpstream(err); ok {
		return fmt.Sprintf("Slack rejected the request (%s)", code)
	}
	if slack.IsTransport(err) {
		if errors.Is(err, transport.ErrBodyTooLarge) {
			return "transport fault: response too large"
		}
		return "transport fault talking to Slack; the link may be up without internet access"
	}
	return ""
}
