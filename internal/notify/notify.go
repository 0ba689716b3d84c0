// Package notify bridges kitchen events to chat platforms (Slack, Discord).
// Delivery is best-effort: a failed notification is logged and never fails
// the mutation that triggered it.
package notify

import (
	"context"
	"fmt"

	"github.com/openlangar/langar/internal/config"
)

// Event is a kitchen happening worth telling the team about.
type Event struct {
	Title string // headline, e.g. "Meal complete: Lunch"
	Body  string // detail text, may be multi-line
}

// Notifier is the interface platform implementations satisfy.
type Notifier interface {
	// Send delivers one event to the platform.
	Send(ctx context.Context, ev Event) error

	// Close releases the platform connection.
	Close() error
}

// Nop discards all events. Used when no platform is configured.
type Nop struct{}

func (Nop) Send(context.Context, Event) error { return nil }
func (Nop) Close() error                      { return nil }

// FromConfig builds the configured Notifier. An empty platform yields Nop.
func FromConfig(cfg config.NotifyConfig) (Notifier, error) {
	switch cfg.Platform {
	case "":
		return Nop{}, nil
	case "slack":
		return NewSlack(SlackOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
	case "discord":
		return NewDiscord(DiscordOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
	default:
		return nil, fmt.Errorf("notify: unsupported platform %q", cfg.Platform)
	}
}
