package config

import (
	"log/slog"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/service/slack"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken string
	channel  string
	baseURL  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for event notifications)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("HRMONITOR_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID that receives notifications",
			Category:    "Slack",
			Destination: &x.channel,
			Sources:     cli.EnvVars("HRMONITOR_SLACK_CHANNEL"),
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Public URL of the dashboard, used for links in notifications",
			Category:    "Slack",
			Destination: &x.baseURL,
			Sources:     cli.EnvVars("HRMONITOR_BASE_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channel),
		slog.String("base-url", x.baseURL),
	)
}

// IsConfigured checks if Slack notification is enabled
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// Configure creates a notifier, or returns nil when no bot token is set
func (x *Slack) Configure() (interfaces.Notifier, error) {
	if !x.IsConfigured() {
		logging.Default().Info("Slack Bot Token not configured, notifications are disabled")
		return nil, nil
	}
	if x.channel == "" {
		return nil, goerr.Wrap(ErrMissingConfig, "--slack-channel is required with --slack-bot-token")
	}

	var opts []slack.Option
	if x.baseURL != "" {
		opts = append(opts, slack.WithBaseURL(x.baseURL))
	}
	notifier, err := slack.New(x.botToken, x.channel, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack notifier")
	}
	logging.Default().Info("Slack notifications enabled", "channel", x.channel)
	return notifier, nil
}
