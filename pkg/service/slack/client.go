package slack

import (
	"context"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier posts case and report events to a Slack channel
type Notifier struct {
	api     *slack.Client
	channel string
	baseURL string
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*notifierConfig)

type notifierConfig struct {
	apiURL  string
	baseURL string
}

// WithAPIURL overrides the Slack Web API endpoint. Tests point it at a local
// server.
func WithAPIURL(url string) Option {
	return func(c *notifierConfig) {
		c.apiURL = url
	}
}

// WithBaseURL sets the public URL of the dashboard. When set, messages link
// to the case or report.
func WithBaseURL(url string) Option {
	return func(c *notifierConfig) {
		c.baseURL = url
	}
}

// New creates a Notifier that posts to channel with the provided bot token
func New(token, channel string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channel == "" {
		return nil, goerr.New("Slack channel is required")
	}

	var cfg notifierConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var apiOpts []slack.Option
	if cfg.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &Notifier{
		api:     slack.New(token, apiOpts...),
		channel: channel,
		baseURL: cfg.baseURL,
	}, nil
}

func (n *Notifier) post(ctx context.Context, blocks []slack.Block, text string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post Slack message", goerr.V("channel", n.channel))
	}
	return nil
}

// NotifyReportCreated announces a new incident report. Contact details are
// never included.
func (n *Notifier) NotifyReportCreated(ctx context.Context, r *model.IncidentReport) error {
	if err := n.post(ctx, reportCreatedBlocks(r, n.baseURL), reportCreatedText(r)); err != nil {
		return goerr.Wrap(err, "failed to notify report", goerr.V(model.ReportIDKey, r.ReportID))
	}
	return nil
}

func (n *Notifier) NotifyCaseStatusChanged(ctx context.Context, rec *model.StatusHistoryRecord) error {
	if err := n.post(ctx, caseStatusBlocks(rec, n.baseURL), caseStatusText(rec)); err != nil {
		return goerr.Wrap(err, "failed to notify case status", goerr.V(model.CaseIDKey, rec.CaseID))
	}
	return nil
}
