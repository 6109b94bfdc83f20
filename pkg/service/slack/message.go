package slack

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/slack-go/slack"
)

// maxDescriptionBytes keeps section blocks under the Slack text limit
const maxDescriptionBytes = 2000

// truncateToMaxBytes cuts s to at most n bytes without splitting a UTF-8
// sequence.
func truncateToMaxBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func reportCreatedText(r *model.IncidentReport) string {
	return fmt.Sprintf("New incident report %s (%s)", r.ReportID, r.IncidentDetails.Location.Country)
}

func reportCreatedBlocks(r *model.IncidentReport, baseURL string) []slack.Block {
	d := r.IncidentDetails

	place := d.Location.Country
	if d.Location.City != "" {
		place = d.Location.City + ", " + place
	}
	reporter := r.ReporterType
	if r.Anonymous {
		reporter += " (anonymous)"
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "New incident report "+r.ReportID, true, false),
		),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, "*Location*\n"+place, false, false),
			slack.NewTextBlockObject(slack.MarkdownType, "*Date*\n"+d.Date.Format("2006-01-02"), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, "*Violations*\n"+strings.Join(d.ViolationTypes, ", "), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, "*Reporter*\n"+reporter, false, false),
		}, nil),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateToMaxBytes(d.Description, maxDescriptionBytes), false, false),
			nil, nil,
		),
	}

	if baseURL != "" {
		link := fmt.Sprintf("<%s/api/reports/%s|Open report>", strings.TrimRight(baseURL, "/"), r.ReportID)
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, link, false, false),
		))
	}
	return blocks
}

func caseStatusText(rec *model.StatusHistoryRecord) string {
	return fmt.Sprintf("Case %s moved from %s to %s", rec.CaseID, rec.OldStatus, rec.NewStatus)
}

func caseStatusBlocks(rec *model.StatusHistoryRecord, baseURL string) []slack.Block {
	text := fmt.Sprintf("*Case %s*: `%s` → `%s`", rec.CaseID, rec.OldStatus, rec.NewStatus)
	contextText := fmt.Sprintf("by %s at %s", rec.UpdatedBy, rec.UpdatedAt.UTC().Format("2006-01-02 15:04 MST"))
	if baseURL != "" {
		contextText += fmt.Sprintf(" | <%s/api/cases/%s|Open case>", strings.TrimRight(baseURL, "/"), rec.CaseID)
	}

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil, nil,
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, contextText, false, false),
		),
	}
}
