package slack_test

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hrmonitor/hrmonitor/pkg/service/slack"
	"github.com/m-mizutani/gt"
)

func TestTruncateToMaxBytes(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		max    int
		expect string
	}{
		{"short ascii is unchanged", "hello", 10, "hello"},
		{"ascii is cut at limit", "hello world", 5, "hello"},
		{"multibyte is not split", "héllo", 2, "h"},
		{"exact multibyte boundary", "héllo", 3, "hé"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := slack.TruncateToMaxBytes(tc.input, tc.max)
			gt.Value(t, got).Equal(tc.expect)
			gt.Bool(t, utf8.ValidString(got)).True()
		})
	}
}

func TestReportCreatedBlocksOmitContact(t *testing.T) {
	r := newTestReport()
	r.Anonymous = true
	r.IncidentDetails.Description = strings.Repeat("a", 5000)

	raw, err := json.Marshal(slack.ReportCreatedBlocks(r, ""))
	gt.NoError(t, err).Required()

	gt.Bool(t, strings.Contains(string(raw), "secret@example.org")).False()
	gt.String(t, string(raw)).Contains("witness (anonymous)")
	gt.Bool(t, strings.Contains(string(raw), strings.Repeat("a", 2001))).False()
	gt.String(t, slack.ReportCreatedText(r)).Contains("Kenya")
}
