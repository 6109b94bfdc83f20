package slack

// Export internal functions for testing
var (
	TruncateToMaxBytes  = truncateToMaxBytes
	ReportCreatedBlocks = reportCreatedBlocks
	ReportCreatedText   = reportCreatedText
	CaseStatusText      = caseStatusText
)
