package model

import (
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
)

// UploadPathPrefix is the public path under which stored blobs are served.
const UploadPathPrefix = "/uploads/"

// EvidenceItem is a piece of evidence attached to a case.
type EvidenceItem struct {
	Type         types.EvidenceType `json:"type" bson:"type" firestore:"type"`
	URL          string             `json:"url" bson:"url" firestore:"url"`
	Description  string             `json:"description" bson:"description" firestore:"description"`
	DateCaptured time.Time          `json:"date_captured" bson:"date_captured" firestore:"date_captured"`
}

func (e *EvidenceItem) Validate() error {
	if !e.Type.IsValid() {
		return validationError("evidence.type", "invalid evidence type")
	}
	if e.URL == "" {
		return validationError("evidence.url", "evidence url is required")
	}
	return nil
}

// ReportEvidence is a file submitted together with an incident report.
type ReportEvidence struct {
	Type        types.EvidenceType `json:"type" bson:"type" firestore:"type"`
	URL         string             `json:"url" bson:"url" firestore:"url"`
	Description string             `json:"description" bson:"description" firestore:"description"`
}

// BlobURL returns the public URL of a stored blob key.
func BlobURL(key string) string {
	return UploadPathPrefix + key
}
