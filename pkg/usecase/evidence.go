package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/hrmonitor/hrmonitor/pkg/utils/metrics"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type EvidenceUseCase struct {
	repo          interfaces.Repository
	blobs         interfaces.BlobStore
	clock         func() time.Time
	maxUploadSize int64
}

// EvidenceUpload is one file attached to a case together with its
// metadata. Empty Type defaults to "file", empty Description to
// "Uploaded: <filename>" and nil DateCaptured to now.
type EvidenceUpload struct {
	Filename     string
	ContentType  string
	Body         io.Reader
	Type         string
	Description  string
	DateCaptured *time.Time
}

func caseEvidenceKey(caseID, filename string) string {
	base, ext := SanitizeFilename(filename)
	return "cases/" + caseID + "/" + uuid.NewString() + "-" + base + ext
}

// AttachEvidence stores the upload under a generated key and appends the
// evidence item to the case. Nothing is written for an unknown case, and
// the blob is removed again when the append fails.
func (uc *EvidenceUseCase) AttachEvidence(ctx context.Context, caseID string, up *EvidenceUpload) (*model.EvidenceItem, error) {
	if uc.blobs == nil {
		return nil, goerr.Wrap(ErrBlobStoreNotConfigured, "cannot attach evidence", goerr.V(model.CaseIDKey, caseID))
	}

	evType := types.EvidenceTypeFile
	if t := strings.TrimSpace(up.Type); t != "" {
		parsed, err := types.ParseEvidenceType(t)
		if err != nil {
			return nil, goerr.Wrap(model.ErrValidation, "invalid evidence type",
				goerr.V(model.CaseIDKey, caseID), goerr.V("type", t))
		}
		evType = parsed
	}

	if _, err := uc.repo.Case().Get(ctx, caseID); err != nil {
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, caseID))
	}

	key := caseEvidenceKey(caseID, up.Filename)
	if err := putLimited(ctx, uc.blobs, key, up.Body, up.ContentType, uc.maxUploadSize); err != nil {
		return nil, goerr.Wrap(err, "failed to store evidence",
			goerr.V(model.CaseIDKey, caseID), goerr.V(model.FilenameKey, up.Filename))
	}

	item := model.EvidenceItem{
		Type:         evType,
		URL:          model.BlobURL(key),
		Description:  up.Description,
		DateCaptured: uc.clock(),
	}
	if item.Description == "" {
		item.Description = "Uploaded: " + up.Filename
	}
	if up.DateCaptured != nil && !up.DateCaptured.IsZero() {
		item.DateCaptured = up.DateCaptured.UTC()
	}

	if err := uc.repo.Case().AppendEvidence(ctx, caseID, item); err != nil {
		safe.Undo(ctx, "delete orphaned evidence blob", func(ctx context.Context) error {
			return uc.blobs.Delete(ctx, key)
		})
		return nil, goerr.Wrap(err, "failed to append evidence",
			goerr.V(model.CaseIDKey, caseID), goerr.V(model.BlobKeyKey, key))
	}

	metrics.RecordEvidenceStored("case", evType.String())
	logging.From(ctx).Info("evidence attached", "case_id", caseID, "blob_key", key, "type", evType)
	return &item, nil
}
