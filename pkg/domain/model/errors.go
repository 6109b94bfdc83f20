package model

import "github.com/m-mizutani/goerr/v2"

// Error classes shared by every layer. Callers wrap them with goerr.Wrap and
// the HTTP layer maps them to status codes with errors.Is.
var (
	ErrNotFound            = goerr.New("not found")
	ErrConflict            = goerr.New("conflict")
	ErrNotModified         = goerr.New("not modified")
	ErrValidation          = goerr.New("validation failed")
	ErrUnauthorized        = goerr.New("invalid credentials")
	ErrStorage             = goerr.New("storage failure")
	ErrUpstreamUnavailable = goerr.New("upstream unavailable")
)

// Context keys for error values
const (
	CaseIDKey   = "case_id"
	ReportIDKey = "report_id"
	StatusKey   = "status"
	FieldKey    = "field"
	FilenameKey = "filename"
	BlobKeyKey  = "blob_key"
)

func validationError(field, msg string, values ...goerr.Option) error {
	opts := append([]goerr.Option{goerr.V(FieldKey, field)}, values...)
	return goerr.Wrap(ErrValidation, msg, opts...)
}
