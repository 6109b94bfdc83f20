package types

import (
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// EvidenceType classifies an evidence item
type EvidenceType string

const (
	EvidenceTypePhoto    EvidenceType = "photo"
	EvidenceTypeVideo    EvidenceType = "video"
	EvidenceTypeDocument EvidenceType = "document"
	EvidenceTypeFile     EvidenceType = "file"
)

func AllEvidenceTypes() []EvidenceType {
	return []EvidenceType{
		EvidenceTypePhoto,
		EvidenceTypeVideo,
		EvidenceTypeDocument,
		EvidenceTypeFile,
	}
}

func (t EvidenceType) IsValid() bool {
	switch t {
	case EvidenceTypePhoto,
		EvidenceTypeVideo,
		EvidenceTypeDocument,
		EvidenceTypeFile:
		return true
	default:
		return false
	}
}

func (t EvidenceType) String() string {
	return string(t)
}

func ParseEvidenceType(s string) (EvidenceType, error) {
	t := EvidenceType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid evidence type", goerr.V("type", s))
	}
	return t, nil
}

var (
	photoExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	}
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".avi": {}, ".mov": {}, ".webm": {}, ".flv": {},
	}
)

// EvidenceTypeFromFilename classifies a file by its extension,
// case-insensitively. Unknown extensions are documents.
func EvidenceTypeFromFilename(name string) EvidenceType {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := photoExtensions[ext]; ok {
		return EvidenceTypePhoto
	}
	if _, ok := videoExtensions[ext]; ok {
		return EvidenceTypeVideo
	}
	return EvidenceTypeDocument
}
