package http

import (
	"encoding/json"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// bodyTime is a timestamp in a JSON request body. It accepts the same
// layouts as query parameters; null and "" decode to the zero time.
type bodyTime time.Time

func (t *bodyTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = bodyTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return goerr.Wrap(model.ErrValidation, "date must be a string", goerr.V("value", string(data)))
	}
	if s == "" {
		*t = bodyTime{}
		return nil
	}
	v, err := parseTime("date", s)
	if err != nil {
		return err
	}
	*t = bodyTime(v)
	return nil
}

type evidenceBody struct {
	model.EvidenceItem
	DateCaptured bodyTime `json:"date_captured"`
}

// caseBody is the JSON body of case create and update requests. The date
// fields shadow the ones of the embedded case.
type caseBody struct {
	model.Case
	DateOccurred bodyTime       `json:"date_occurred"`
	DateReported bodyTime       `json:"date_reported"`
	Evidence     []evidenceBody `json:"evidence"`
	UpdatedBy    string         `json:"updated_by"`
}

func (b *caseBody) toCase() *model.Case {
	c := b.Case
	c.DateOccurred = time.Time(b.DateOccurred)
	c.DateReported = time.Time(b.DateReported)
	if b.Evidence != nil {
		c.Evidence = make([]model.EvidenceItem, len(b.Evidence))
		for i, e := range b.Evidence {
			item := e.EvidenceItem
			item.DateCaptured = time.Time(e.DateCaptured)
			c.Evidence[i] = item
		}
	}
	return &c
}
