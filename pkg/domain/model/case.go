package model

import (
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Case is a documented human-rights case. CaseID is assigned by the caller
// and never changes; ID is the store's internal identifier.
type Case struct {
	ID             string           `json:"_id,omitempty" bson:"_id,omitempty" firestore:"-"`
	CaseID         string           `json:"case_id" bson:"case_id" firestore:"case_id"`
	Title          string           `json:"title" bson:"title" firestore:"title"`
	Description    string           `json:"description" bson:"description" firestore:"description"`
	ViolationTypes []string         `json:"violation_types" bson:"violation_types" firestore:"violation_types"`
	Status         types.CaseStatus `json:"status" bson:"status" firestore:"status"`
	Priority       types.Priority   `json:"priority,omitempty" bson:"priority,omitempty" firestore:"priority,omitempty"`
	Location       Location         `json:"location" bson:"location" firestore:"location"`
	DateOccurred   time.Time        `json:"date_occurred" bson:"date_occurred" firestore:"date_occurred"`
	DateReported   time.Time        `json:"date_reported" bson:"date_reported" firestore:"date_reported"`
	Victims        []string         `json:"victims" bson:"victims" firestore:"victims"`
	Perpetrators   []Perpetrator    `json:"perpetrators" bson:"perpetrators" firestore:"perpetrators"`
	Evidence       []EvidenceItem   `json:"evidence" bson:"evidence" firestore:"evidence"`
	CreatedBy      string           `json:"created_by" bson:"created_by" firestore:"created_by"`
	CreatedAt      time.Time        `json:"created_at" bson:"created_at" firestore:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" bson:"updated_at" firestore:"updated_at"`
}

type Perpetrator struct {
	Name string `json:"name" bson:"name" firestore:"name"`
	Type string `json:"type" bson:"type" firestore:"type"`
}

// Normalize fills defaults and cleans multi-valued fields in place. It is
// applied before Validate on every write.
func (c *Case) Normalize(now time.Time) {
	c.CaseID = strings.TrimSpace(c.CaseID)
	c.Title = strings.TrimSpace(c.Title)
	c.Status = c.Status.Normalize()
	c.ViolationTypes = NormalizeViolationTypes(c.ViolationTypes)
	if c.Victims == nil {
		c.Victims = []string{}
	}
	if c.Perpetrators == nil {
		c.Perpetrators = []Perpetrator{}
	}
	if c.Evidence == nil {
		c.Evidence = []EvidenceItem{}
	}
	for i := range c.Evidence {
		if c.Evidence[i].DateCaptured.IsZero() {
			c.Evidence[i].DateCaptured = now
		}
	}
}

// Validate enforces the stored schema of a case.
func (c *Case) Validate() error {
	if c.CaseID == "" {
		return validationError("case_id", "case_id is required")
	}
	if strings.Contains(c.CaseID, "/") {
		return validationError("case_id", "case_id must not contain '/'", goerr.V(CaseIDKey, c.CaseID))
	}
	if c.Title == "" {
		return validationError("title", "title is required", goerr.V(CaseIDKey, c.CaseID))
	}
	if len(c.ViolationTypes) == 0 {
		return validationError("violation_types", "at least one violation type is required", goerr.V(CaseIDKey, c.CaseID))
	}
	if !c.Status.IsValid() {
		return validationError("status", "invalid case status", goerr.V(CaseIDKey, c.CaseID), goerr.V(StatusKey, c.Status))
	}
	if !c.Priority.IsValid() {
		return validationError("priority", "invalid priority", goerr.V(CaseIDKey, c.CaseID), goerr.V("priority", c.Priority))
	}
	if err := c.Location.Validate(); err != nil {
		return goerr.Wrap(err, "invalid location", goerr.V(CaseIDKey, c.CaseID))
	}
	if c.DateOccurred.IsZero() {
		return validationError("date_occurred", "date_occurred is required", goerr.V(CaseIDKey, c.CaseID))
	}
	if c.DateReported.IsZero() {
		return validationError("date_reported", "date_reported is required", goerr.V(CaseIDKey, c.CaseID))
	}
	if c.CreatedBy == "" {
		return validationError("created_by", "created_by is required", goerr.V(CaseIDKey, c.CaseID))
	}
	for i, p := range c.Perpetrators {
		if p.Name == "" {
			return validationError("perpetrators", "perpetrator name is required", goerr.V(CaseIDKey, c.CaseID), goerr.V("index", i))
		}
	}
	for i := range c.Evidence {
		if err := c.Evidence[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid evidence", goerr.V(CaseIDKey, c.CaseID), goerr.V("index", i))
		}
	}
	return nil
}

// Copy returns a deep copy of c.
func (c *Case) Copy() *Case {
	copied := *c
	copied.ViolationTypes = append([]string(nil), c.ViolationTypes...)
	copied.Victims = append([]string(nil), c.Victims...)
	copied.Perpetrators = append([]Perpetrator(nil), c.Perpetrators...)
	copied.Evidence = append([]EvidenceItem(nil), c.Evidence...)
	if c.Location.Coordinates != nil {
		copied.Location.Coordinates = NewGeoPoint(c.Location.Coordinates.Longitude(), c.Location.Coordinates.Latitude())
	}
	return &copied
}

// NormalizeViolationTypes trims each value and drops blanks and duplicates,
// keeping first-seen order.
func NormalizeViolationTypes(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SplitViolationTypes parses a comma-separated list of violation types.
func SplitViolationTypes(s string) []string {
	return NormalizeViolationTypes(strings.Split(s, ","))
}
