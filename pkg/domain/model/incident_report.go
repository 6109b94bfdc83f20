package model

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ReportSequenceBase is the sequence number preceding the first report of a
// year, so the first report is IR-<year>-1001.
const ReportSequenceBase = 1000

// MinDescriptionLength is the minimum length of an incident description.
const MinDescriptionLength = 3

// UnknownCountry is stored when the reported location cannot be resolved.
const UnknownCountry = "Unknown"

// IncidentReport is a public submission describing an incident.
type IncidentReport struct {
	ID              string             `json:"id,omitempty" bson:"_id,omitempty" firestore:"-"`
	ReportID        string             `json:"report_id" bson:"report_id" firestore:"report_id"`
	ReporterType    string             `json:"reporter_type" bson:"reporter_type" firestore:"reporter_type"`
	Anonymous       bool               `json:"anonymous" bson:"anonymous" firestore:"anonymous"`
	ContactInfo     *ContactInfo       `json:"contact_info,omitempty" bson:"contact_info,omitempty" firestore:"contact_info,omitempty"`
	IncidentDetails IncidentDetails    `json:"incident_details" bson:"incident_details" firestore:"incident_details"`
	Evidence        []ReportEvidence   `json:"evidence" bson:"evidence" firestore:"evidence"`
	Status          types.ReportStatus `json:"status" bson:"status" firestore:"status"`
	AssignedTo      string             `json:"assigned_to,omitempty" bson:"assigned_to,omitempty" firestore:"assigned_to,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at" firestore:"created_at"`
}

// ContactInfo is how a non-anonymous reporter can be reached. The values are
// redacted from logs.
type ContactInfo struct {
	Email            string `json:"email,omitempty" bson:"email,omitempty" firestore:"email,omitempty" masq:"secret"`
	Phone            string `json:"phone,omitempty" bson:"phone,omitempty" firestore:"phone,omitempty" masq:"secret"`
	PreferredContact string `json:"preferred_contact,omitempty" bson:"preferred_contact,omitempty" firestore:"preferred_contact,omitempty"`
}

type IncidentDetails struct {
	Date           time.Time `json:"date" bson:"date" firestore:"date"`
	Location       Location  `json:"location" bson:"location" firestore:"location"`
	Description    string    `json:"description" bson:"description" firestore:"description"`
	ViolationTypes []string  `json:"violation_types" bson:"violation_types" firestore:"violation_types"`
}

// ValidateContact enforces the contact rule: a non-anonymous reporter must
// give an email or a phone number, and a given email must be well formed.
func ValidateContact(anonymous bool, c *ContactInfo) error {
	if c != nil && c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return validationError("contact_info.email", "invalid email address")
		}
	}
	if anonymous {
		return nil
	}
	if c == nil || (strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.Phone) == "") {
		return validationError("contact_info", "email or phone is required for non-anonymous reports")
	}
	return nil
}

// Validate enforces the stored schema of an incident report. It is also used
// to skip malformed documents when listing.
func (r *IncidentReport) Validate() error {
	if _, _, ok := ParseReportID(r.ReportID); !ok {
		return validationError("report_id", "invalid report id", goerr.V(ReportIDKey, r.ReportID))
	}
	if !r.Status.IsValid() {
		return validationError("status", "invalid report status", goerr.V(ReportIDKey, r.ReportID), goerr.V(StatusKey, r.Status))
	}
	if err := ValidateContact(r.Anonymous, r.ContactInfo); err != nil {
		return goerr.Wrap(err, "invalid contact info", goerr.V(ReportIDKey, r.ReportID))
	}

	d := &r.IncidentDetails
	if d.Date.IsZero() {
		return validationError("incident_details.date", "incident date is required", goerr.V(ReportIDKey, r.ReportID))
	}
	if len(strings.TrimSpace(d.Description)) < MinDescriptionLength {
		return validationError("incident_details.description", "description is too short", goerr.V(ReportIDKey, r.ReportID))
	}
	if len(d.ViolationTypes) == 0 {
		return validationError("incident_details.violation_types", "at least one violation type is required", goerr.V(ReportIDKey, r.ReportID))
	}
	if d.Location.Coordinates == nil {
		return validationError("incident_details.location.coordinates", "coordinates are required", goerr.V(ReportIDKey, r.ReportID))
	}
	if err := d.Location.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident location", goerr.V(ReportIDKey, r.ReportID))
	}
	for i, e := range r.Evidence {
		if !e.Type.IsValid() || e.URL == "" {
			return validationError("evidence", "invalid evidence", goerr.V(ReportIDKey, r.ReportID), goerr.V("index", i))
		}
	}
	return nil
}

var reportIDPattern = regexp.MustCompile(`^IR-(\d{4})-(\d+)$`)

// FormatReportID renders a report id.
func FormatReportID(year, seq int) string {
	return fmt.Sprintf("IR-%04d-%d", year, seq)
}

// ParseReportID splits a report id into year and sequence.
func ParseReportID(id string) (year, seq int, ok bool) {
	m := reportIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return year, seq, true
}

// ReportIDPrefix returns the common prefix of every report id of year.
func ReportIDPrefix(year int) string {
	return fmt.Sprintf("IR-%04d-", year)
}
