package model

import (
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
)

// DefaultActor is recorded as the author of a status change when the caller
// does not name one.
const DefaultActor = "admin"

// StatusHistoryRecord is one entry of the append-only audit log of case
// status changes.
type StatusHistoryRecord struct {
	ID        string           `json:"_id,omitempty" bson:"_id,omitempty" firestore:"-"`
	CaseID    string           `json:"case_id" bson:"case_id" firestore:"case_id"`
	OldStatus types.CaseStatus `json:"old_status" bson:"old_status" firestore:"old_status"`
	NewStatus types.CaseStatus `json:"new_status" bson:"new_status" firestore:"new_status"`
	UpdatedAt time.Time        `json:"updated_at" bson:"updated_at" firestore:"updated_at"`
	UpdatedBy string           `json:"updated_by" bson:"updated_by" firestore:"updated_by"`
}
