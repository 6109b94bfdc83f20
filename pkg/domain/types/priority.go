package types

import "github.com/m-mizutani/goerr/v2"

// Priority is the triage priority of a case. The empty value means unset.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid reports whether p is a known priority. Unset is valid.
func (p Priority) IsValid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	return string(p)
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.IsValid() {
		return "", goerr.New("invalid priority", goerr.V("priority", s))
	}
	return p, nil
}
