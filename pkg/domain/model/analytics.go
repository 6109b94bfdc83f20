package model

import (
	"sort"
)

// MaxReportViolationGroups caps the number of groups returned by report
// violation analytics.
const MaxReportViolationGroups = 100

// TimelineDateFormat is the bucket key format of the case timeline.
const TimelineDateFormat = "2006-01"

type ViolationCount struct {
	ViolationType string `json:"violation_type" bson:"_id"`
	Count         int    `json:"count" bson:"count"`
}

type CountryCount struct {
	Country string `json:"country" bson:"_id"`
	Count   int    `json:"count" bson:"count"`
}

type TimelinePoint struct {
	Date  string `json:"date" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// AnalyticsSummary bundles the three case aggregations for a dashboard.
type AnalyticsSummary struct {
	Violations []ViolationCount `json:"violations"`
	Geodata    []CountryCount   `json:"geodata"`
	Timeline   []TimelinePoint  `json:"timeline"`
}

type keyCount struct {
	key   string
	count int
}

// rankCounts orders by count descending, then key ascending.
func rankCounts(counts map[string]int) []keyCount {
	out := make([]keyCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, keyCount{key: k, count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

// CountCaseViolations counts cases per individual violation type.
func CountCaseViolations(cases []*Case) []ViolationCount {
	counts := make(map[string]int)
	for _, c := range cases {
		for _, v := range c.ViolationTypes {
			counts[v]++
		}
	}
	ranked := rankCounts(counts)
	out := make([]ViolationCount, len(ranked))
	for i, kc := range ranked {
		out[i] = ViolationCount{ViolationType: kc.key, Count: kc.count}
	}
	return out
}

// CountCaseCountries counts cases per location country.
func CountCaseCountries(cases []*Case) []CountryCount {
	counts := make(map[string]int)
	for _, c := range cases {
		counts[c.Location.Country]++
	}
	ranked := rankCounts(counts)
	out := make([]CountryCount, len(ranked))
	for i, kc := range ranked {
		out[i] = CountryCount{Country: kc.key, Count: kc.count}
	}
	return out
}

// CountCasesByMonth buckets cases by the month of DateOccurred,
// chronologically. Cases without an occurrence date are left out.
func CountCasesByMonth(cases []*Case) []TimelinePoint {
	counts := make(map[string]int)
	for _, c := range cases {
		if c.DateOccurred.IsZero() {
			continue
		}
		counts[c.DateOccurred.UTC().Format(TimelineDateFormat)]++
	}
	out := make([]TimelinePoint, 0, len(counts))
	for k, v := range counts {
		out = append(out, TimelinePoint{Date: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// CountReportViolations counts reports per individual violation type,
// returning at most limit groups.
func CountReportViolations(reports []*IncidentReport, limit int) []ViolationCount {
	counts := make(map[string]int)
	for _, r := range reports {
		for _, v := range r.IncidentDetails.ViolationTypes {
			counts[v]++
		}
	}
	ranked := rankCounts(counts)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]ViolationCount, len(ranked))
	for i, kc := range ranked {
		out[i] = ViolationCount{ViolationType: kc.key, Count: kc.count}
	}
	return out
}
