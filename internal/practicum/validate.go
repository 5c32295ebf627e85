package practicum

import "encoding/json"

// Homework is one submission's review state as reported by the API.
type Homework struct {
	Name   string `json:"homework_name"`
	Status string `json:"status"`
	Lesson string `json:"lesson_name,omitempty"`
}

// Report is a validated API response. Homeworks is ordered most-recent-first
// (upstream semantics). CurrentDate is the server-supplied cursor for the
// next poll; 0 means the server sent none.
type Report struct {
	Homeworks   []Homework
	CurrentDate int64
}

// Validate checks the raw response shape and extracts the homework list.
// An empty list is a legitimate "nothing under review" state, not an error.
func Validate(raw json.RawMessage) (Report, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Report{}, &SchemaError{Reason: "top-level value is not an object"}
	}

	hw, ok := top["homeworks"]
	if !ok {
		return Report{}, &SchemaError{Reason: "missing key \"homeworks\""}
	}

	var list []Homework
	if err := json.Unmarshal(hw, &list); err != nil {
		return Report{}, &SchemaError{Reason: "\"homeworks\" is not an array of homework objects"}
	}

	var rep Report
	rep.Homeworks = list

	// current_date is optional; a missing or non-integer value leaves the
	// caller's cursor unchanged.
	if cd, ok := top["current_date"]; ok {
		var cur int64
		if err := json.Unmarshal(cd, &cur); err == nil {
			rep.CurrentDate = cur
		}
	}

	return rep, nil
}
