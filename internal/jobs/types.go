package jobs

import (
	"encoding/json"
	"fmt"

	"bazi/internal/reverse"
)

// ReverseScope is the input of a reverse_search job.
type ReverseScope struct {
	Targets reverse.Targets `json:"targets"`
	Range   reverse.Range   `json:"range"`
}

// Label renders the targets and range, e.g. "庚午 辛巳 庚辰 庚辰 1920-2040".
func (s ReverseScope) Label() string {
	return fmt.Sprintf("%s %d-%d", s.Targets, s.Range.From, s.Range.To)
}

// ParseReverseScope parses the scope JSON of a reverse_search job. An empty
// range falls back to reverse.DefaultRange.
func ParseReverseScope(scopeJSON string) (*ReverseScope, error) {
	var scope ReverseScope
	if scopeJSON != "" {
		if err := json.Unmarshal([]byte(scopeJSON), &scope); err != nil {
			return nil, err
		}
	}
	if scope.Range == (reverse.Range{}) {
		scope.Range = reverse.DefaultRange
	}
	return &scope, nil
}

// ReverseResult is the output of a reverse_search job.
type ReverseResult struct {
	Targets reverse.Targets `json:"targets"`
	Range   reverse.Range   `json:"range"`
	Matches []reverse.Match `json:"matches"`
	Count   int             `json:"count"`
	// Consistent is false when the targets cannot co-occur and no scan ran.
	Consistent bool   `json:"consistent"`
	Duration   string `json:"duration"`
}

// MatchCount is recorded on the job so listings need not decode results.
func (r ReverseResult) MatchCount() int { return r.Count }

// ParseReverseResult decodes a completed job's result.
func ParseReverseResult(resultJSON string) (*ReverseResult, error) {
	if resultJSON == "" {
		return nil, nil
	}
	var res ReverseResult
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return nil, err
	}
	return &res, nil
}
