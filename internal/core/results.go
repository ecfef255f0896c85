package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the outcome of a finished build, using the orchestrator's numbering.
type Result int

const (
	Success Result = iota
	Warnings
	Failure
	Skipped
	Exception
	Retry
	Cancelled
)

// ResultUnknown marks a record that carried no result. It is never reported as
// a success.
const ResultUnknown Result = -1

var resultNames = []string{"success", "warnings", "failure", "skipped", "exception", "retry", "cancelled"}

func (r Result) String() string {
	if r == ResultUnknown {
		return "unknown"
	}
	if r < 0 || int(r) >= len(resultNames) {
		return fmt.Sprintf("result(%d)", int(r))
	}
	return resultNames[r]
}

// ParseResult converts a result name into a Result.
func ParseResult(s string) (Result, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range resultNames {
		if n == name {
			return Result(i), nil
		}
	}
	return 0, fmt.Errorf("unknown build result %q", s)
}

// Valid reports whether r is one of the named results.
func (r Result) Valid() bool {
	return r >= 0 && int(r) < len(resultNames)
}

// UnmarshalJSON accepts both the numeric and the named form. A null leaves r
// unchanged.
func (r *Result) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*r = Result(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("build result must be a number or a string: %w", err)
	}
	parsed, err := ParseResult(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
