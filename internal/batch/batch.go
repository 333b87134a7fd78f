package batch

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	statusOK     = "success"
	statusFailed = "error"
)

// Result is the outcome of one per-id operation.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the operation for this id did not go through.
func (r Result) Failed() bool {
	return r.Status == statusFailed
}

// Summary is the JSON shape tool output uses for multi-id operations.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// IDsFromArg reads a tool argument holding one id or several. MCP clients
// send either a plain string, a JSON array, or an array serialized into a
// string; all three forms are accepted.
func IDsFromArg(param interface{}, name string) ([]string, error) {
	switch v := param.(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", name)
	case string:
		if parsed, ok := tryParseJSONArray(v); ok {
			return nonEmpty(parsed, name)
		}
		return nonEmpty([]string{v}, name)
	case []interface{}:
		ids := make([]string, 0, len(v))
		for i, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			ids = append(ids, id)
		}
		return nonEmpty(ids, name)
	default:
		return nil, fmt.Errorf("%s must be a string or an array of strings", name)
	}
}

// nonEmpty rejects empty lists and blank entries. A blank id would turn into
// a malformed Gmail API call instead of a client-side error.
func nonEmpty(ids []string, name string) ([]string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", name)
	}
	for i, id := range ids {
		if id == "" {
			if len(ids) == 1 {
				return nil, fmt.Errorf("%s cannot be empty", name)
			}
			return nil, fmt.Errorf("%s[%d] cannot be empty", name, i)
		}
	}
	return ids, nil
}

// tryParseJSONArray unpacks a string holding a JSON string array. Strings that
// merely start with "[" but are not valid JSON are left alone.
func tryParseJSONArray(s string) ([]string, bool) {
	if !strings.HasPrefix(strings.TrimSpace(s), "[") {
		return nil, false
	}
	var parsed []string
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// ParseIDs parses a command-line id argument: a JSON string array or a
// comma-separated list. Entries are trimmed and blanks dropped, so the result
// may be empty; callers treat an empty list as a no-op, not an error.
func ParseIDs(input string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if strings.HasPrefix(input, "[") {
		var parsed []string
		if err := json.Unmarshal([]byte(input), &parsed); err != nil {
			return nil
		}
		ids := make([]string, 0, len(parsed))
		for _, id := range parsed {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	}

	var ids []string
	for _, id := range strings.Split(input, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Run applies op to every id in order and records one Result per id. A
// failing id never stops the rest of the run.
func Run(ids []string, op func(id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		detail, err := op(id)
		if err != nil {
			results = append(results, Result{ID: id, Status: statusFailed, Error: err.Error()})
			continue
		}
		results = append(results, Result{ID: id, Status: statusOK, Result: detail})
	}
	return results
}

// Report renders results as an indented JSON Summary for tool output.
func Report(results []Result) string {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Failed() {
			s.Failed++
		} else {
			s.Successful++
		}
	}
	out, _ := json.MarshalIndent(s, "", "  ")
	return string(out)
}

// Chunk splits ids into runs of at most size elements. The Gmail batch
// endpoints cap the number of ids per call, so large lists go out in pieces.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
