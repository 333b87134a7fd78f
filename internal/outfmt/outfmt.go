// Package outfmt shapes the JSON output commands write to stdout.
//
// Every invocation emits exactly one JSON document on stdout. Anything meant
// for humans (progress, prompts, warnings) goes to stderr so that scripts can
// pipe stdout straight into jq or another tool.
package outfmt

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
	// StatusSkipped marks a multi-message operation that received no ids.
	StatusSkipped = "skipped"
)

// Envelope is the leading pair of fields every command response carries.
// Embed it first in a response struct so "status" and "account" come out
// ahead of the payload fields.
type Envelope struct {
	Status  string `json:"status"`
	Account string `json:"account,omitempty"`
}

// OK returns a success envelope for the given account. Commands that are not
// scoped to an account pass "".
func OK(account string) Envelope {
	return Envelope{Status: StatusSuccess, Account: account}
}

// Skipped returns the envelope for an operation that had nothing to do.
func Skipped(account string) Envelope {
	return Envelope{Status: StatusSkipped, Account: account}
}

// ErrorEnvelope is the shape every failed command reports on stdout.
type ErrorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Account string `json:"account,omitempty"`
}

// Error builds the stdout document for a failed command.
func Error(account string, err error) ErrorEnvelope {
	return ErrorEnvelope{Status: StatusError, Message: err.Error(), Account: account}
}

// WriteJSON writes v as indented JSON to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONFiltered writes v as indented JSON to w, applying a JQ filter
// expression. If query is empty, behaves like WriteJSON.
func WriteJSONFiltered(w io.Writer, v any, query string) error {
	if query == "" {
		return WriteJSON(w, v)
	}

	// gojq wants plain maps and slices, so round-trip structs through JSON.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	out, err := ApplyToJSON(data, query)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
