// Package common holds the pieces every tool package needs: account
// argument extraction and the instrumented handler wrappers that give each
// tool a span, metrics, and an audit record.
package common
