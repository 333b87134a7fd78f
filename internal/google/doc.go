// Package google handles OAuth2 authentication against Google for every
// configured account.
//
// Tokens live in one JSON file per account. The Manager walks each file
// through its lifecycle: a valid token is used as-is, an expired one with a
// refresh token is refreshed, and everything else goes through the
// interactive consent flow in a browser. Each state change writes the token
// file exactly once.
package google
