package google

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// ErrConsentRequired is returned when a token cannot be obtained without the
// interactive consent flow and the manager was built without one. The MCP
// server runs in this mode: it cannot open a browser on behalf of a client.
var ErrConsentRequired = errors.New("interactive consent required")

// CredentialsFileMissingError reports a missing OAuth client file. Nothing
// can authenticate without it, so commands terminate on it centrally;
// everything below the command layer just propagates it.
type CredentialsFileMissingError struct {
	Path string
}

func (e *CredentialsFileMissingError) Error() string {
	return fmt.Sprintf("OAuth client credentials not found at %s", e.Path)
}

// Remediation returns operator-facing steps for fixing the missing file.
func (e *CredentialsFileMissingError) Remediation() []string {
	return []string{
		"Create an OAuth client ID of type \"Desktop app\" in the Google Cloud console:",
		"  https://console.cloud.google.com/apis/credentials",
		fmt.Sprintf("Download the client secret JSON and save it as %s", e.Path),
		"Then rerun the command.",
	}
}

// TokenRefreshError wraps a failed refresh attempt. Permanent rejections
// (revoked or invalid grants) send the caller back through interactive
// consent; transient failures surface as-is so a network blip does not
// burn the stored grant.
type TokenRefreshError struct {
	Permanent bool
	Err       error
}

func (e *TokenRefreshError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("token refresh rejected permanently: %v", e.Err)
	}
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }

func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}

	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		switch retrieve.ErrorCode {
		case "invalid_grant", "invalid_client", "unauthorized_client":
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	markers := []string{
		"invalid_grant",
		"invalid_client",
		"unauthorized_client",
		"token has been expired or revoked",
		"revoked",
	}
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
