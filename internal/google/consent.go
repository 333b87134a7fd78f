package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/gmailagent/gmailagent/internal/ui"
)

const (
	// PreferredCallbackPort is tried first so operators can pin a firewall
	// rule to it. Desktop OAuth clients accept any localhost port, so a
	// random port works as the fallback.
	PreferredCallbackPort = 8484

	// ConsentTimeout bounds how long the flow waits for the browser.
	ConsentTimeout = 5 * time.Minute
)

type consentResult struct {
	token *oauth2.Token
	err   error
}

// RunConsentFlow obtains a token interactively: it starts a localhost
// callback server, opens the consent URL in a browser, and exchanges the
// returned authorization code. A per-invocation state parameter ties the
// callback to this flow. Guidance goes to stderr through the UI carried in
// ctx.
func RunConsentFlow(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	out := ui.FromContext(ctx)

	listener, err := listenCallback()
	if err != nil {
		return nil, fmt.Errorf("starting consent callback server: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	flowConf := *conf
	flowConf.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	state := uuid.NewString()
	authURL := flowConf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	results := make(chan consentResult, 1)
	var handled atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if !handled.CompareAndSwap(false, true) {
			http.Error(w, "Callback already processed", http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			results <- consentResult{err: errors.New("state mismatch in consent callback")}
			return
		}
		if denial := r.URL.Query().Get("error"); denial != "" {
			http.Error(w, "Consent was not granted", http.StatusBadRequest)
			results <- consentResult{err: fmt.Errorf("consent denied: %s", denial)}
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			results <- consentResult{err: errors.New("consent callback carried no authorization code")}
			return
		}

		token, err := flowConf.Exchange(ctx, code)
		if err != nil {
			http.Error(w, "Token exchange failed", http.StatusInternalServerError)
			results <- consentResult{err: fmt.Errorf("exchanging authorization code: %w", err)}
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, consentSuccessHTML)
		results <- consentResult{token: token}
	})

	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go srv.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	out.Info("Opening your browser for Google consent...")
	if err := openBrowser(authURL); err != nil {
		out.Warning("Could not open a browser automatically.")
		out.Info("Visit this URL to continue:")
		out.Plain(authURL)
	}
	out.Info("Waiting for the consent callback... (Ctrl+C to cancel)")

	timer := time.NewTimer(ConsentTimeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		out.Success("Consent granted.")
		return res.token, nil
	case <-timer.C:
		return nil, fmt.Errorf("timed out after %s waiting for the consent callback", ConsentTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// listenCallback binds the callback listener on localhost, preferring the
// stable port and falling back to a random one.
func listenCallback() (net.Listener, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", PreferredCallbackPort))
	if err == nil {
		return listener, nil
	}
	return net.Listen("tcp", "127.0.0.1:0")
}

// openBrowser opens rawURL with the platform browser. The URL is validated
// first: only https, or http to localhost, ever reaches exec.
func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		host := parsed.Hostname()
		if host != "127.0.0.1" && host != "localhost" {
			return fmt.Errorf("refusing to open plain http URL for host %q", host)
		}
	default:
		return fmt.Errorf("invalid URL scheme: %s", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

const consentSuccessHTML = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>gmailagent authorized</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 480px; margin: 80px auto; text-align: center; color: #1f2937; }
		.ok { color: #16a34a; font-size: 22px; }
	</style>
</head>
<body>
	<div class="ok">Authorization complete</div>
	<p>gmailagent can now access this Gmail account.</p>
	<p>You can close this tab and return to the terminal.</p>
</body>
</html>
`
